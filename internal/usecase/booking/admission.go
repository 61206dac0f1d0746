package booking

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/chronoline/booking-api/internal/audit"
	"github.com/chronoline/booking-api/internal/authz"
	"github.com/chronoline/booking-api/internal/cache"
	"github.com/chronoline/booking-api/internal/conflict"
	domain "github.com/chronoline/booking-api/internal/domain/booking"
	"github.com/chronoline/booking-api/internal/httperr"
	"github.com/chronoline/booking-api/internal/interval"
	"github.com/chronoline/booking-api/internal/models"
	"github.com/chronoline/booking-api/internal/schedule"
	"github.com/chronoline/booking-api/internal/timezone"
)

const (
	SourceOnline = "online"
	SourceStaff  = "staff"
)

// ======================================================
// ADMISSION CONTROLLER
// ======================================================

// Admission is the only path allowed to persist a booking. Propose is a
// read-only availability check; Confirm and ConfirmWithOverride run the
// atomic lock-recheck-insert unit in the store.
type Admission struct {
	repo      domain.Repository
	detector  *conflict.Detector
	authorize authz.Authorizer
	proposals *ProposalStore
	audit     *audit.Dispatcher
	cache     *cache.SlotCache

	now func() time.Time
}

func NewAdmission(
	repo domain.Repository,
	detector *conflict.Detector,
	authorizer authz.Authorizer,
	proposals *ProposalStore,
	dispatcher *audit.Dispatcher,
	slotCache *cache.SlotCache,
) *Admission {
	return &Admission{
		repo:      repo,
		detector:  detector,
		authorize: authorizer,
		proposals: proposals,
		audit:     dispatcher,
		cache:     slotCache,
		now:       time.Now,
	}
}

// ======================================================
// PROPOSE
// ======================================================

type ProposeInput struct {
	MerchantID uint
	StaffID    uint
	ServiceIDs []uint
	Start      time.Time

	Source string // SourceOnline | SourceStaff

	// Staff flow passes CustomerID; public flow passes the contact fields.
	CustomerID    uint
	CustomerName  string
	CustomerPhone string
	CustomerEmail string

	Notes string
}

// Propose validates the input, runs conflict detection and returns a
// proposal in state ReadyToConfirm or RequiresOverride. Nothing is
// persisted and no locks are taken.
func (a *Admission) Propose(
	ctx context.Context,
	in ProposeInput,
) (*domain.Proposal, error) {

	merchant, staff, services, err := a.resolveDirectory(
		ctx, in.MerchantID, in.StaffID, in.ServiceIDs,
	)
	if err != nil {
		return nil, err
	}

	if in.Start.IsZero() {
		return nil, httperr.ErrValidation("invalid_start_time")
	}

	totalMin := 0
	for _, s := range services {
		totalMin += s.DurationMin
	}
	if totalMin <= 0 {
		return nil, httperr.ErrValidation("invalid_duration")
	}

	now := a.now()
	if in.Source == SourceOnline && merchant.MinAdvanceMinutes > 0 {
		minAllowed := now.Add(time.Duration(merchant.MinAdvanceMinutes) * time.Minute)
		if in.Start.Before(minAllowed) {
			return nil, httperr.ErrValidation("too_soon")
		}
	}

	window := interval.New(in.Start, in.Start.Add(time.Duration(totalMin)*time.Minute))

	// Services run back to back: lead-in padding comes from the first,
	// lead-out from the last.
	padBefore := services[0].PaddingBeforeMin
	padAfter := services[len(services)-1].PaddingAfterMin

	conflicts, err := a.detector.Find(ctx, staff.ID, window, padBefore, padAfter, 0)
	if err != nil {
		return nil, httperr.ErrStore(err)
	}

	p := &domain.Proposal{
		ID:    uuid.NewString(),
		State: domain.ProposalReadyToConfirm,

		MerchantID: merchant.ID,
		StaffID:    staff.ID,

		CustomerID:    in.CustomerID,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		CustomerEmail: in.CustomerEmail,

		ServiceIDs: in.ServiceIDs,
		Window:     window,

		PaddingBeforeMin: padBefore,
		PaddingAfterMin:  padAfter,

		Source: in.Source,
		Notes:  in.Notes,

		Conflicts: conflicts,

		CreatedAt: now,
		ExpiresAt: now.Add(a.proposals.TTL()),
	}

	if len(conflicts) > 0 {
		p.State = domain.ProposalRequiresOverride
	}

	a.proposals.Put(p)
	return p, nil
}

// ProposeReschedule re-runs the propose machinery for an existing booking,
// excluding the booking from its own conflict checks. Padding stays frozen
// at the values recorded when the booking was created.
func (a *Admission) ProposeReschedule(
	ctx context.Context,
	merchantID uint,
	bookingID uint,
	newStaffID uint,
	newStart time.Time,
) (*domain.Proposal, error) {

	b, err := a.repo.GetBooking(ctx, merchantID, bookingID)
	if err != nil {
		return nil, notFoundOr(err, "booking_not_found")
	}

	if err := domain.CanReschedule(domain.Status(b.Status)); err != nil {
		return nil, err
	}

	if newStart.IsZero() {
		return nil, httperr.ErrValidation("invalid_start_time")
	}

	staffID := b.StaffID
	if newStaffID != 0 {
		staffID = newStaffID
	}

	staff, err := a.repo.GetStaff(ctx, merchantID, staffID)
	if err != nil {
		return nil, notFoundOr(err, "staff_not_found")
	}
	if !staff.Active {
		return nil, httperr.ErrValidation("staff_inactive")
	}

	window := interval.New(newStart, newStart.Add(b.EndTime.Sub(b.StartTime)))

	conflicts, err := a.detector.Find(
		ctx,
		staff.ID,
		window,
		b.PaddingBeforeMin,
		b.PaddingAfterMin,
		b.ID,
	)
	if err != nil {
		return nil, httperr.ErrStore(err)
	}

	serviceIDs := make([]uint, 0, len(b.Services))
	for _, s := range b.Services {
		serviceIDs = append(serviceIDs, s.ID)
	}

	now := a.now()
	p := &domain.Proposal{
		ID:    uuid.NewString(),
		State: domain.ProposalReadyToConfirm,

		MerchantID: merchantID,
		StaffID:    staff.ID,
		CustomerID: b.CustomerID,

		ServiceIDs: serviceIDs,
		Window:     window,

		PaddingBeforeMin: b.PaddingBeforeMin,
		PaddingAfterMin:  b.PaddingAfterMin,

		Source: b.Source,
		Notes:  b.Notes,

		RescheduleBookingID: b.ID,

		Conflicts: conflicts,

		CreatedAt: now,
		ExpiresAt: now.Add(a.proposals.TTL()),
	}

	if len(conflicts) > 0 {
		p.State = domain.ProposalRequiresOverride
	}

	a.proposals.Put(p)
	return p, nil
}

// ======================================================
// CONFIRM
// ======================================================

// Confirm is valid only from ReadyToConfirm. The store re-validates inside
// the per-staff lock; when a concurrent writer won the race since the
// proposal was issued, the proposal becomes Superseded and the caller gets
// the current conflicts back. Conflicts at confirmation are never retried
// here: an identical retry would re-collide.
func (a *Admission) Confirm(
	ctx context.Context,
	proposalID string,
	merchantID uint,
	actorID uint,
) (*models.Booking, error) {

	var p domain.Proposal
	err := a.proposals.Update(proposalID, func(live *domain.Proposal) error {
		// A proposal is only confirmable through the merchant context that
		// issued it; a foreign id looks nonexistent.
		if live.MerchantID != merchantID {
			return httperr.ErrValidation("proposal_not_found")
		}
		if err := live.CanConfirm(); err != nil {
			return err
		}
		// Claimed: a second confirm for the same proposal fails the guard.
		live.MarkBooked()
		p = *live
		return nil
	})
	if err != nil {
		return nil, err
	}

	b, err := a.persist(ctx, &p, actorID, "", nil)
	if err != nil {
		a.rollbackClaim(proposalID, err)
		return nil, err
	}

	a.afterWrite(b, actorID, "booking_created")
	return b, nil
}

// ConfirmWithOverride is valid only from RequiresOverride and only for
// actors the authorization collaborator approves. The override booking and
// its ConflictAuditEntry are inserted in one transaction.
func (a *Admission) ConfirmWithOverride(
	ctx context.Context,
	proposalID string,
	merchantID uint,
	actorID uint,
	reason string,
) (*models.Booking, error) {

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, httperr.ErrValidation("override_reason_required")
	}

	// Peek first so authorization failures do not consume the proposal.
	peek, err := a.proposals.Get(proposalID)
	if err != nil {
		return nil, err
	}
	if peek.MerchantID != merchantID {
		return nil, httperr.ErrValidation("proposal_not_found")
	}
	if err := peek.CanConfirmWithOverride(); err != nil {
		return nil, err
	}

	allowed, err := a.authorize.MayOverride(ctx, actorID, merchantID)
	if err != nil {
		return nil, httperr.ErrStore(err)
	}
	if !allowed {
		return nil, httperr.ErrAuthorization("override_not_allowed")
	}

	var p domain.Proposal
	err = a.proposals.Update(proposalID, func(live *domain.Proposal) error {
		if live.MerchantID != merchantID {
			return httperr.ErrValidation("proposal_not_found")
		}
		if err := live.CanConfirmWithOverride(); err != nil {
			return err
		}
		live.MarkBooked()
		p = *live
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids, _ := json.Marshal(p.ConflictIDs())
	entry := &models.ConflictAuditEntry{
		ActorID:               actorID,
		Reason:                reason,
		ConflictingBookingIDs: datatypes.JSON(ids),
	}

	b, err := a.persist(ctx, &p, actorID, reason, entry)
	if err != nil {
		a.rollbackClaim(proposalID, err)
		return nil, err
	}

	a.afterWrite(b, actorID, "booking_override_created")
	return b, nil
}

// Abandon drops a pending proposal explicitly; expiry is the implicit path.
// A foreign merchant context cannot abandon someone else's proposal.
func (a *Admission) Abandon(proposalID string, merchantID uint) {
	err := a.proposals.Update(proposalID, func(live *domain.Proposal) error {
		if live.MerchantID != merchantID {
			return httperr.ErrValidation("proposal_not_found")
		}
		live.MarkAbandoned()
		return nil
	})
	if err == nil {
		a.proposals.Remove(proposalID)
	}
}

// ======================================================
// INTERNALS
// ======================================================

func (a *Admission) resolveDirectory(
	ctx context.Context,
	merchantID uint,
	staffID uint,
	serviceIDs []uint,
) (*models.Merchant, *models.Staff, []models.Service, error) {

	if len(serviceIDs) == 0 {
		return nil, nil, nil, httperr.ErrValidation("services_required")
	}

	merchant, err := a.repo.GetMerchantByID(ctx, merchantID)
	if err != nil {
		return nil, nil, nil, notFoundOr(err, "merchant_not_found")
	}

	staff, err := a.repo.GetStaff(ctx, merchantID, staffID)
	if err != nil {
		return nil, nil, nil, notFoundOr(err, "staff_not_found")
	}
	if !staff.Active {
		return nil, nil, nil, httperr.ErrValidation("staff_inactive")
	}

	services, err := a.repo.GetServices(ctx, merchantID, serviceIDs)
	if err != nil {
		return nil, nil, nil, httperr.ErrStore(err)
	}
	if len(services) != len(serviceIDs) {
		return nil, nil, nil, httperr.ErrValidation("service_not_found")
	}
	for _, s := range services {
		if !s.Active {
			return nil, nil, nil, httperr.ErrValidation("service_inactive")
		}
		if s.DurationMin <= 0 {
			return nil, nil, nil, httperr.ErrValidation("invalid_duration")
		}
	}

	return merchant, staff, services, nil
}

// persist builds the booking row from the proposal and runs the atomic
// store write (insert, or update when rescheduling).
func (a *Admission) persist(
	ctx context.Context,
	p *domain.Proposal,
	actorID uint,
	overrideReason string,
	entry *models.ConflictAuditEntry,
) (*models.Booking, error) {

	if p.RescheduleBookingID != 0 {
		return a.persistReschedule(ctx, p, overrideReason, entry)
	}

	merchant, err := a.repo.GetMerchantByID(ctx, p.MerchantID)
	if err != nil {
		return nil, httperr.ErrStore(err)
	}

	customerID := p.CustomerID
	if customerID == 0 {
		customer, err := a.repo.GetOrCreateCustomer(
			ctx,
			p.MerchantID,
			p.CustomerName,
			p.CustomerPhone,
			p.CustomerEmail,
		)
		if err != nil {
			return nil, httperr.ErrStore(err)
		}
		customerID = customer.ID
	}

	status := domain.StatusConfirmed
	if p.Source == SourceOnline && !merchant.AutoConfirmBookings {
		status = domain.StatusPending
	}

	b := &models.Booking{
		MerchantID: p.MerchantID,
		StaffID:    p.StaffID,
		CustomerID: customerID,

		StartTime: p.Window.Start,
		EndTime:   p.Window.End,

		Status: string(status),
		Source: p.Source,
		Notes:  p.Notes,

		IsOverride:     entry != nil,
		OverrideReason: overrideReason,
	}
	domain.ApplyPadding(b, p.PaddingBeforeMin, p.PaddingAfterMin)

	if err := a.repo.InsertAtomic(ctx, b, p.ServiceIDs, entry); err != nil {
		return nil, err
	}

	return b, nil
}

func (a *Admission) persistReschedule(
	ctx context.Context,
	p *domain.Proposal,
	overrideReason string,
	entry *models.ConflictAuditEntry,
) (*models.Booking, error) {

	b, err := a.repo.GetBooking(ctx, p.MerchantID, p.RescheduleBookingID)
	if err != nil {
		return nil, notFoundOr(err, "booking_not_found")
	}

	if err := domain.CanReschedule(domain.Status(b.Status)); err != nil {
		return nil, err
	}

	prevStaff := b.StaffID
	prevDate := b.StartTime

	b.StaffID = p.StaffID
	b.StartTime = p.Window.Start
	b.EndTime = p.Window.End
	if entry != nil {
		b.IsOverride = true
		b.OverrideReason = overrideReason
	}
	domain.ApplyPadding(b, p.PaddingBeforeMin, p.PaddingAfterMin)

	if err := a.repo.UpdateAtomic(ctx, b, entry); err != nil {
		return nil, err
	}

	// The slot freed on the old staff/date is bookable again.
	a.invalidateDay(prevStaff, prevDate, p.MerchantID)

	return b, nil
}

// rollbackClaim reopens or kills a claimed proposal after a failed write.
// A lost race means Superseded (the proposal cannot be reused); store
// failures kill it too, since recovery is always re-proposing.
func (a *Admission) rollbackClaim(proposalID string, cause error) {
	_ = a.proposals.Update(proposalID, func(live *domain.Proposal) error {
		if _, ok := httperr.AsConflict(cause); ok {
			live.MarkSuperseded()
		} else {
			live.MarkAbandoned()
		}
		return nil
	})
}

// notFoundOr separates the caller's mistake (row does not exist, never
// retried) from a store outage (retriable, surfaces as 503).
func notFoundOr(err error, code string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrValidation(code)
	}
	return httperr.ErrStore(err)
}

func (a *Admission) afterWrite(b *models.Booking, actorID uint, action string) {
	var actor *uint
	if actorID != 0 {
		actor = &actorID
	}

	a.audit.Dispatch(audit.Event{
		MerchantID: b.MerchantID,
		StaffID:    actor,
		Action:     action,
		Entity:     "booking",
		EntityID:   &b.ID,
		Metadata: map[string]any{
			"start":       b.StartTime,
			"end":         b.EndTime,
			"is_override": b.IsOverride,
		},
	})

	a.invalidateDay(b.StaffID, b.StartTime, b.MerchantID)
}

func (a *Admission) invalidateDay(staffID uint, at time.Time, merchantID uint) {
	if a.cache == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	merchant, err := a.repo.GetMerchantByID(ctx, merchantID)
	loc := time.UTC
	if err == nil {
		loc = timezone.Location(merchant.Timezone)
	}

	a.cache.Invalidate(ctx, staffID, at.In(loc).Format(schedule.DateLayout))
}
