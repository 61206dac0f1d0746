package booking

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/chronoline/booking-api/internal/audit"
	"github.com/chronoline/booking-api/internal/cache"
	domain "github.com/chronoline/booking-api/internal/domain/booking"
	"github.com/chronoline/booking-api/internal/httperr"
	"github.com/chronoline/booking-api/internal/models"
	"github.com/chronoline/booking-api/internal/timezone"
)

// Transitions covers the staff-initiated lifecycle changes: cancel, start,
// complete. All run under the same per-staff lock scope as admission, but
// without conflict detection (none can create contention).
type Transitions struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	cache *cache.SlotCache
}

func NewTransitions(
	repo domain.Repository,
	dispatcher *audit.Dispatcher,
	slotCache *cache.SlotCache,
) *Transitions {
	return &Transitions{
		repo:  repo,
		audit: dispatcher,
		cache: slotCache,
	}
}

// Cancel transitions to cancelled, idempotently: cancelling a cancelled
// booking is a no-op success. Bookings are never hard-deleted.
func (uc *Transitions) Cancel(
	ctx context.Context,
	merchantID uint,
	actorID uint,
	bookingID uint,
) (*models.Booking, error) {

	merchant, b, err := uc.load(ctx, merchantID, bookingID)
	if err != nil {
		return nil, err
	}

	now := timezone.NowIn(merchant.Timezone)
	changed, err := domain.CancelIdempotent(b, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return b, nil
	}

	if err := uc.repo.UpdateWithStaffLock(ctx, b); err != nil {
		return nil, err
	}

	uc.after(b, actorID, "booking_cancelled", merchant)
	return b, nil
}

func (uc *Transitions) Start(
	ctx context.Context,
	merchantID uint,
	actorID uint,
	bookingID uint,
) (*models.Booking, error) {

	merchant, b, err := uc.load(ctx, merchantID, bookingID)
	if err != nil {
		return nil, err
	}

	now := timezone.NowIn(merchant.Timezone)
	if err := domain.Start(b, now); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateWithStaffLock(ctx, b); err != nil {
		return nil, err
	}

	uc.after(b, actorID, "booking_started", merchant)
	return b, nil
}

func (uc *Transitions) Complete(
	ctx context.Context,
	merchantID uint,
	actorID uint,
	bookingID uint,
) (*models.Booking, error) {

	merchant, b, err := uc.load(ctx, merchantID, bookingID)
	if err != nil {
		return nil, err
	}

	now := timezone.NowIn(merchant.Timezone)
	if err := domain.Complete(b, now); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateWithStaffLock(ctx, b); err != nil {
		return nil, err
	}

	uc.after(b, actorID, "booking_completed", merchant)
	return b, nil
}

func (uc *Transitions) load(
	ctx context.Context,
	merchantID uint,
	bookingID uint,
) (*models.Merchant, *models.Booking, error) {

	merchant, err := uc.repo.GetMerchantByID(ctx, merchantID)
	if err != nil {
		return nil, nil, err
	}

	b, err := uc.repo.GetBooking(ctx, merchantID, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, httperr.ErrBusiness("booking_not_found")
		}
		return nil, nil, httperr.ErrStore(err)
	}

	return merchant, b, nil
}

func (uc *Transitions) after(
	b *models.Booking,
	actorID uint,
	action string,
	merchant *models.Merchant,
) {
	uc.audit.Dispatch(audit.Event{
		MerchantID: b.MerchantID,
		StaffID:    &actorID,
		Action:     action,
		Entity:     "booking",
		EntityID:   &b.ID,
	})

	if uc.cache != nil {
		ctx := context.Background()
		loc := timezone.Location(merchant.Timezone)
		uc.cache.Invalidate(ctx, b.StaffID, b.StartTime.In(loc).Format("2006-01-02"))
	}
}
