package booking

import (
	"time"

	"github.com/chronoline/booking-api/internal/httperr"
	"github.com/chronoline/booking-api/internal/interval"
	"github.com/chronoline/booking-api/internal/models"
)

// ===============================
// Proposal state machine
// ===============================

type ProposalState string

const (
	ProposalDraft            ProposalState = "draft"
	ProposalReadyToConfirm   ProposalState = "ready_to_confirm"
	ProposalRequiresOverride ProposalState = "requires_override"
	ProposalBooked           ProposalState = "booked"
	ProposalAbandoned        ProposalState = "abandoned"
	ProposalSuperseded       ProposalState = "superseded"
)

// Proposal is the result of a read-only availability check. Nothing is
// persisted until it is confirmed.
type Proposal struct {
	ID    string
	State ProposalState

	MerchantID uint
	StaffID    uint

	// Staff flow passes an existing customer; the public flow carries the
	// contact details and the customer is get-or-created at confirm time,
	// since Propose must not write.
	CustomerID    uint
	CustomerName  string
	CustomerPhone string
	CustomerEmail string

	ServiceIDs []uint
	Window     interval.Interval

	PaddingBeforeMin int
	PaddingAfterMin  int

	Source string
	Notes  string

	// Set when rescheduling: the booking being moved, excluded from its own
	// conflict checks and updated in place at confirm.
	RescheduleBookingID uint

	// Conflict snapshot taken at propose time. For an override confirm this
	// is exactly what lands in the ConflictAuditEntry.
	Conflicts []models.Booking

	CreatedAt time.Time
	ExpiresAt time.Time
}

func (p *Proposal) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

func (p *Proposal) ConflictIDs() []uint {
	ids := make([]uint, 0, len(p.Conflicts))
	for _, b := range p.Conflicts {
		ids = append(ids, b.ID)
	}
	return ids
}

// ===============================
// Transitions
// ===============================

func (p *Proposal) CanConfirm() error {
	if p.State != ProposalReadyToConfirm {
		return httperr.ErrValidation("proposal_not_confirmable")
	}
	return nil
}

func (p *Proposal) CanConfirmWithOverride() error {
	if p.State != ProposalRequiresOverride {
		return httperr.ErrValidation("proposal_not_overridable")
	}
	return nil
}

func (p *Proposal) MarkBooked() {
	p.State = ProposalBooked
}

// MarkSuperseded flags that a concurrent writer took the slot after the
// proposal was issued. The proposal cannot be reused; the caller must
// re-propose.
func (p *Proposal) MarkSuperseded() {
	p.State = ProposalSuperseded
}

func (p *Proposal) MarkAbandoned() {
	p.State = ProposalAbandoned
}
