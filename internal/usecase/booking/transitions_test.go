package booking

import (
	"context"
	"testing"

	"github.com/chronoline/booking-api/internal/audit"
	domain "github.com/chronoline/booking-api/internal/domain/booking"
	"github.com/chronoline/booking-api/internal/httperr"
	infraRepo "github.com/chronoline/booking-api/internal/infra/repository"
	"github.com/chronoline/booking-api/internal/models"
)

func newTransitions(h *harness) *Transitions {
	repo := infraRepo.NewBookingGormRepository(h.db)
	return NewTransitions(repo, audit.NewDispatcher(audit.New(h.db)), nil)
}

func (h *harness) booked(t *testing.T) *models.Booking {
	t.Helper()
	p := h.propose(t, slotAt(10, 0))
	b, err := h.admission.Confirm(context.Background(), p.ID, h.merchant.ID, h.staff.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	return b
}

func TestCancelIsIdempotent(t *testing.T) {
	h := newHarness(t)
	uc := newTransitions(h)
	ctx := context.Background()

	b := h.booked(t)

	first, err := uc.Cancel(ctx, h.merchant.ID, h.staff.ID, b.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if first.Status != string(domain.StatusCancelled) || first.CancelledAt == nil {
		t.Fatalf("status %q cancelledAt %v", first.Status, first.CancelledAt)
	}

	// Cancelling again is a no-op success.
	second, err := uc.Cancel(ctx, h.merchant.ID, h.staff.ID, b.ID)
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if second.Status != string(domain.StatusCancelled) || second.CancelledAt == nil {
		t.Fatalf("status %q cancelledAt %v after repeat cancel", second.Status, second.CancelledAt)
	}
}

func TestStartThenComplete(t *testing.T) {
	h := newHarness(t)
	uc := newTransitions(h)
	ctx := context.Background()

	b := h.booked(t)

	started, err := uc.Start(ctx, h.merchant.ID, h.staff.ID, b.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != string(domain.StatusInProgress) || started.StartedAt == nil {
		t.Fatalf("status %q startedAt %v", started.Status, started.StartedAt)
	}

	done, err := uc.Complete(ctx, h.merchant.ID, h.staff.ID, b.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != string(domain.StatusCompleted) || done.CompletedAt == nil {
		t.Fatalf("status %q completedAt %v", done.Status, done.CompletedAt)
	}
}

func TestCompletedBookingCannotBeCancelled(t *testing.T) {
	h := newHarness(t)
	uc := newTransitions(h)
	ctx := context.Background()

	b := h.booked(t)
	if _, err := uc.Start(ctx, h.merchant.ID, h.staff.ID, b.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := uc.Complete(ctx, h.merchant.ID, h.staff.ID, b.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err := uc.Cancel(ctx, h.merchant.ID, h.staff.ID, b.ID)
	if !httperr.IsBusiness(err, "invalid_state") {
		t.Fatalf("got %v, want invalid_state", err)
	}
}

func TestCancelledBookingCannotStart(t *testing.T) {
	h := newHarness(t)
	uc := newTransitions(h)
	ctx := context.Background()

	b := h.booked(t)
	if _, err := uc.Cancel(ctx, h.merchant.ID, h.staff.ID, b.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := uc.Start(ctx, h.merchant.ID, h.staff.ID, b.ID)
	if !httperr.IsBusiness(err, "invalid_state") {
		t.Fatalf("got %v, want invalid_state", err)
	}
}

func TestTransitionUnknownBooking(t *testing.T) {
	h := newHarness(t)
	uc := newTransitions(h)

	_, err := uc.Cancel(context.Background(), h.merchant.ID, h.staff.ID, 9999)
	if !httperr.IsBusiness(err, "booking_not_found") {
		t.Fatalf("got %v, want booking_not_found", err)
	}
}
