package booking

import (
	"time"

	"github.com/chronoline/booking-api/internal/models"
)

// ===============================
// Domain Actions
// ===============================

func Cancel(b *models.Booking, now time.Time) error {
	if err := CanCancel(Status(b.Status)); err != nil {
		return err
	}

	b.Status = string(StatusCancelled)
	b.CancelledAt = &now
	return nil
}

// Cancelling an already-cancelled booking is a no-op so repeated cancel
// requests from the UI stay idempotent.
func CancelIdempotent(b *models.Booking, now time.Time) (changed bool, err error) {
	if Status(b.Status) == StatusCancelled {
		return false, nil
	}
	if err := Cancel(b, now); err != nil {
		return false, err
	}
	return true, nil
}

func Start(b *models.Booking, now time.Time) error {
	if err := CanStart(Status(b.Status)); err != nil {
		return err
	}

	b.Status = string(StatusInProgress)
	b.StartedAt = &now
	return nil
}

func Complete(b *models.Booking, now time.Time) error {
	if err := CanComplete(Status(b.Status)); err != nil {
		return err
	}

	b.Status = string(StatusCompleted)
	b.CompletedAt = &now
	return nil
}

// ApplyPadding freezes the effective padding and the denormalized padded
// bounds on the booking. Conflict checks and the store constraint read only
// the padded columns from here on.
func ApplyPadding(b *models.Booking, beforeMin, afterMin int) {
	b.PaddingBeforeMin = beforeMin
	b.PaddingAfterMin = afterMin
	b.PaddedStart = b.StartTime.Add(-time.Duration(beforeMin) * time.Minute)
	b.PaddedEnd = b.EndTime.Add(time.Duration(afterMin) * time.Minute)
}
