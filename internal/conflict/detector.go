package conflict

import (
	"context"
	"time"

	"github.com/chronoline/booking-api/internal/interval"
	"github.com/chronoline/booking-api/internal/models"
)

// Store is the overlap-query slice of the booking repository.
type Store interface {
	QueryOverlapping(
		ctx context.Context,
		staffID uint,
		padded interval.Interval,
		excludeID uint,
	) ([]models.Booking, error)
}

type Detector struct {
	store Store
}

func NewDetector(store Store) *Detector {
	return &Detector{store: store}
}

// Find expands the probe interval by the service padding and returns the
// staff member's non-cancelled bookings whose own padded interval overlaps
// it, newest first. Padding is symmetric: both sides of the comparison are
// padded. excludeID, when non-zero, drops that booking from the result
// (self-exclusion on reschedule).
func (d *Detector) Find(
	ctx context.Context,
	staffID uint,
	probe interval.Interval,
	padBeforeMin int,
	padAfterMin int,
	excludeID uint,
) ([]models.Booking, error) {

	padded := interval.Expand(
		probe,
		time.Duration(padBeforeMin)*time.Minute,
		time.Duration(padAfterMin)*time.Minute,
	)

	return d.store.QueryOverlapping(ctx, staffID, padded, excludeID)
}
