package booking

import (
	"context"
	"time"

	"github.com/chronoline/booking-api/internal/interval"
	"github.com/chronoline/booking-api/internal/models"
)

type Repository interface {
	// -------- Directory --------
	GetMerchantByID(
		ctx context.Context,
		id uint,
	) (*models.Merchant, error)

	GetMerchantBySlug(
		ctx context.Context,
		slug string,
	) (*models.Merchant, error)

	GetStaff(
		ctx context.Context,
		merchantID uint,
		staffID uint,
	) (*models.Staff, error)

	GetServices(
		ctx context.Context,
		merchantID uint,
		serviceIDs []uint,
	) ([]models.Service, error)

	GetOrCreateCustomer(
		ctx context.Context,
		merchantID uint,
		name string,
		phone string,
		email string,
	) (*models.Customer, error)

	// -------- Schedule --------
	GetWeeklySchedule(
		ctx context.Context,
		staffID uint,
		weekday int,
	) (*models.StaffWeeklySchedule, error)

	GetScheduleOverride(
		ctx context.Context,
		staffID uint,
		date string,
	) (*models.ScheduleOverride, error)

	// -------- Booking Store --------
	ListPaddedIntervals(
		ctx context.Context,
		staffID uint,
		from time.Time,
		to time.Time,
	) ([]interval.Interval, error)

	QueryOverlapping(
		ctx context.Context,
		staffID uint,
		padded interval.Interval,
		excludeID uint,
	) ([]models.Booking, error)

	GetBooking(
		ctx context.Context,
		merchantID uint,
		bookingID uint,
	) (*models.Booking, error)

	// InsertAtomic runs lock → re-check → insert (booking plus optional
	// audit entry) as one transaction. A conflict found inside the lock
	// comes back as httperr.ConflictError and nothing is written.
	InsertAtomic(
		ctx context.Context,
		b *models.Booking,
		serviceIDs []uint,
		entry *models.ConflictAuditEntry,
	) error

	// UpdateAtomic is the reschedule variant: same lock scope, re-check
	// excluding the booking itself, then save.
	UpdateAtomic(
		ctx context.Context,
		b *models.Booking,
		entry *models.ConflictAuditEntry,
	) error

	// UpdateWithStaffLock saves a status transition under the per-staff
	// lock scope, without conflict detection.
	UpdateWithStaffLock(
		ctx context.Context,
		b *models.Booking,
	) error

	ListBookingsForPeriod(
		ctx context.Context,
		staffID uint,
		from time.Time,
		to time.Time,
	) ([]models.Booking, error)
}
