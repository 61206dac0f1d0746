package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/chronoline/booking-api/internal/domain/booking"
	"github.com/chronoline/booking-api/internal/httperr"
	"github.com/chronoline/booking-api/internal/interval"
	"github.com/chronoline/booking-api/internal/models"
)

type BookingGormRepository struct {
	db *gorm.DB
}

func NewBookingGormRepository(db *gorm.DB) *BookingGormRepository {
	return &BookingGormRepository{db: db}
}

// forUpdate gates the row lock on the dialect: sqlite (tests) has no
// FOR UPDATE syntax and serializes writers anyway.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// --------------------------------------------------
// Directory
// --------------------------------------------------

func (r *BookingGormRepository) GetMerchantByID(
	ctx context.Context,
	id uint,
) (*models.Merchant, error) {

	var m models.Merchant
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *BookingGormRepository) GetMerchantBySlug(
	ctx context.Context,
	slug string,
) (*models.Merchant, error) {

	var m models.Merchant
	if err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *BookingGormRepository) GetStaff(
	ctx context.Context,
	merchantID uint,
	staffID uint,
) (*models.Staff, error) {

	var s models.Staff
	if err := r.db.WithContext(ctx).
		Where("id = ? AND merchant_id = ?", staffID, merchantID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetServices returns the services in the order the ids were requested,
// because multi-service bookings run them back to back in that order.
func (r *BookingGormRepository) GetServices(
	ctx context.Context,
	merchantID uint,
	serviceIDs []uint,
) ([]models.Service, error) {

	var found []models.Service
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND id IN ?", merchantID, serviceIDs).
		Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Service, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}

	ordered := make([]models.Service, 0, len(serviceIDs))
	for _, id := range serviceIDs {
		if s, ok := byID[id]; ok {
			ordered = append(ordered, s)
		}
	}
	return ordered, nil
}

func (r *BookingGormRepository) GetOrCreateCustomer(
	ctx context.Context,
	merchantID uint,
	name string,
	phone string,
	email string,
) (*models.Customer, error) {

	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND phone = ?", merchantID, phone).
		First(&customer).Error

	if err == nil {
		return &customer, nil
	}

	customer = models.Customer{
		MerchantID: merchantID,
		Name:       name,
		Phone:      phone,
		Email:      email,
	}

	if err := r.db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}

	return &customer, nil
}

// --------------------------------------------------
// Schedule
// --------------------------------------------------

func (r *BookingGormRepository) GetWeeklySchedule(
	ctx context.Context,
	staffID uint,
	weekday int,
) (*models.StaffWeeklySchedule, error) {

	var wk models.StaffWeeklySchedule
	err := r.db.WithContext(ctx).
		Where("staff_id = ? AND weekday = ?", staffID, weekday).
		First(&wk).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wk, nil
}

func (r *BookingGormRepository) GetScheduleOverride(
	ctx context.Context,
	staffID uint,
	date string,
) (*models.ScheduleOverride, error) {

	var ov models.ScheduleOverride
	err := r.db.WithContext(ctx).
		Where("staff_id = ? AND date = ?", staffID, date).
		First(&ov).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ov, nil
}

// --------------------------------------------------
// Booking Store (reads)
// --------------------------------------------------

func (r *BookingGormRepository) ListPaddedIntervals(
	ctx context.Context,
	staffID uint,
	from time.Time,
	to time.Time,
) ([]interval.Interval, error) {

	var rows []models.Booking
	if err := r.db.WithContext(ctx).
		Select("padded_start", "padded_end").
		Where(
			"staff_id = ? AND status <> ? AND padded_start < ? AND padded_end > ?",
			staffID, string(domain.StatusCancelled), to, from,
		).
		Order("padded_start ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]interval.Interval, 0, len(rows))
	for _, b := range rows {
		out = append(out, interval.New(b.PaddedStart, b.PaddedEnd))
	}
	return out, nil
}

func (r *BookingGormRepository) QueryOverlapping(
	ctx context.Context,
	staffID uint,
	padded interval.Interval,
	excludeID uint,
) ([]models.Booking, error) {

	return queryOverlapping(r.db.WithContext(ctx), staffID, padded, excludeID)
}

func queryOverlapping(
	tx *gorm.DB,
	staffID uint,
	padded interval.Interval,
	excludeID uint,
) ([]models.Booking, error) {

	q := tx.
		Where(
			"staff_id = ? AND status <> ? AND padded_start < ? AND padded_end > ?",
			staffID, string(domain.StatusCancelled), padded.End, padded.Start,
		)

	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var conflicts []models.Booking
	if err := q.
		Order("created_at DESC, id DESC").
		Find(&conflicts).Error; err != nil {
		return nil, err
	}
	return conflicts, nil
}

func (r *BookingGormRepository) GetBooking(
	ctx context.Context,
	merchantID uint,
	bookingID uint,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Services").
		Where("id = ? AND merchant_id = ?", bookingID, merchantID).
		First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingGormRepository) ListBookingsForPeriod(
	ctx context.Context,
	staffID uint,
	from time.Time,
	to time.Time,
) ([]models.Booking, error) {

	var bs []models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Services").
		Where(
			"staff_id = ? AND start_time >= ? AND start_time < ?",
			staffID, from, to,
		).
		Order("start_time ASC").
		Find(&bs).Error; err != nil {
		return nil, err
	}
	return bs, nil
}

// --------------------------------------------------
// Booking Store (atomic writes)
// --------------------------------------------------

// InsertAtomic is the only path that persists a booking. One transaction:
// lock the staff row, re-run the overlap check inside the lock, insert the
// booking and, for overrides, its audit entry. A concurrent attempt for an
// overlapping range blocks on the staff row, re-evaluates on its turn, and
// gets a ConflictError if the slot is now taken.
func (r *BookingGormRepository) InsertAtomic(
	ctx context.Context,
	b *models.Booking,
	serviceIDs []uint,
	entry *models.ConflictAuditEntry,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockStaff(tx, b.StaffID); err != nil {
			return err
		}

		// Overrides skip the recheck: the caller holds authorization and
		// the conflict snapshot is already in the audit entry.
		if !b.IsOverride {
			conflicts, err := queryOverlapping(
				forUpdate(tx),
				b.StaffID,
				interval.New(b.PaddedStart, b.PaddedEnd),
				0,
			)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return httperr.ErrConflict("slot_taken", conflicts)
			}
		}

		// Associations are written by hand below; Create must not upsert
		// service rows through the join.
		if err := tx.Omit(clause.Associations).Create(b).Error; err != nil {
			return err
		}

		for _, sid := range serviceIDs {
			if err := tx.Exec(
				"INSERT INTO booking_services (booking_id, service_id) VALUES (?, ?)",
				b.ID, sid,
			).Error; err != nil {
				return err
			}
		}

		if entry != nil {
			entry.BookingID = b.ID
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}

		return nil
	})

	return mapWriteError(err)
}

// UpdateAtomic is the reschedule path: same lock scope, overlap recheck
// excluding the booking itself, then save.
func (r *BookingGormRepository) UpdateAtomic(
	ctx context.Context,
	b *models.Booking,
	entry *models.ConflictAuditEntry,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockStaff(tx, b.StaffID); err != nil {
			return err
		}

		if !b.IsOverride {
			conflicts, err := queryOverlapping(
				forUpdate(tx),
				b.StaffID,
				interval.New(b.PaddedStart, b.PaddedEnd),
				b.ID,
			)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return httperr.ErrConflict("slot_taken", conflicts)
			}
		}

		if err := tx.Omit(clause.Associations).Save(b).Error; err != nil {
			return err
		}

		if entry != nil {
			entry.BookingID = b.ID
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}

		return nil
	})

	return mapWriteError(err)
}

// UpdateWithStaffLock saves a status transition under the same per-staff
// lock scope as admission, without conflict detection (cancel frees
// capacity, it cannot create contention).
func (r *BookingGormRepository) UpdateWithStaffLock(
	ctx context.Context,
	b *models.Booking,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockStaff(tx, b.StaffID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(b).Error
	})

	return mapWriteError(err)
}

func lockStaff(tx *gorm.DB, staffID uint) error {
	var staff models.Staff
	return forUpdate(tx).First(&staff, staffID).Error
}

// mapWriteError keeps business conflicts as-is, converts the exclusion
// constraint backstop into a lost-race conflict, and wraps the rest as
// retriable store failures.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := httperr.AsConflict(err); ok {
		return err
	}
	if httperr.IsExclusionConflict(err) {
		return httperr.ErrConflict("slot_taken", nil)
	}
	return httperr.ErrStore(err)
}

// Compile-time check
var _ domain.Repository = (*BookingGormRepository)(nil)
