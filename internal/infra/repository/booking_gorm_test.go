package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	dbpkg "github.com/chronoline/booking-api/internal/db"
	domain "github.com/chronoline/booking-api/internal/domain/booking"
	"github.com/chronoline/booking-api/internal/httperr"
	"github.com/chronoline/booking-api/internal/interval"
	"github.com/chronoline/booking-api/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// One connection keeps the shared in-memory database alive and
	// serializes writers the way the per-staff lock does on postgres.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := dbpkg.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

type fixture struct {
	merchant models.Merchant
	staff    models.Staff
	service  models.Service
	customer models.Customer
}

func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()

	f := fixture{
		merchant: models.Merchant{Name: "Harbour Cuts", Slug: "harbour-cuts", Timezone: "Australia/Sydney"},
	}
	if err := db.Create(&f.merchant).Error; err != nil {
		t.Fatalf("seed merchant: %v", err)
	}

	f.staff = models.Staff{
		MerchantID: f.merchant.ID,
		Name:       "Alex",
		Email:      fmt.Sprintf("alex-%s@example.com", t.Name()),
		Role:       "staff",
		Active:     true,
	}
	if err := db.Create(&f.staff).Error; err != nil {
		t.Fatalf("seed staff: %v", err)
	}

	f.service = models.Service{
		MerchantID:       f.merchant.ID,
		Name:             "Cut",
		DurationMin:      30,
		PaddingBeforeMin: 0,
		PaddingAfterMin:  10,
		Active:           true,
	}
	if err := db.Create(&f.service).Error; err != nil {
		t.Fatalf("seed service: %v", err)
	}

	f.customer = models.Customer{MerchantID: f.merchant.ID, Name: "Sam", Phone: "0400000001"}
	if err := db.Create(&f.customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	return f
}

func makeBooking(f fixture, start time.Time, durMin, padBefore, padAfter int) *models.Booking {
	b := &models.Booking{
		MerchantID: f.merchant.ID,
		StaffID:    f.staff.ID,
		CustomerID: f.customer.ID,
		StartTime:  start,
		EndTime:    start.Add(time.Duration(durMin) * time.Minute),
		Status:     string(domain.StatusConfirmed),
		Source:     "staff",
	}
	domain.ApplyPadding(b, padBefore, padAfter)
	return b
}

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func dayAt(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func TestInsertAtomicWritesBookingAndJoinRows(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	repo := NewBookingGormRepository(db)
	ctx := context.Background()

	b := makeBooking(f, dayAt(10, 0), 30, 0, 10)
	if err := repo.InsertAtomic(ctx, b, []uint{f.service.ID}, nil); err != nil {
		t.Fatalf("InsertAtomic: %v", err)
	}
	if b.ID == 0 {
		t.Fatal("booking id not assigned")
	}

	got, err := repo.GetBooking(ctx, f.merchant.ID, b.ID)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if len(got.Services) != 1 || got.Services[0].ID != f.service.ID {
		t.Fatalf("services = %v, want the seeded service", got.Services)
	}
	if !got.PaddedEnd.Equal(dayAt(10, 40)) {
		t.Fatalf("padded end %v, want 10:40", got.PaddedEnd)
	}
}

func TestInsertAtomicRejectsOverlapAndWritesNothing(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	repo := NewBookingGormRepository(db)
	ctx := context.Background()

	first := makeBooking(f, dayAt(10, 0), 30, 0, 10)
	if err := repo.InsertAtomic(ctx, first, []uint{f.service.ID}, nil); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	// 10:35 collides with the first booking's padded end at 10:40.
	second := makeBooking(f, dayAt(10, 35), 30, 0, 10)
	err := repo.InsertAtomic(ctx, second, []uint{f.service.ID}, nil)

	ce, ok := httperr.AsConflict(err)
	if !ok {
		t.Fatalf("got %v, want ConflictError", err)
	}
	if ce.Code != "slot_taken" {
		t.Fatalf("code %q, want slot_taken", ce.Code)
	}
	if len(ce.Conflicts) != 1 || ce.Conflicts[0].ID != first.ID {
		t.Fatalf("conflicts = %v, want the first booking", ce.Conflicts)
	}

	var count int64
	db.Model(&models.Booking{}).Count(&count)
	if count != 1 {
		t.Fatalf("booking count %d after rejected insert, want 1", count)
	}

	var joins int64
	db.Table("booking_services").Count(&joins)
	if joins != 1 {
		t.Fatalf("join rows %d after rejected insert, want 1", joins)
	}
}

func TestInsertAtomicBackToBackIsAllowed(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	repo := NewBookingGormRepository(db)
	ctx := context.Background()

	first := makeBooking(f, dayAt(10, 0), 30, 0, 10)
	if err := repo.InsertAtomic(ctx, first, []uint{f.service.ID}, nil); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	// Starts exactly at the first booking's padded end: half-open, no
	// conflict.
	second := makeBooking(f, dayAt(10, 40), 30, 0, 10)
	if err := repo.InsertAtomic(ctx, second, []uint{f.service.ID}, nil); err != nil {
		t.Fatalf("back-to-back insert: %v", err)
	}
}

func TestInsertAtomicCancelledBookingsDoNotBlock(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	repo := NewBookingGormRepository(db)
	ctx := context.Background()

	first := makeBooking(f, dayAt(10, 0), 30, 0, 10)
	if err := repo.InsertAtomic(ctx, first, []uint{f.service.ID}, nil); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	first.Status = string(domain.StatusCancelled)
	if err := repo.UpdateWithStaffLock(ctx, first); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	second := makeBooking(f, dayAt(10, 0), 30, 0, 10)
	if err := repo.InsertAtomic(ctx, second, []uint{f.service.ID}, nil); err != nil {
		t.Fatalf("insert over cancelled booking: %v", err)
	}
}

func TestInsertAtomicOverrideSkipsRecheckAndWritesAuditEntry(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	repo := NewBookingGormRepository(db)
	ctx := context.Background()

	first := makeBooking(f, dayAt(10, 0), 30, 0, 10)
	if err := repo.InsertAtomic(ctx, first, []uint{f.service.ID}, nil); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	override := makeBooking(f, dayAt(10, 0), 30, 0, 10)
	override.IsOverride = true
	override.OverrideReason = "walk-in VIP"

	entry := &models.ConflictAuditEntry{
		ActorID: f.staff.ID,
		Reason:  "walk-in VIP",
	}
	if err := repo.InsertAtomic(ctx, override, []uint{f.service.ID}, entry); err != nil {
		t.Fatalf("override insert: %v", err)
	}

	var saved models.ConflictAuditEntry
	if err := db.First(&saved, "booking_id = ?", override.ID).Error; err != nil {
		t.Fatalf("audit entry not written: %v", err)
	}
	if saved.Reason != "walk-in VIP" || saved.ActorID != f.staff.ID {
		t.Fatalf("audit entry = %+v", saved)
	}
}

func TestUpdateAtomicExcludesSelfFromRecheck(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	repo := NewBookingGormRepository(db)
	ctx := context.Background()

	b := makeBooking(f, dayAt(10, 0), 30, 0, 10)
	if err := repo.InsertAtomic(ctx, b, []uint{f.service.ID}, nil); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Shift by 15 minutes: the new range overlaps the old one, which must
	// not count against itself.
	b.StartTime = dayAt(10, 15)
	b.EndTime = dayAt(10, 45)
	domain.ApplyPadding(b, 0, 10)

	if err := repo.UpdateAtomic(ctx, b, nil); err != nil {
		t.Fatalf("UpdateAtomic: %v", err)
	}

	got, err := repo.GetBooking(ctx, f.merchant.ID, b.ID)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if !got.StartTime.Equal(dayAt(10, 15)) {
		t.Fatalf("start %v, want 10:15", got.StartTime)
	}
}

func TestUpdateAtomicRejectsOverlapWithOtherBooking(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	repo := NewBookingGormRepository(db)
	ctx := context.Background()

	a := makeBooking(f, dayAt(10, 0), 30, 0, 10)
	if err := repo.InsertAtomic(ctx, a, []uint{f.service.ID}, nil); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	b := makeBooking(f, dayAt(12, 0), 30, 0, 10)
	if err := repo.InsertAtomic(ctx, b, []uint{f.service.ID}, nil); err != nil {
		t.Fatalf("insert b: %v", err)
	}

	b.StartTime = dayAt(10, 15)
	b.EndTime = dayAt(10, 45)
	domain.ApplyPadding(b, 0, 10)

	err := repo.UpdateAtomic(ctx, b, nil)
	if _, ok := httperr.AsConflict(err); !ok {
		t.Fatalf("got %v, want ConflictError", err)
	}

	// The move must not have been written.
	got, err := repo.GetBooking(ctx, f.merchant.ID, b.ID)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if !got.StartTime.Equal(dayAt(12, 0)) {
		t.Fatalf("start %v after rejected move, want 12:00", got.StartTime)
	}
}

func TestQueryOverlappingPaddingIsSymmetric(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	repo := NewBookingGormRepository(db)
	ctx := context.Background()

	// 10:00-10:15 with 15 minutes of lead-out padding blocks until 10:30.
	b := makeBooking(f, dayAt(10, 0), 15, 0, 15)
	if err := repo.InsertAtomic(ctx, b, []uint{f.service.ID}, nil); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// An unpadded probe at 10:20 still collides with the stored padding.
	probe := interval.New(dayAt(10, 20), dayAt(10, 50))
	got, err := repo.QueryOverlapping(ctx, f.staff.ID, probe, 0)
	if err != nil {
		t.Fatalf("QueryOverlapping: %v", err)
	}
	if len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("got %v, want the padded booking", got)
	}

	// At 10:30 the padding has run out.
	clear := interval.New(dayAt(10, 30), dayAt(11, 0))
	got, err = repo.QueryOverlapping(ctx, f.staff.ID, clear, 0)
	if err != nil {
		t.Fatalf("QueryOverlapping: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v, want none at the padded boundary", got)
	}
}

func TestQueryOverlappingReturnsNewestFirst(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	repo := NewBookingGormRepository(db)
	ctx := context.Background()

	first := makeBooking(f, dayAt(10, 0), 30, 0, 10)
	if err := repo.InsertAtomic(ctx, first, []uint{f.service.ID}, nil); err != nil {
		t.Fatalf("insert first: %v", err)
	}

	// Overrides stack on top of the same slot; each later row must come
	// back before the earlier ones.
	var overrides []*models.Booking
	for i := 0; i < 2; i++ {
		o := makeBooking(f, dayAt(10, 0), 30, 0, 10)
		o.IsOverride = true
		o.OverrideReason = "stacked on purpose"
		entry := &models.ConflictAuditEntry{ActorID: f.staff.ID, Reason: o.OverrideReason}
		if err := repo.InsertAtomic(ctx, o, []uint{f.service.ID}, entry); err != nil {
			t.Fatalf("insert override %d: %v", i, err)
		}
		overrides = append(overrides, o)
	}

	got, err := repo.QueryOverlapping(ctx, f.staff.ID, interval.New(dayAt(10, 0), dayAt(10, 30)), 0)
	if err != nil {
		t.Fatalf("QueryOverlapping: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d conflicts, want 3", len(got))
	}
	want := []uint{overrides[1].ID, overrides[0].ID, first.ID}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d has booking %d, want %d (newest first)", i, got[i].ID, id)
		}
	}
}

func TestListPaddedIntervalsSkipsCancelled(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	repo := NewBookingGormRepository(db)
	ctx := context.Background()

	live := makeBooking(f, dayAt(10, 0), 30, 0, 10)
	if err := repo.InsertAtomic(ctx, live, []uint{f.service.ID}, nil); err != nil {
		t.Fatalf("insert live: %v", err)
	}

	dead := makeBooking(f, dayAt(12, 0), 30, 0, 10)
	if err := repo.InsertAtomic(ctx, dead, []uint{f.service.ID}, nil); err != nil {
		t.Fatalf("insert dead: %v", err)
	}
	dead.Status = string(domain.StatusCancelled)
	if err := repo.UpdateWithStaffLock(ctx, dead); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	got, err := repo.ListPaddedIntervals(ctx, f.staff.ID, day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ListPaddedIntervals: %v", err)
	}
	if len(got) != 1 || !got[0].Start.Equal(dayAt(10, 0)) {
		t.Fatalf("got %v, want only the live booking", got)
	}
}

func TestGetServicesPreservesRequestedOrder(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	repo := NewBookingGormRepository(db)
	ctx := context.Background()

	second := models.Service{MerchantID: f.merchant.ID, Name: "Beard", DurationMin: 15, Active: true}
	if err := db.Create(&second).Error; err != nil {
		t.Fatalf("seed second service: %v", err)
	}

	got, err := repo.GetServices(ctx, f.merchant.ID, []uint{second.ID, f.service.ID})
	if err != nil {
		t.Fatalf("GetServices: %v", err)
	}
	if len(got) != 2 || got[0].ID != second.ID || got[1].ID != f.service.ID {
		t.Fatalf("order = %v, want requested order", got)
	}
}

func TestGetOrCreateCustomerMatchesByPhone(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	repo := NewBookingGormRepository(db)
	ctx := context.Background()

	existing, err := repo.GetOrCreateCustomer(ctx, f.merchant.ID, "Different Name", f.customer.Phone, "")
	if err != nil {
		t.Fatalf("GetOrCreateCustomer: %v", err)
	}
	if existing.ID != f.customer.ID {
		t.Fatalf("got customer %d, want existing %d", existing.ID, f.customer.ID)
	}

	fresh, err := repo.GetOrCreateCustomer(ctx, f.merchant.ID, "New", "0400000099", "new@example.com")
	if err != nil {
		t.Fatalf("GetOrCreateCustomer: %v", err)
	}
	if fresh.ID == f.customer.ID {
		t.Fatal("expected a new customer row")
	}
}
