package db

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/chronoline/booking-api/internal/config"
	"github.com/chronoline/booking-api/internal/models"
)

func NewDB(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(db); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	db.Exec(`
        UPDATE merchants
        SET timezone = ?
        WHERE timezone IS NULL OR timezone = ''
    `, cfg.DefaultTimezone)

	return db
}

// Migrate is shared with the sqlite test databases.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Merchant{},
		&models.Staff{},
		&models.Service{},
		&models.Customer{},
		&models.StaffWeeklySchedule{},
		&models.ScheduleOverride{},
		&models.Booking{},
		&models.ConflictAuditEntry{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	installExclusionConstraint(db)
	return nil
}

// installExclusionConstraint adds the store-level backstop: padded ranges
// of non-cancelled, non-override bookings must not overlap per staff. The
// per-staff row lock is the primary mechanism; this constraint catches
// anything that slips past it and surfaces as error class 23P01
// (httperr.IsExclusionConflict).
func installExclusionConstraint(db *gorm.DB) {
	if db.Dialector.Name() != "postgres" {
		return
	}

	db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`)

	db.Exec(`
        ALTER TABLE bookings
        ADD CONSTRAINT bookings_no_padded_overlap
        EXCLUDE USING gist (
            staff_id WITH =,
            tstzrange(padded_start, padded_end) WITH &&
        )
        WHERE (status <> 'cancelled' AND NOT is_override)
    `)
}
