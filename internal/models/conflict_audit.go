package models

import (
	"time"

	"gorm.io/datatypes"
)

// ConflictAuditEntry records one deliberate double-booking. It is written in
// the same transaction as its override booking and is append-only: no code
// path updates or deletes rows.
type ConflictAuditEntry struct {
	ID uint `gorm:"primaryKey" json:"id"`

	BookingID uint `gorm:"index;not null" json:"booking_id"`
	ActorID   uint `gorm:"not null" json:"actor_id"`

	Reason string `gorm:"size:255;not null" json:"reason"`

	// Snapshot of the conflicting booking ids at override time.
	ConflictingBookingIDs datatypes.JSON `json:"conflicting_booking_ids"`

	CreatedAt time.Time `json:"created_at"`
}
