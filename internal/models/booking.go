package models

import "time"

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	MerchantID uint     `json:"merchant_id"`
	Merchant   Merchant `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	StaffID uint  `gorm:"index" json:"staff_id"`
	Staff   Staff `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	CustomerID uint     `json:"customer_id"`
	Customer   Customer `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"customer"`

	Services []Service `gorm:"many2many:booking_services;" json:"services"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// Padding frozen from the services at admission time. Later Service edits
	// never touch these; PaddedStart/PaddedEnd are what conflict checks and the
	// store exclusion constraint operate on.
	PaddingBeforeMin int       `json:"padding_before_min"`
	PaddingAfterMin  int       `json:"padding_after_min"`
	PaddedStart      time.Time `gorm:"index" json:"-"`
	PaddedEnd        time.Time `json:"-"`

	Status string `gorm:"size:20;default:'pending'" json:"status"`
	Source string `gorm:"size:10;default:'staff'" json:"source"`

	IsOverride     bool   `gorm:"default:false" json:"is_override"`
	OverrideReason string `gorm:"size:255" json:"override_reason,omitempty"`

	Notes string `gorm:"size:255" json:"notes"`

	CancelledAt *time.Time `json:"cancelled_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
