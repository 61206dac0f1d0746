package models

import "time"

type Merchant struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Slug     string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Phone    string `gorm:"size:20" json:"phone"`
	Address  string `gorm:"size:255" json:"address"`
	Timezone string `gorm:"size:50" json:"timezone"`

	// Public-flow policy knobs. The staff flow ignores MinAdvanceMinutes.
	MinAdvanceMinutes   int  `gorm:"default:0" json:"min_advance_minutes"`
	AutoConfirmBookings bool `gorm:"default:true" json:"auto_confirm_bookings"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
