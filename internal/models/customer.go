package models

import "time"

// Customer has no login; it is attached to a merchant and matched by phone.
type Customer struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	MerchantID uint `json:"merchant_id"`

	Name  string `gorm:"size:100;not null" json:"name"`
	Phone string `gorm:"size:20" json:"phone"`
	Email string `gorm:"size:100" json:"email"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
