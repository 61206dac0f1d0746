package models

import "time"

type Staff struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	MerchantID uint     `json:"merchant_id"`
	Merchant   Merchant `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"merchant"`

	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Phone        string `gorm:"size:20" json:"phone"`
	Role         string `gorm:"size:20;default:'staff'" json:"role"`
	Active       bool   `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
