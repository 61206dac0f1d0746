package models

import "time"

// StaffWeeklySchedule holds the recurring working window for one weekday.
// At most one row per (staff, weekday); absence of a row means closed.
type StaffWeeklySchedule struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	StaffID uint `gorm:"uniqueIndex:idx_staff_weekday" json:"staff_id"`
	Weekday int  `gorm:"uniqueIndex:idx_staff_weekday" json:"weekday"`

	StartTime string `gorm:"size:5" json:"start_time"` // "15:04" wall clock
	EndTime   string `gorm:"size:5" json:"end_time"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScheduleOverride replaces the weekly window for one exact date.
// Unavailable=true means closed all day regardless of the window fields.
type ScheduleOverride struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	StaffID uint   `gorm:"uniqueIndex:idx_staff_override_date" json:"staff_id"`
	Date    string `gorm:"size:10;uniqueIndex:idx_staff_override_date" json:"date"` // "2006-01-02"

	Unavailable bool   `json:"unavailable"`
	StartTime   string `gorm:"size:5" json:"start_time"`
	EndTime     string `gorm:"size:5" json:"end_time"`

	Reason string `gorm:"size:255" json:"reason"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
