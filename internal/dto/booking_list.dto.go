package dto

import "time"

type BookingListDTO struct {
	ID           uint      `json:"id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	IsOverride   bool      `json:"is_override"`
	CustomerName string    `json:"customer_name"`
	ServiceNames []string  `json:"service_names"`
}
