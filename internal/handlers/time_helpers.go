package handlers

import (
	"time"

	"github.com/chronoline/booking-api/internal/models"
	"github.com/chronoline/booking-api/internal/timezone"
)

// resolve the merchant's official timezone
func locationFromMerchant(m *models.Merchant) *time.Location {
	if m != nil {
		return timezone.Location(m.Timezone)
	}
	return timezone.Location("")
}

func parseDateInMerchant(m *models.Merchant, dateStr string) (time.Time, error) {
	return time.ParseInLocation(
		"2006-01-02",
		dateStr,
		locationFromMerchant(m),
	)
}

func parseDateTimeInMerchant(
	m *models.Merchant,
	dateStr string,
	timeStr string,
) (time.Time, error) {
	return time.ParseInLocation(
		"2006-01-02 15:04",
		dateStr+" "+timeStr,
		locationFromMerchant(m),
	)
}
