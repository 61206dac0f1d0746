package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chronoline/booking-api/internal/httperr"
	"github.com/chronoline/booking-api/internal/httpresp"
	"github.com/chronoline/booking-api/internal/models"
	ucBooking "github.com/chronoline/booking-api/internal/usecase/booking"
)

const defaultGranularityMin = 15

// writeAvailability serves the slot picker for both the staff and the
// public surface. Query params: staff_id, service_id, date, optional
// days (range length) and granularity (minutes).
func writeAvailability(
	c *gin.Context,
	uc *ucBooking.GetAvailability,
	merchant *models.Merchant,
) {
	staffID, err := strconv.ParseUint(c.Query("staff_id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_staff_id", "Invalid staff id.")
		return
	}

	serviceID, err := strconv.ParseUint(c.Query("service_id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_service_id", "Invalid service id.")
		return
	}

	date, err := parseDateInMerchant(merchant, c.Query("date"))
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Invalid date.")
		return
	}

	days := 1
	if raw := c.Query("days"); raw != "" {
		if days, err = strconv.Atoi(raw); err != nil || days < 1 {
			httperr.BadRequest(c, "invalid_days", "Invalid days.")
			return
		}
	}

	granularity := defaultGranularityMin
	if raw := c.Query("granularity"); raw != "" {
		if granularity, err = strconv.Atoi(raw); err != nil {
			httperr.BadRequest(c, "invalid_granularity", "Invalid granularity.")
			return
		}
	}

	// Calendar days in the merchant's location: a DST-transition day is not
	// 24 hours long.
	starts, err := uc.Execute(c.Request.Context(), ucBooking.AvailabilityInput{
		MerchantID:     merchant.ID,
		StaffID:        uint(staffID),
		ServiceID:      uint(serviceID),
		From:           date,
		To:             date.AddDate(0, 0, days),
		GranularityMin: granularity,
	})
	if err != nil {
		writeBookingError(c, err, true)
		return
	}

	out := make([]string, 0, len(starts))
	for _, s := range starts {
		out = append(out, s.Format(time.RFC3339))
	}

	httpresp.List(c, out)
}
