package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chronoline/booking-api/internal/httperr"
)

// writeBookingError maps the admission error families onto HTTP statuses.
// Nothing escapes as an unhandled fault.
func writeBookingError(c *gin.Context, err error, publicFlow bool) {
	if ce, ok := httperr.AsConflict(err); ok {
		msg := "Requires override."
		if publicFlow {
			// public callers never see the override path
			msg = "Slot no longer available."
		}
		httperr.Conflict(c, ce.Code, msg, ce.Conflicts)
		return
	}

	if httperr.IsValidation(err) {
		httperr.BadRequest(c, err.Error(), "Invalid request.")
		return
	}

	if httperr.IsAuthorization(err) {
		httperr.Forbidden(c, err.Error(), "Not allowed.")
		return
	}

	if httperr.IsStore(err) {
		httperr.Unavailable(c, "store_unavailable", "Temporary failure, please retry.")
		return
	}

	if httperr.IsBusiness(err, "booking_not_found") {
		httperr.NotFound(c, "booking_not_found", "Booking not found.")
		return
	}

	if httperr.IsBusiness(err, "invalid_state") {
		httperr.BadRequest(c, "invalid_state", "Booking cannot change to that state.")
		return
	}

	httperr.Internal(c, "internal_error", "Unexpected error.")
}
