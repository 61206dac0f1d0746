package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/chronoline/booking-api/internal/domain/booking"
	"github.com/chronoline/booking-api/internal/httperr"
	"github.com/chronoline/booking-api/internal/httpresp"
	"github.com/chronoline/booking-api/internal/middleware"
	"github.com/chronoline/booking-api/internal/models"
	ucBooking "github.com/chronoline/booking-api/internal/usecase/booking"
)

// ======================================================
// HANDLER (authenticated staff flow)
// ======================================================

type BookingHandler struct {
	db           *gorm.DB
	admission    *ucBooking.Admission
	transitions  *ucBooking.Transitions
	list         *ucBooking.ListBookings
	availability *ucBooking.GetAvailability
}

func NewBookingHandler(
	db *gorm.DB,
	admission *ucBooking.Admission,
	transitions *ucBooking.Transitions,
	list *ucBooking.ListBookings,
	availability *ucBooking.GetAvailability,
) *BookingHandler {
	return &BookingHandler{
		db:           db,
		admission:    admission,
		transitions:  transitions,
		list:         list,
		availability: availability,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type ProposeBookingRequest struct {
	StaffID    uint   `json:"staff_id"`
	ServiceIDs []uint `json:"service_ids" binding:"required,min=1"`
	Date       string `json:"date" binding:"required"` // YYYY-MM-DD
	Time       string `json:"time" binding:"required"` // HH:mm

	CustomerID    uint   `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`

	Notes string `json:"notes"`
}

type OverrideRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type RescheduleRequest struct {
	StaffID uint   `json:"staff_id"`
	Date    string `json:"date" binding:"required"`
	Time    string `json:"time" binding:"required"`
}

type proposalResponse struct {
	ID        string           `json:"id"`
	State     string           `json:"state"`
	StaffID   uint             `json:"staff_id"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	ExpiresAt time.Time        `json:"expires_at"`
	Conflicts []models.Booking `json:"conflicts"`
}

func toProposalResponse(p *domain.Proposal) proposalResponse {
	conflicts := p.Conflicts
	if conflicts == nil {
		conflicts = []models.Booking{}
	}
	return proposalResponse{
		ID:        p.ID,
		State:     string(p.State),
		StaffID:   p.StaffID,
		StartTime: p.Window.Start,
		EndTime:   p.Window.End,
		ExpiresAt: p.ExpiresAt,
		Conflicts: conflicts,
	}
}

// ======================================================
// PROPOSE / CONFIRM
// ======================================================

func (h *BookingHandler) Propose(c *gin.Context) {
	actorID := c.MustGet(middleware.ContextStaffID).(uint)
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	var merchant models.Merchant
	if err := h.db.First(&merchant, merchantID).Error; err != nil {
		httperr.Internal(c, "merchant_not_found", "Merchant not found.")
		return
	}

	var req ProposeBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	start, err := parseDateTimeInMerchant(&merchant, req.Date, req.Time)
	if err != nil {
		httperr.BadRequest(c, "invalid_date_or_time", "Invalid date or time.")
		return
	}

	staffID := req.StaffID
	if staffID == 0 {
		staffID = actorID
	}

	p, err := h.admission.Propose(c.Request.Context(), ucBooking.ProposeInput{
		MerchantID:    merchantID,
		StaffID:       staffID,
		ServiceIDs:    req.ServiceIDs,
		Start:         start,
		Source:        ucBooking.SourceStaff,
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Notes:         req.Notes,
	})
	if err != nil {
		writeBookingError(c, err, false)
		return
	}

	c.JSON(200, toProposalResponse(p))
}

func (h *BookingHandler) Confirm(c *gin.Context) {
	actorID := c.MustGet(middleware.ContextStaffID).(uint)
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	b, err := h.admission.Confirm(c.Request.Context(), c.Param("id"), merchantID, actorID)
	if err != nil {
		writeBookingError(c, err, false)
		return
	}

	c.JSON(201, b)
}

func (h *BookingHandler) ConfirmWithOverride(c *gin.Context) {
	actorID := c.MustGet(middleware.ContextStaffID).(uint)
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "override_reason_required", "Override reason is required.")
		return
	}

	b, err := h.admission.ConfirmWithOverride(
		c.Request.Context(),
		c.Param("id"),
		merchantID,
		actorID,
		req.Reason,
	)
	if err != nil {
		writeBookingError(c, err, false)
		return
	}

	c.JSON(201, b)
}

func (h *BookingHandler) Abandon(c *gin.Context) {
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	h.admission.Abandon(c.Param("id"), merchantID)
	c.Status(204)
}

// ======================================================
// RESCHEDULE
// ======================================================

func (h *BookingHandler) ProposeReschedule(c *gin.Context) {
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_booking_id", "Invalid booking id.")
		return
	}

	var merchant models.Merchant
	if err := h.db.First(&merchant, merchantID).Error; err != nil {
		httperr.Internal(c, "merchant_not_found", "Merchant not found.")
		return
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	start, err := parseDateTimeInMerchant(&merchant, req.Date, req.Time)
	if err != nil {
		httperr.BadRequest(c, "invalid_date_or_time", "Invalid date or time.")
		return
	}

	p, err := h.admission.ProposeReschedule(
		c.Request.Context(),
		merchantID,
		uint(bookingID),
		req.StaffID,
		start,
	)
	if err != nil {
		writeBookingError(c, err, false)
		return
	}

	c.JSON(200, toProposalResponse(p))
}

// ======================================================
// TRANSITIONS
// ======================================================

func (h *BookingHandler) Cancel(c *gin.Context) {
	h.transition(c, h.transitions.Cancel)
}

func (h *BookingHandler) Start(c *gin.Context) {
	h.transition(c, h.transitions.Start)
}

func (h *BookingHandler) Complete(c *gin.Context) {
	h.transition(c, h.transitions.Complete)
}

func (h *BookingHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, merchantID, actorID, bookingID uint) (*models.Booking, error),
) {
	actorID := c.MustGet(middleware.ContextStaffID).(uint)
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_booking_id", "Invalid booking id.")
		return
	}

	b, err := fn(c.Request.Context(), merchantID, actorID, uint(bookingID))
	if err != nil {
		writeBookingError(c, err, false)
		return
	}

	c.JSON(200, b)
}

// ======================================================
// LISTS
// ======================================================

func (h *BookingHandler) ListByDate(c *gin.Context) {
	actorID := c.MustGet(middleware.ContextStaffID).(uint)
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	dateStr := c.Query("date")
	if dateStr == "" {
		httperr.BadRequest(c, "missing_date", "Date is required.")
		return
	}

	var merchant models.Merchant
	if err := h.db.First(&merchant, merchantID).Error; err != nil {
		httperr.Internal(c, "merchant_not_found", "Merchant not found.")
		return
	}

	date, err := parseDateInMerchant(&merchant, dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Invalid date.")
		return
	}

	staffID := queryStaffID(c, actorID)

	out, err := h.list.ByDate(c.Request.Context(), merchantID, staffID, date)
	if err != nil {
		httperr.Internal(c, "failed_to_list_bookings", "Failed to list bookings.")
		return
	}

	httpresp.List(c, out)
}

func (h *BookingHandler) ListByMonth(c *gin.Context) {
	actorID := c.MustGet(middleware.ContextStaffID).(uint)
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2100 {
		httperr.BadRequest(c, "invalid_year", "Invalid year.")
		return
	}

	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		httperr.BadRequest(c, "invalid_month", "Invalid month.")
		return
	}

	staffID := queryStaffID(c, actorID)

	out, err := h.list.ByMonth(
		c.Request.Context(),
		merchantID,
		staffID,
		year,
		time.Month(month),
	)
	if err != nil {
		httperr.Internal(c, "failed_to_list_bookings", "Failed to list bookings.")
		return
	}

	httpresp.List(c, out)
}

// ======================================================
// AVAILABILITY
// ======================================================

func (h *BookingHandler) Availability(c *gin.Context) {
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	var merchant models.Merchant
	if err := h.db.First(&merchant, merchantID).Error; err != nil {
		httperr.Internal(c, "merchant_not_found", "Merchant not found.")
		return
	}

	writeAvailability(c, h.availability, &merchant)
}

// --------------------------------------------------
// helpers
// --------------------------------------------------

func queryStaffID(c *gin.Context, fallback uint) uint {
	if raw := c.Query("staff_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			return uint(id)
		}
	}
	return fallback
}
