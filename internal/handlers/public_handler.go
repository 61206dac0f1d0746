package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chronoline/booking-api/internal/httperr"
	"github.com/chronoline/booking-api/internal/httpresp"
	"github.com/chronoline/booking-api/internal/models"
	ucBooking "github.com/chronoline/booking-api/internal/usecase/booking"
)

// ======================================================
// HANDLER (public booking page, keyed by merchant slug)
// ======================================================

// PublicHandler exposes the unauthenticated surface. There is no override
// route here: a public caller that hits a conflict can only pick another
// slot.
type PublicHandler struct {
	db           *gorm.DB
	admission    *ucBooking.Admission
	availability *ucBooking.GetAvailability
}

func NewPublicHandler(
	db *gorm.DB,
	admission *ucBooking.Admission,
	availability *ucBooking.GetAvailability,
) *PublicHandler {
	return &PublicHandler{
		db:           db,
		admission:    admission,
		availability: availability,
	}
}

func (h *PublicHandler) merchantBySlug(c *gin.Context) (*models.Merchant, bool) {
	var merchant models.Merchant
	err := h.db.
		Where("slug = ?", c.Param("slug")).
		First(&merchant).Error
	if err != nil {
		httperr.NotFound(c, "merchant_not_found", "Business not found.")
		return nil, false
	}
	return &merchant, true
}

// ======================================================
// DIRECTORY
// ======================================================

func (h *PublicHandler) ListServices(c *gin.Context) {
	merchant, ok := h.merchantBySlug(c)
	if !ok {
		return
	}

	var services []models.Service
	err := h.db.
		Where("merchant_id = ? AND active = ?", merchant.ID, true).
		Order("name ASC").
		Find(&services).Error
	if err != nil {
		httperr.Internal(c, "failed_to_list_services", "Failed to list services.")
		return
	}

	httpresp.List(c, services)
}

func (h *PublicHandler) ListStaff(c *gin.Context) {
	merchant, ok := h.merchantBySlug(c)
	if !ok {
		return
	}

	var staff []models.Staff
	err := h.db.
		Select("id", "name").
		Where("merchant_id = ? AND active = ?", merchant.ID, true).
		Order("name ASC").
		Find(&staff).Error
	if err != nil {
		httperr.Internal(c, "failed_to_list_staff", "Failed to list staff.")
		return
	}

	httpresp.List(c, staff)
}

// ======================================================
// AVAILABILITY
// ======================================================

func (h *PublicHandler) Availability(c *gin.Context) {
	merchant, ok := h.merchantBySlug(c)
	if !ok {
		return
	}

	writeAvailability(c, h.availability, merchant)
}

// ======================================================
// PROPOSE / CONFIRM
// ======================================================

type PublicProposeRequest struct {
	StaffID    uint   `json:"staff_id" binding:"required"`
	ServiceIDs []uint `json:"service_ids" binding:"required,min=1"`
	Date       string `json:"date" binding:"required"`
	Time       string `json:"time" binding:"required"`

	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerPhone string `json:"customer_phone" binding:"required"`
	CustomerEmail string `json:"customer_email"`

	Notes string `json:"notes"`
}

func (h *PublicHandler) Propose(c *gin.Context) {
	merchant, ok := h.merchantBySlug(c)
	if !ok {
		return
	}

	var req PublicProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	start, err := parseDateTimeInMerchant(merchant, req.Date, req.Time)
	if err != nil {
		httperr.BadRequest(c, "invalid_date_or_time", "Invalid date or time.")
		return
	}

	p, err := h.admission.Propose(c.Request.Context(), ucBooking.ProposeInput{
		MerchantID:    merchant.ID,
		StaffID:       req.StaffID,
		ServiceIDs:    req.ServiceIDs,
		Start:         start,
		Source:        ucBooking.SourceOnline,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Notes:         req.Notes,
	})
	if err != nil {
		writeBookingError(c, err, true)
		return
	}

	// A conflicted proposal is a dead end for public callers; surface it
	// as a conflict right away instead of handing back an unusable id.
	if len(p.Conflicts) > 0 {
		h.admission.Abandon(p.ID, merchant.ID)
		httperr.Conflict(c, "slot_taken", "Slot no longer available.", nil)
		return
	}

	c.JSON(200, toProposalResponse(p))
}

func (h *PublicHandler) Confirm(c *gin.Context) {
	merchant, ok := h.merchantBySlug(c)
	if !ok {
		return
	}

	b, err := h.admission.Confirm(c.Request.Context(), c.Param("id"), merchant.ID, 0)
	if err != nil {
		writeBookingError(c, err, true)
		return
	}

	c.JSON(201, b)
}

func (h *PublicHandler) Abandon(c *gin.Context) {
	merchant, ok := h.merchantBySlug(c)
	if !ok {
		return
	}

	h.admission.Abandon(c.Param("id"), merchant.ID)
	c.Status(204)
}
