package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chronoline/booking-api/internal/httperr"
	"github.com/chronoline/booking-api/internal/httpresp"
	"github.com/chronoline/booking-api/internal/middleware"
	"github.com/chronoline/booking-api/internal/models"
	"github.com/chronoline/booking-api/internal/timezone"
)

// ======================================================
// HANDLER (merchant settings)
// ======================================================

type MerchantHandler struct {
	db *gorm.DB
}

func NewMerchantHandler(db *gorm.DB) *MerchantHandler {
	return &MerchantHandler{db: db}
}

type MerchantSettingsRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`

	Timezone            *string `json:"timezone"`
	MinAdvanceMinutes   *int    `json:"min_advance_minutes"`
	AutoConfirmBookings *bool   `json:"auto_confirm_bookings"`
}

func (h *MerchantHandler) Get(c *gin.Context) {
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	var merchant models.Merchant
	if err := h.db.First(&merchant, merchantID).Error; err != nil {
		httperr.NotFound(c, "merchant_not_found", "Merchant not found.")
		return
	}

	httpresp.OK(c, merchant)
}

// Update patches the settings. Only owners and managers reach this route.
func (h *MerchantHandler) Update(c *gin.Context) {
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	var merchant models.Merchant
	if err := h.db.First(&merchant, merchantID).Error; err != nil {
		httperr.NotFound(c, "merchant_not_found", "Merchant not found.")
		return
	}

	var req MerchantSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	if req.Timezone != nil {
		if !timezone.IsValid(*req.Timezone) {
			httperr.BadRequest(c, "invalid_timezone", "Unknown IANA timezone.")
			return
		}
		merchant.Timezone = *req.Timezone
	}
	if req.Name != nil {
		merchant.Name = *req.Name
	}
	if req.Phone != nil {
		merchant.Phone = *req.Phone
	}
	if req.Address != nil {
		merchant.Address = *req.Address
	}
	if req.MinAdvanceMinutes != nil {
		if *req.MinAdvanceMinutes < 0 {
			httperr.BadRequest(c, "invalid_min_advance", "Must be zero or positive.")
			return
		}
		merchant.MinAdvanceMinutes = *req.MinAdvanceMinutes
	}
	if req.AutoConfirmBookings != nil {
		merchant.AutoConfirmBookings = *req.AutoConfirmBookings
	}

	if err := h.db.Save(&merchant).Error; err != nil {
		httperr.Internal(c, "failed_to_update_merchant", "Failed to update settings.")
		return
	}

	httpresp.OK(c, merchant)
}
