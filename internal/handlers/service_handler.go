package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chronoline/booking-api/internal/httperr"
	"github.com/chronoline/booking-api/internal/httpresp"
	"github.com/chronoline/booking-api/internal/middleware"
	"github.com/chronoline/booking-api/internal/models"
)

// ======================================================
// HANDLER (service catalog)
// ======================================================

type ServiceHandler struct {
	db *gorm.DB
}

func NewServiceHandler(db *gorm.DB) *ServiceHandler {
	return &ServiceHandler{db: db}
}

type ServiceRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`

	DurationMin      int `json:"duration_min" binding:"required,min=1"`
	PaddingBeforeMin int `json:"padding_before_min" binding:"min=0"`
	PaddingAfterMin  int `json:"padding_after_min" binding:"min=0"`

	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Active   *bool   `json:"active"`
}

func (h *ServiceHandler) List(c *gin.Context) {
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	var services []models.Service
	err := h.db.
		Where("merchant_id = ?", merchantID).
		Order("name ASC").
		Find(&services).Error
	if err != nil {
		httperr.Internal(c, "failed_to_list_services", "Failed to list services.")
		return
	}

	httpresp.List(c, services)
}

func (h *ServiceHandler) Create(c *gin.Context) {
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	service := models.Service{
		MerchantID:       merchantID,
		Name:             req.Name,
		Description:      req.Description,
		DurationMin:      req.DurationMin,
		PaddingBeforeMin: req.PaddingBeforeMin,
		PaddingAfterMin:  req.PaddingAfterMin,
		Price:            req.Price,
		Category:         req.Category,
		Active:           true,
	}
	if req.Active != nil {
		service.Active = *req.Active
	}

	if err := h.db.Create(&service).Error; err != nil {
		httperr.Internal(c, "failed_to_create_service", "Failed to create service.")
		return
	}

	c.JSON(201, service)
}

// Update changes the catalog entry going forward. Existing bookings keep
// the padding that was frozen onto them at admission time.
func (h *ServiceHandler) Update(c *gin.Context) {
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	service, ok := h.find(c, merchantID)
	if !ok {
		return
	}

	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	service.Name = req.Name
	service.Description = req.Description
	service.DurationMin = req.DurationMin
	service.PaddingBeforeMin = req.PaddingBeforeMin
	service.PaddingAfterMin = req.PaddingAfterMin
	service.Price = req.Price
	service.Category = req.Category
	if req.Active != nil {
		service.Active = *req.Active
	}

	if err := h.db.Save(service).Error; err != nil {
		httperr.Internal(c, "failed_to_update_service", "Failed to update service.")
		return
	}

	httpresp.OK(c, service)
}

// Deactivate soft-disables the service; history stays intact.
func (h *ServiceHandler) Deactivate(c *gin.Context) {
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	service, ok := h.find(c, merchantID)
	if !ok {
		return
	}

	service.Active = false
	if err := h.db.Save(service).Error; err != nil {
		httperr.Internal(c, "failed_to_update_service", "Failed to update service.")
		return
	}

	c.Status(204)
}

func (h *ServiceHandler) find(c *gin.Context, merchantID uint) (*models.Service, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_service_id", "Invalid service id.")
		return nil, false
	}

	var service models.Service
	err = h.db.
		Where("id = ? AND merchant_id = ?", id, merchantID).
		First(&service).Error
	if err != nil {
		httperr.NotFound(c, "service_not_found", "Service not found.")
		return nil, false
	}

	return &service, true
}
