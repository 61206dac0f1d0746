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
// HANDLER (audit trails, read-only)
// ======================================================

type AuditLogsHandler struct {
	db *gorm.DB
}

func NewAuditLogsHandler(db *gorm.DB) *AuditLogsHandler {
	return &AuditLogsHandler{db: db}
}

const auditPageSize = 50

func (h *AuditLogsHandler) List(c *gin.Context) {
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	q := h.db.Where("merchant_id = ?", merchantID)
	if action := c.Query("action"); action != "" {
		q = q.Where("action = ?", action)
	}

	page := 0
	if raw := c.Query("page"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil && p > 0 {
			page = p - 1
		}
	}

	var logs []models.AuditLog
	err := q.
		Order("created_at DESC, id DESC").
		Limit(auditPageSize).
		Offset(page * auditPageSize).
		Find(&logs).Error
	if err != nil {
		httperr.Internal(c, "failed_to_list_audit_logs", "Failed to list audit logs.")
		return
	}

	httpresp.List(c, logs)
}

// ListOverrides returns the conflict audit trail: one entry per deliberate
// double-booking, joined against the merchant's bookings.
func (h *AuditLogsHandler) ListOverrides(c *gin.Context) {
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	var entries []models.ConflictAuditEntry
	err := h.db.
		Joins("JOIN bookings ON bookings.id = conflict_audit_entries.booking_id").
		Where("bookings.merchant_id = ?", merchantID).
		Order("conflict_audit_entries.created_at DESC").
		Find(&entries).Error
	if err != nil {
		httperr.Internal(c, "failed_to_list_overrides", "Failed to list overrides.")
		return
	}

	httpresp.List(c, entries)
}
