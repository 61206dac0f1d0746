package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chronoline/booking-api/internal/cache"
	"github.com/chronoline/booking-api/internal/httperr"
	"github.com/chronoline/booking-api/internal/httpresp"
	"github.com/chronoline/booking-api/internal/middleware"
	"github.com/chronoline/booking-api/internal/models"
	"github.com/chronoline/booking-api/internal/schedule"
)

// ======================================================
// HANDLER (working hours: weekly template + date overrides)
// ======================================================

type ScheduleHandler struct {
	db    *gorm.DB
	cache *cache.SlotCache
}

func NewScheduleHandler(db *gorm.DB, slotCache *cache.SlotCache) *ScheduleHandler {
	return &ScheduleHandler{db: db, cache: slotCache}
}

func (h *ScheduleHandler) staffInMerchant(c *gin.Context) (*models.Staff, bool) {
	merchantID := c.MustGet(middleware.ContextMerchantID).(uint)

	staffID, err := strconv.ParseUint(c.Param("staffId"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_staff_id", "Invalid staff id.")
		return nil, false
	}

	var staff models.Staff
	err = h.db.
		Where("id = ? AND merchant_id = ?", staffID, merchantID).
		First(&staff).Error
	if err != nil {
		httperr.NotFound(c, "staff_not_found", "Staff member not found.")
		return nil, false
	}

	return &staff, true
}

// ======================================================
// WEEKLY TEMPLATE
// ======================================================

type WeeklyDayRequest struct {
	Weekday   int    `json:"weekday"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

func (h *ScheduleHandler) GetWeekly(c *gin.Context) {
	staff, ok := h.staffInMerchant(c)
	if !ok {
		return
	}

	var rows []models.StaffWeeklySchedule
	err := h.db.
		Where("staff_id = ?", staff.ID).
		Order("weekday ASC").
		Find(&rows).Error
	if err != nil {
		httperr.Internal(c, "failed_to_load_schedule", "Failed to load schedule.")
		return
	}

	httpresp.List(c, rows)
}

// PutWeekly replaces the whole weekly template in one transaction.
// Weekdays absent from the payload become closed days.
func (h *ScheduleHandler) PutWeekly(c *gin.Context) {
	staff, ok := h.staffInMerchant(c)
	if !ok {
		return
	}

	var req []WeeklyDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	seen := make(map[int]bool, len(req))
	rows := make([]models.StaffWeeklySchedule, 0, len(req))
	for _, day := range req {
		if day.Weekday < 0 || day.Weekday > 6 {
			httperr.BadRequest(c, "invalid_weekday", "Weekday must be 0-6.")
			return
		}
		if seen[day.Weekday] {
			httperr.BadRequest(c, "duplicate_weekday", "Duplicate weekday in payload.")
			return
		}
		seen[day.Weekday] = true

		if !validWallClockRange(day.StartTime, day.EndTime) {
			httperr.BadRequest(c, "invalid_time_range", "Start must precede end.")
			return
		}

		rows = append(rows, models.StaffWeeklySchedule{
			StaffID:   staff.ID,
			Weekday:   day.Weekday,
			StartTime: day.StartTime,
			EndTime:   day.EndTime,
		})
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("staff_id = ?", staff.ID).
			Delete(&models.StaffWeeklySchedule{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		httperr.Internal(c, "failed_to_save_schedule", "Failed to save schedule.")
		return
	}

	// A template change moves every future day; drop all cached slots.
	h.cache.InvalidateAll(c.Request.Context(), staff.ID)

	httpresp.List(c, rows)
}

// ======================================================
// DATE OVERRIDES
// ======================================================

type OverrideDayRequest struct {
	Date        string `json:"date" binding:"required"` // YYYY-MM-DD
	Unavailable bool   `json:"unavailable"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Reason      string `json:"reason"`
}

func (h *ScheduleHandler) ListOverrides(c *gin.Context) {
	staff, ok := h.staffInMerchant(c)
	if !ok {
		return
	}

	q := h.db.Where("staff_id = ?", staff.ID)
	if from := c.Query("from"); from != "" {
		q = q.Where("date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		q = q.Where("date < ?", to)
	}

	var rows []models.ScheduleOverride
	if err := q.Order("date ASC").Find(&rows).Error; err != nil {
		httperr.Internal(c, "failed_to_load_overrides", "Failed to load overrides.")
		return
	}

	httpresp.List(c, rows)
}

// PutOverride upserts the override for one date.
func (h *ScheduleHandler) PutOverride(c *gin.Context) {
	staff, ok := h.staffInMerchant(c)
	if !ok {
		return
	}

	var req OverrideDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	if _, err := time.Parse(schedule.DateLayout, req.Date); err != nil {
		httperr.BadRequest(c, "invalid_date", "Invalid date.")
		return
	}

	if !req.Unavailable && !validWallClockRange(req.StartTime, req.EndTime) {
		httperr.BadRequest(c, "invalid_time_range", "Start must precede end.")
		return
	}

	row := models.ScheduleOverride{
		StaffID:     staff.ID,
		Date:        req.Date,
		Unavailable: req.Unavailable,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Reason:      req.Reason,
	}
	if req.Unavailable {
		row.StartTime = ""
		row.EndTime = ""
	}

	err := h.db.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "staff_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"unavailable", "start_time", "end_time", "reason", "updated_at",
			}),
		}).
		Create(&row).Error
	if err != nil {
		httperr.Internal(c, "failed_to_save_override", "Failed to save override.")
		return
	}

	h.invalidateDate(c, staff.ID, req.Date)
	httpresp.OK(c, row)
}

func (h *ScheduleHandler) DeleteOverride(c *gin.Context) {
	staff, ok := h.staffInMerchant(c)
	if !ok {
		return
	}

	date := c.Param("date")
	if _, err := time.Parse(schedule.DateLayout, date); err != nil {
		httperr.BadRequest(c, "invalid_date", "Invalid date.")
		return
	}

	err := h.db.
		Where("staff_id = ? AND date = ?", staff.ID, date).
		Delete(&models.ScheduleOverride{}).Error
	if err != nil {
		httperr.Internal(c, "failed_to_delete_override", "Failed to delete override.")
		return
	}

	h.invalidateDate(c, staff.ID, date)
	c.Status(204)
}

// --------------------------------------------------
// helpers
// --------------------------------------------------

func (h *ScheduleHandler) invalidateDate(c *gin.Context, staffID uint, date string) {
	h.cache.Invalidate(c.Request.Context(), staffID, date)
}

func validWallClockRange(start, end string) bool {
	s, err := time.Parse(schedule.TimeLayout, start)
	if err != nil {
		return false
	}
	e, err := time.Parse(schedule.TimeLayout, end)
	if err != nil {
		return false
	}
	return s.Before(e)
}
