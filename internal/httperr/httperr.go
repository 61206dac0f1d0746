package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chronoline/booking-api/internal/models"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

type HTTPConflict struct {
	Code      string           `json:"error_code"`
	Message   string           `json:"message"`
	Conflicts []models.Booking `json:"conflicts"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

func Unavailable(c *gin.Context, code, message string) {
	Write(c, http.StatusServiceUnavailable, code, message)
}

func Conflict(c *gin.Context, code, message string, conflicts []models.Booking) {
	if conflicts == nil {
		conflicts = []models.Booking{}
	}
	c.JSON(http.StatusConflict, HTTPConflict{
		Code:      code,
		Message:   message,
		Conflicts: conflicts,
	})
}
