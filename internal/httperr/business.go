package httperr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chronoline/booking-api/internal/models"
)

// ===============================
// Error families
// ===============================

// BusinessError is the generic code-carrying error used by domain guards.
type BusinessError struct {
	Code string
}

func (e BusinessError) Error() string {
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// ValidationError rejects malformed input before any locking. Never retried.
type ValidationError struct {
	Code string
}

func (e ValidationError) Error() string {
	return e.Code
}

func ErrValidation(code string) error {
	return ValidationError{Code: code}
}

func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// ConflictError carries the bookings currently occupying the slot so the
// caller can re-render. It covers both "needs override" and "lost the race".
type ConflictError struct {
	Code      string
	Conflicts []models.Booking
}

func (e ConflictError) Error() string {
	return e.Code
}

func ErrConflict(code string, conflicts []models.Booking) error {
	return ConflictError{Code: code, Conflicts: conflicts}
}

func AsConflict(err error) (ConflictError, bool) {
	var ce ConflictError
	ok := errors.As(err, &ce)
	return ce, ok
}

// AuthorizationError: override attempted without authority. Fatal for the
// request.
type AuthorizationError struct {
	Code string
}

func (e AuthorizationError) Error() string {
	return e.Code
}

func ErrAuthorization(code string) error {
	return AuthorizationError{Code: code}
}

func IsAuthorization(err error) bool {
	var ae AuthorizationError
	return errors.As(err, &ae)
}

// StoreError wraps persistence or lock-wait failures. The atomic unit
// guarantees nothing partial was written, so callers may re-propose.
type StoreError struct {
	Err error
}

func (e StoreError) Error() string {
	return fmt.Sprintf("store: %v", e.Err)
}

func (e StoreError) Unwrap() error {
	return e.Err
}

func ErrStore(err error) error {
	return StoreError{Err: err}
}

func IsStore(err error) bool {
	var se StoreError
	return errors.As(err, &se)
}

// ===============================
// Postgres backstop
// ===============================

// IsExclusionConflict reports whether err violates the bookings exclusion
// constraint (padded ranges per staff). It only fires when two writers
// slipped past the row lock; treated as a lost race, not a fault.
func IsExclusionConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23P01"
	}
	return false
}
