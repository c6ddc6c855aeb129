package service

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// Validation
	ErrInvalidRange        = errors.New("end date must be after start date")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidRefundAmount = errors.New("refund amount must be positive and not exceed the refunded payment")
	ErrMissingRefundReason = errors.New("refund reason is required")

	// Conflict
	ErrResourceUnavailable = errors.New("vehicle is not available for the selected dates")

	// Authorization
	ErrForbidden = errors.New("actor is not allowed to perform this operation")

	// State
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrAlreadyTerminal         = errors.New("reservation is already in a terminal status")
	ErrCannotCancelCompleted   = errors.New("completed reservation cannot be cancelled")
	ErrRefundTargetNotEligible = errors.New("payment entry is not eligible for refund")

	// Not found
	ErrNotFound            = errors.New("not found")
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
	ErrVehicleNotFound     = fmt.Errorf("vehicle %w", ErrNotFound)
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
)

const (
	// pgExclusionViolation is raised by the no-overlap constraint on reservations.
	pgExclusionViolation = "23P01"
	// pgInvalidTextRepresentation is raised when an id is not a valid uuid.
	pgInvalidTextRepresentation = "22P02"
)

// translateWriteError maps store-level constraint violations onto domain errors.
func translateWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
		return ErrResourceUnavailable
	}
	return err
}

// isMissing reports whether a lookup found no row. A malformed uuid can never
// match a row, so it counts as missing too.
func isMissing(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepresentation
}

// notFoundAs replaces a missing-row lookup error with the given domain error.
func notFoundAs(err, domainErr error) error {
	if isMissing(err) {
		return domainErr
	}
	return err
}
