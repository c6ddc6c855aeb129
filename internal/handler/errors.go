package handler

import (
	"errors"
	"net/http"

	"github.com/Eursukkul/car-rental-microservice/internal/service"
	"github.com/labstack/echo/v4"
)

// toHTTPError maps service errors onto status codes. Unknown errors are 500s.
func toHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidRefundAmount),
		errors.Is(err, service.ErrMissingRefundReason):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrResourceUnavailable),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrAlreadyTerminal),
		errors.Is(err, service.ErrCannotCancelCompleted):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrRefundTargetNotEligible):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
