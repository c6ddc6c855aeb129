package middleware

import (
	"errors"
	"net/http"

	"github.com/Eursukkul/car-rental-microservice/internal/dto"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"component": "http",
			"method":    c.Request().Method,
			"uri":       c.Request().RequestURI,
		}).WithError(err).Error("request failed")
		msg = http.StatusText(code)
	}

	_ = c.JSON(code, dto.ErrorResponse{Message: msg})
}
