package middleware

import (
	"net/http"

	"eventPricing/business/pricing"
	"eventPricing/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders errors that escape handlers as {"message": ...}.
// Anything that is not an echo.HTTPError is reported as a generic 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	} else {
		logger.Error("unhandled_error",
			"trace_id", pricing.TraceIDFromContext(c.Request().Context()),
			"path", c.Path(),
			"error", err,
		)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"message": msg})
}
