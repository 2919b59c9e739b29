package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
	Message string   `json:"message,omitempty"`
}

// StatusOf returns the HTTP status an error will be rendered with.
func StatusOf(err error) int {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Status()
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ErrorResponse maps err to a status and body. Internal details are only
// exposed when dev is true.
func ErrorResponse(err error, dev bool) (int, ErrorBody) {
	status := StatusOf(err)

	var ae *apperr.Error
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ae) && ae.Kind != apperr.KindInternal:
		return status, ErrorBody{Error: ae.Message, Details: ae.Details}
	case errors.As(err, &he) && he.Code < http.StatusInternalServerError:
		return status, ErrorBody{Error: fmt.Sprint(he.Message)}
	case errors.Is(err, context.DeadlineExceeded):
		return status, ErrorBody{Error: "Request timed out"}
	}

	body := ErrorBody{Error: "Internal server error"}
	if dev {
		body.Message = err.Error()
	}
	return http.StatusInternalServerError, body
}

// HTTPErrorHandler renders handler errors as ErrorBody JSON and logs the
// internal ones.
func HTTPErrorHandler(logger zerolog.Logger, dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := ErrorResponse(err, dev)
		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}
