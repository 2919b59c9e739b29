package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		dev        bool
		wantStatus int
		wantError  string
		wantMsg    bool
	}{
		{"validation", apperr.Validation("Validation failed", "title is required"), false, http.StatusBadRequest, "Validation failed", false},
		{"transition", apperr.InvalidTransition("new", "resolved"), false, http.StatusBadRequest, "Invalid status transition from new to resolved", false},
		{"not found", apperr.NotFound("Complaint not found"), false, http.StatusNotFound, "Complaint not found", false},
		{"wrapped", fmt.Errorf("handler: %w", apperr.Forbidden("nope")), false, http.StatusForbidden, "nope", false},
		{"echo 401", echo.NewHTTPError(http.StatusUnauthorized, "Authentication required"), false, http.StatusUnauthorized, "Authentication required", false},
		{"internal prod", apperr.Internal("storage failure", errors.New("conn reset")), false, http.StatusInternalServerError, "Internal server error", false},
		{"internal dev", errors.New("boom"), true, http.StatusInternalServerError, "Internal server error", true},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), false, http.StatusServiceUnavailable, "Request timed out", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ErrorResponse(tt.err, tt.dev)
			if status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, status)
			}
			if body.Error != tt.wantError {
				t.Errorf("expected error %q, got %q", tt.wantError, body.Error)
			}
			if (body.Message != "") != tt.wantMsg {
				t.Errorf("unexpected message presence: %q", body.Message)
			}
		})
	}
}

func TestHTTPErrorHandler_RendersDetails(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(zerolog.Nop(), false)
	e.POST("/api/complaints", func(c echo.Context) error {
		return apperr.Validation("Validation failed", "title is required", "facilityId is required")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/complaints", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body ErrorBody
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error != "Validation failed" || len(body.Details) != 2 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestHTTPErrorHandler_UnknownRoute(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(zerolog.Nop(), false)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
