package errors

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestConstructors_CodesAndStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Location"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Reservation", "abc"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad input", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"conflict", Conflict("slot taken"), CodeConflict, http.StatusConflict},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("too slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("mongo"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.StatusCode())
			}
		})
	}
}

func TestNotFoundWithID_CarriesDetails(t *testing.T) {
	err := NotFoundWithID("Reservation", "665f1b2a9c3d4e5f6a7b8c9e")
	if err.Details["resource"] != "Reservation" {
		t.Errorf("expected resource detail, got %v", err.Details["resource"])
	}
	if err.Details["id"] != "665f1b2a9c3d4e5f6a7b8c9e" {
		t.Errorf("expected id detail, got %v", err.Details["id"])
	}
}

func TestInternal_WrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("Failed to reach database", cause)

	if !errors.Is(err, cause) {
		t.Error("Unwrap must expose the underlying cause")
	}
	if msg := err.Error(); !strings.Contains(msg, "connection refused") {
		t.Errorf("error string must mention the cause, got %q", msg)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("slot taken")
	if got := AsAppError(appErr); got != appErr {
		t.Error("an AppError must pass through unchanged")
	}

	plain := errors.New("something broke")
	got := AsAppError(plain)
	if got.Code != CodeInternal {
		t.Errorf("a plain error must wrap as internal, got %s", got.Code)
	}
	if !errors.Is(got, plain) {
		t.Error("the wrapped error must keep its cause")
	}
}

func TestWithDetails(t *testing.T) {
	err := Conflict("slot taken").WithDetails(map[string]any{"hour": "18:00"})
	if err.Details["hour"] != "18:00" {
		t.Errorf("expected detail to stick, got %v", err.Details)
	}
}
