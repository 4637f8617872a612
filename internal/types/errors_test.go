package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorImplementsError(t *testing.T) {
	var _ error = (*AppError)(nil)
}

func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeValidationInvalidLat,
		Message: "lat must be between -90 and 90",
	}

	expected := "validation_invalid_latitude: lat must be between -90 and 90"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	underlying := errors.New("dial tcp: connection refused")
	appErr := NewAppError(ErrCodeUpstreamAirQuality, "open-meteo request failed", underlying)

	if appErr.Unwrap() != underlying {
		t.Errorf("Unwrap() = %v, want %v", appErr.Unwrap(), underlying)
	}
	if !errors.Is(appErr, underlying) {
		t.Error("errors.Is should find the underlying error")
	}
}

func TestAppErrorErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("handler failed: %w", NewAppError(ErrCodeFiresDisabled, "no FIRMS key", nil))

	var target *AppError
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As should find AppError in the chain")
	}
	if target.Code != ErrCodeFiresDisabled {
		t.Errorf("Code = %q, want %q", target.Code, ErrCodeFiresDisabled)
	}
}

func TestErrorCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationInvalidLat, http.StatusBadRequest},
		{ErrCodeValidationInvalidLayer, http.StatusBadRequest},
		{ErrCodeValidationInvalidBBox, http.StatusBadRequest},
		{ErrCodeNotFoundRoute, http.StatusNotFound},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeFiresDisabled, http.StatusServiceUnavailable},
		{ErrCodeUpstreamRateLimited, http.StatusServiceUnavailable},
		{ErrCodeUpstreamAirQuality, http.StatusBadGateway},
		{ErrCodeUpstreamGeocoder, http.StatusBadGateway},
		{ErrCodeInternalCache, http.StatusInternalServerError},
		{ErrorCode("something_else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorWithDetailsDoesNotMutate(t *testing.T) {
	orig := NewAppErrorWithDetails(ErrCodeValidationInvalidDays, "days out of range", nil, map[string]any{"min": 1})
	copied := orig.WithDetails(map[string]any{"max": 10})

	if _, ok := orig.Details["max"]; ok {
		t.Error("WithDetails mutated the original error")
	}
	if copied.Details["min"] != 1 || copied.Details["max"] != 10 {
		t.Errorf("unexpected merged details: %v", copied.Details)
	}
}
