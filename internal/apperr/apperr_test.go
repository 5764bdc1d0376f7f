package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name        string
		err         *Error
		wantStatus  int
		operational bool
	}{
		{"conflict", Conflict("User already exists", "duplicate email"), http.StatusConflict, true},
		{"not found", NotFound("User not found", "no such id"), http.StatusNotFound, true},
		{"unauthorized", Unauthorized("Invalid credentials", "Invalid credentials"), http.StatusUnauthorized, true},
		{"forbidden", Forbidden("Token not valid", "Token not valid"), http.StatusForbidden, true},
		{"internal", Internal("store write failed"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", tt.err.Status, tt.wantStatus)
			}
			if tt.err.Operational != tt.operational {
				t.Errorf("Operational = %v, want %v", tt.err.Operational, tt.operational)
			}
			if tt.err.Error() == "" {
				t.Error("Error() should not be empty")
			}
		})
	}
}

func TestFrom(t *testing.T) {
	orig := Unauthorized("Invalid credentials", "Invalid credentials")
	wrapped := fmt.Errorf("login: %w", orig)

	got := From(wrapped)
	if got == nil {
		t.Fatal("From() = nil, want the wrapped *Error")
	}
	if got.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want %d", got.Status, http.StatusUnauthorized)
	}
}

func TestFrom_NotAnAppError(t *testing.T) {
	if got := From(errors.New("plain error")); got != nil {
		t.Errorf("From() = %v, want nil", got)
	}
}
