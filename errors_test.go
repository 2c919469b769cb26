package goRefresh

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestDescribeMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrAuthRequired, http.StatusUnauthorized},
		{ErrInvalidRefreshToken, http.StatusUnauthorized},
		{ErrSessionRevoked, http.StatusUnauthorized},
		{ErrSessionTooOld, http.StatusUnauthorized},
		{ErrUserNotFound, http.StatusNotFound},
		{ErrAccountSuspended, http.StatusUnauthorized},
		{ErrAccountDeleted, http.StatusNotFound},
		{ErrAccountExists, http.StatusConflict},
		{ErrSignUpInvalid, http.StatusUnprocessableEntity},
		{ErrOTPInvalid, http.StatusUnauthorized},
		{ErrOTPExpired, http.StatusUnauthorized},
		{ErrOTPRateLimited, http.StatusTooManyRequests},
		{ErrSessionInvalidationFailed, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			app := Describe(tc.err)
			if app.Status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, app.Status)
			}
			if app.Message == "" {
				t.Fatal("expected a client-facing message")
			}
			if !errors.Is(app, tc.err) {
				t.Fatal("AppError must unwrap to the sentinel")
			}
		})
	}
}

func TestDescribeWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("exchange: %w", ErrSessionRevoked)
	app := Describe(wrapped)
	if app.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", app.Status)
	}
	if !errors.Is(app, ErrSessionRevoked) {
		t.Fatal("wrapped sentinel must still be detected")
	}
}

func TestDescribeUnknownErrorCollapses(t *testing.T) {
	app := Describe(errors.New("database on fire"))
	if app.Status != http.StatusUnauthorized {
		t.Fatalf("unknown errors must collapse to 401, got %d", app.Status)
	}
	if !errors.Is(app, ErrSessionExpired) {
		t.Fatal("unknown errors map to the generic session-expired sentinel")
	}
}
