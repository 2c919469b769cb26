package goRefresh

import "errors"

var (
	// ErrAuthRequired is an exported constant or variable used by the authentication engine.
	ErrAuthRequired = errors.New("authentication required")
	// ErrInvalidRefreshToken is an exported constant or variable used by the authentication engine.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrSessionRevoked is an exported constant or variable used by the authentication engine.
	ErrSessionRevoked = errors.New("session has been revoked")
	// ErrSessionTooOld is an exported constant or variable used by the authentication engine.
	ErrSessionTooOld = errors.New("session expired too long ago")
	// ErrSessionExpired is an exported constant or variable used by the authentication engine.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound is an exported constant or variable used by the authentication engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountSuspended is an exported constant or variable used by the authentication engine.
	ErrAccountSuspended = errors.New("account suspended")
	// ErrAccountDeleted is an exported constant or variable used by the authentication engine.
	ErrAccountDeleted = errors.New("account deleted")
	// ErrAccountExists is an exported constant or variable used by the authentication engine.
	ErrAccountExists = errors.New("account already exists")
	// ErrSignUpInvalid is an exported constant or variable used by the authentication engine.
	ErrSignUpInvalid = errors.New("invalid sign up request")
	// ErrOTPInvalid is an exported constant or variable used by the authentication engine.
	ErrOTPInvalid = errors.New("invalid otp")
	// ErrOTPExpired is an exported constant or variable used by the authentication engine.
	ErrOTPExpired = errors.New("otp expired")
	// ErrOTPRateLimited is an exported constant or variable used by the authentication engine.
	ErrOTPRateLimited = errors.New("otp requests rate limited")
	// ErrIdentityUnavailable is an exported constant or variable used by the authentication engine.
	ErrIdentityUnavailable = errors.New("identity provider unavailable")
	// ErrSessionInvalidationFailed is an exported constant or variable used by the authentication engine.
	ErrSessionInvalidationFailed = errors.New("session invalidation failed")
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// AppError pairs a sentinel error with the HTTP-equivalent status and
// user-facing message the original subsystem exposes. The engine returns
// plain sentinels; callers that speak HTTP can wrap them with [Describe].
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error describes the error operation and its observable behavior.
//
// Error may return an error when input validation, dependency calls, or security checks fail.
// Error does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap describes the unwrap operation and its observable behavior.
//
// Unwrap may return an error when input validation, dependency calls, or security checks fail.
// Unwrap does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Describe maps an engine error to its transport-facing status and message.
// Unknown errors collapse to a generic 401 so internals are never leaked.
func Describe(err error) *AppError {
	switch {
	case errors.Is(err, ErrAuthRequired):
		return &AppError{Err: ErrAuthRequired, Status: 401, Message: "Authentication required"}
	case errors.Is(err, ErrInvalidRefreshToken):
		return &AppError{Err: ErrInvalidRefreshToken, Status: 401, Message: "Invalid refresh token, please log in again"}
	case errors.Is(err, ErrSessionRevoked):
		return &AppError{Err: ErrSessionRevoked, Status: 401, Message: "Session has been revoked, please log in again"}
	case errors.Is(err, ErrSessionTooOld):
		return &AppError{Err: ErrSessionTooOld, Status: 401, Message: "Session expired too long ago, please log in again"}
	case errors.Is(err, ErrUserNotFound):
		return &AppError{Err: ErrUserNotFound, Status: 404, Message: "User not found"}
	case errors.Is(err, ErrAccountSuspended):
		return &AppError{Err: ErrAccountSuspended, Status: 401, Message: "Your account is currently suspended"}
	case errors.Is(err, ErrAccountDeleted):
		return &AppError{Err: ErrAccountDeleted, Status: 404, Message: "Your account has been deleted"}
	case errors.Is(err, ErrAccountExists):
		return &AppError{Err: ErrAccountExists, Status: 409, Message: "Account already exists"}
	case errors.Is(err, ErrSignUpInvalid):
		return &AppError{Err: ErrSignUpInvalid, Status: 422, Message: "Invalid sign up request"}
	case errors.Is(err, ErrOTPInvalid):
		return &AppError{Err: ErrOTPInvalid, Status: 401, Message: "Invalid OTP"}
	case errors.Is(err, ErrOTPExpired):
		return &AppError{Err: ErrOTPExpired, Status: 401, Message: "OTP has expired"}
	case errors.Is(err, ErrOTPRateLimited):
		return &AppError{Err: ErrOTPRateLimited, Status: 429, Message: "Too many OTP requests, please try again later"}
	case errors.Is(err, ErrIdentityUnavailable):
		return &AppError{Err: ErrIdentityUnavailable, Status: 502, Message: "Identity provider unavailable"}
	case errors.Is(err, ErrSessionInvalidationFailed):
		return &AppError{Err: ErrSessionInvalidationFailed, Status: 500, Message: "Failed to invalidate session"}
	default:
		return &AppError{Err: ErrSessionExpired, Status: 401, Message: "Session expired, please log in again"}
	}
}
