package goRefresh

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventTokenPairIssued  = "token_pair_issued"
	auditEventAccessAccepted   = "access_accepted"
	auditEventAuthFailure      = "auth_failure"
	auditEventRotationSuccess  = "rotation_success"
	auditEventRotationReplayed = "rotation_replayed"
	auditEventRotationFailure  = "rotation_failure"
	auditEventGraceRenewal     = "grace_renewal"
	auditEventGraceExpired     = "grace_expired"
	auditEventSignOut          = "signout_session"
	auditEventSignOutAll       = "signout_all"
	auditEventSignUpSuccess    = "signup_success"
	auditEventSignUpFailure    = "signup_failure"
	auditEventOTPRequested     = "otp_requested"
	auditEventOTPVerified      = "otp_verified"
	auditEventOTPFailure       = "otp_failure"
	auditEventOAuthLogin       = "oauth_login"
)

// AuditErrorCode defines a public type used by goRefresh APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrAuthRequired        AuditErrorCode = "auth_required"
	auditErrInvalidToken        AuditErrorCode = "invalid_token"
	auditErrSessionRevoked      AuditErrorCode = "session_revoked"
	auditErrSessionTooOld       AuditErrorCode = "session_too_old"
	auditErrSessionExpired      AuditErrorCode = "session_expired"
	auditErrUserNotFound        AuditErrorCode = "user_not_found"
	auditErrAccountSuspended    AuditErrorCode = "account_suspended"
	auditErrAccountDeleted      AuditErrorCode = "account_deleted"
	auditErrDuplicate           AuditErrorCode = "duplicate"
	auditErrSignUpInvalid       AuditErrorCode = "signup_invalid"
	auditErrOTPInvalid          AuditErrorCode = "otp_invalid"
	auditErrOTPExpired          AuditErrorCode = "otp_expired"
	auditErrRateLimited         AuditErrorCode = "rate_limited"
	auditErrProviderUnavailable AuditErrorCode = "provider_unavailable"
	auditErrSessionInvalidation AuditErrorCode = "session_invalidation_failed"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	familyID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		FamilyID:  familyID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrAuthRequired):
		return auditErrAuthRequired
	case errors.Is(err, ErrInvalidRefreshToken):
		return auditErrInvalidToken
	case errors.Is(err, ErrSessionRevoked):
		return auditErrSessionRevoked
	case errors.Is(err, ErrSessionTooOld):
		return auditErrSessionTooOld
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrAccountSuspended):
		return auditErrAccountSuspended
	case errors.Is(err, ErrAccountDeleted):
		return auditErrAccountDeleted
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrSignUpInvalid):
		return auditErrSignUpInvalid
	case errors.Is(err, ErrOTPInvalid):
		return auditErrOTPInvalid
	case errors.Is(err, ErrOTPExpired):
		return auditErrOTPExpired
	case errors.Is(err, ErrOTPRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrIdentityUnavailable):
		return auditErrProviderUnavailable
	case errors.Is(err, ErrSessionInvalidationFailed):
		return auditErrSessionInvalidation
	default:
		return auditErrInternal
	}
}
