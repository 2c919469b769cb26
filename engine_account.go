package goRefresh

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/goRefresh/internal"
)

// SignUp registers a local account reachable by email, phone, or both.
// The account starts without credentials; ownership of the identifier is
// proven later through RequestOTP and VerifyOTP.
func (e *Engine) SignUp(ctx context.Context, req SignUpRequest) (UserRecord, error) {
	if e == nil || e.users == nil {
		return UserRecord{}, ErrEngineNotReady
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	phone := strings.TrimSpace(req.Phone)

	if email == "" && phone == "" {
		e.emitAudit(ctx, auditEventSignUpFailure, false, "", "", ErrSignUpInvalid, nil)
		return UserRecord{}, ErrSignUpInvalid
	}

	role := req.Role
	if role == "" {
		role = RoleUser
	}
	if role != RoleUser && role != RoleAdmin {
		e.emitAudit(ctx, auditEventSignUpFailure, false, "", "", ErrSignUpInvalid, func() map[string]string {
			return map[string]string{
				"reason": "unknown_role",
			}
		})
		return UserRecord{}, ErrSignUpInvalid
	}

	if email != "" {
		if _, err := e.users.GetUserByEmail(ctx, email); err == nil {
			e.metricInc(MetricSignUpDuplicate)
			e.emitAudit(ctx, auditEventSignUpFailure, false, "", "", ErrAccountExists, nil)
			return UserRecord{}, ErrAccountExists
		} else if !errors.Is(err, ErrUserNotFound) {
			return UserRecord{}, err
		}
	}
	if phone != "" {
		if _, err := e.users.GetUserByPhone(ctx, phone); err == nil {
			e.metricInc(MetricSignUpDuplicate)
			e.emitAudit(ctx, auditEventSignUpFailure, false, "", "", ErrAccountExists, nil)
			return UserRecord{}, ErrAccountExists
		} else if !errors.Is(err, ErrUserNotFound) {
			return UserRecord{}, err
		}
	}

	complete := email != "" && phone != "" &&
		strings.TrimSpace(req.FirstName) != "" && strings.TrimSpace(req.LastName) != ""

	user, err := e.users.CreateUser(ctx, CreateUserInput{
		Email:                email,
		Phone:                phone,
		FirstName:            strings.TrimSpace(req.FirstName),
		LastName:             strings.TrimSpace(req.LastName),
		Role:                 role,
		AuthProvider:         ProviderLocal,
		RegistrationComplete: complete,
	})
	if err != nil {
		e.emitAudit(ctx, auditEventSignUpFailure, false, "", "", err, nil)
		return UserRecord{}, err
	}

	e.metricInc(MetricSignUpSuccess)
	e.emitAudit(ctx, auditEventSignUpSuccess, true, user.UserID, "", nil, nil)
	return user, nil
}

// RequestOTP generates a short-lived one-time code for the account matching
// the identifier (email or phone) and returns it for out-of-band delivery.
// Repeated requests inside the retry window are capped; once the cap is
// reached the caller must wait the window out.
func (e *Engine) RequestOTP(ctx context.Context, identifier string) (string, error) {
	if e == nil || e.users == nil {
		return "", ErrEngineNotReady
	}

	user, err := e.userByIdentifier(ctx, identifier)
	if err != nil {
		e.metricInc(MetricOTPFailure)
		e.emitAudit(ctx, auditEventOTPFailure, false, "", "", err, nil)
		return "", err
	}
	if gerr := accountStatusToError(user.Status); gerr != nil {
		e.metricInc(MetricOTPFailure)
		e.emitAudit(ctx, auditEventOTPFailure, false, user.UserID, "", gerr, nil)
		return "", gerr
	}

	now := time.Now()

	retries := user.OTPRetries
	windowStart := user.OTPRetryWindowStart
	if windowStart.IsZero() || now.Sub(windowStart) > e.config.OTP.RetryWindow {
		retries = 0
		windowStart = now
	}
	if retries >= e.config.OTP.MaxRetries {
		e.metricInc(MetricOTPRateLimited)
		e.emitAudit(ctx, auditEventOTPFailure, false, user.UserID, "", ErrOTPRateLimited, nil)
		return "", ErrOTPRateLimited
	}

	code, err := internal.NewOTP(e.config.OTP.Digits)
	if err != nil {
		return "", err
	}

	retries++
	expiresAt := now.Add(e.config.OTP.TTL)
	if _, err := e.users.UpdateUser(ctx, user.UserID, UserUpdate{
		OTP:                 &code,
		OTPExpiresAt:        &expiresAt,
		OTPRetries:          &retries,
		OTPRetryWindowStart: &windowStart,
	}); err != nil {
		return "", err
	}

	e.metricInc(MetricOTPRequested)
	e.emitAudit(ctx, auditEventOTPRequested, true, user.UserID, "", nil, func() map[string]string {
		return map[string]string{
			"retries": strconv.Itoa(retries),
		}
	})
	return code, nil
}

// VerifyOTP checks the submitted code against the stored one and, when it
// matches, consumes it and logs the caller in with a fresh token pair.
func (e *Engine) VerifyOTP(ctx context.Context, identifier, code string) (UserRecord, *TokenPair, error) {
	if e == nil || e.users == nil {
		return UserRecord{}, nil, ErrEngineNotReady
	}

	user, err := e.userByIdentifier(ctx, identifier)
	if err != nil {
		e.metricInc(MetricOTPFailure)
		e.emitAudit(ctx, auditEventOTPFailure, false, "", "", err, nil)
		return UserRecord{}, nil, err
	}
	if gerr := accountStatusToError(user.Status); gerr != nil {
		e.metricInc(MetricOTPFailure)
		e.emitAudit(ctx, auditEventOTPFailure, false, user.UserID, "", gerr, nil)
		return UserRecord{}, nil, gerr
	}

	if user.OTP == "" || code == "" || user.OTP != code {
		e.metricInc(MetricOTPFailure)
		e.emitAudit(ctx, auditEventOTPFailure, false, user.UserID, "", ErrOTPInvalid, nil)
		return UserRecord{}, nil, ErrOTPInvalid
	}
	if time.Now().After(user.OTPExpiresAt) {
		e.metricInc(MetricOTPFailure)
		e.emitAudit(ctx, auditEventOTPFailure, false, user.UserID, "", ErrOTPExpired, nil)
		return UserRecord{}, nil, ErrOTPExpired
	}

	empty := ""
	zeroTime := time.Time{}
	zeroRetries := 0
	now := time.Now()
	user, err = e.users.UpdateUser(ctx, user.UserID, UserUpdate{
		OTP:                 &empty,
		OTPExpiresAt:        &zeroTime,
		OTPRetries:          &zeroRetries,
		OTPRetryWindowStart: &zeroTime,
		LastLoginAt:         &now,
	})
	if err != nil {
		return UserRecord{}, nil, err
	}

	pair, err := e.GenerateTokenPair(ctx, user.UserID, "", 1)
	if err != nil {
		return UserRecord{}, nil, err
	}

	e.metricInc(MetricOTPVerified)
	e.emitAudit(ctx, auditEventOTPVerified, true, user.UserID, pair.TokenFamily, nil, nil)
	return user, pair, nil
}

func (e *Engine) userByIdentifier(ctx context.Context, identifier string) (UserRecord, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return UserRecord{}, ErrUserNotFound
	}
	if strings.Contains(identifier, "@") {
		return e.users.GetUserByEmail(ctx, strings.ToLower(identifier))
	}
	return e.users.GetUserByPhone(ctx, identifier)
}
