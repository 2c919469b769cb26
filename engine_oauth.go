package goRefresh

import (
	"context"
	"errors"
	"strings"
	"time"
)

// LoginWithGoogle exchanges an authorization code through the configured
// identity provider and signs the matching account in, creating it on first
// login. Accounts created through this path are registration-complete and
// carry the external provider label.
func (e *Engine) LoginWithGoogle(ctx context.Context, code string) (UserRecord, *TokenPair, error) {
	if e == nil || e.users == nil {
		return UserRecord{}, nil, ErrEngineNotReady
	}
	if e.identity == nil {
		return UserRecord{}, nil, ErrIdentityUnavailable
	}

	identity, err := e.identity.Exchange(ctx, code)
	if err != nil {
		e.emitAudit(ctx, auditEventOAuthLogin, false, "", "", ErrIdentityUnavailable, nil)
		return UserRecord{}, nil, ErrIdentityUnavailable
	}

	email := strings.TrimSpace(strings.ToLower(identity.Email))
	if email == "" {
		e.emitAudit(ctx, auditEventOAuthLogin, false, "", "", ErrIdentityUnavailable, func() map[string]string {
			return map[string]string{
				"reason": "no_email_claim",
			}
		})
		return UserRecord{}, nil, ErrIdentityUnavailable
	}

	now := time.Now()

	user, err := e.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if gerr := accountStatusToError(user.Status); gerr != nil {
			e.emitAudit(ctx, auditEventOAuthLogin, false, user.UserID, "", gerr, nil)
			return UserRecord{}, nil, gerr
		}

		update := UserUpdate{LastLoginAt: &now}
		if user.AuthProvider != ProviderGoogle {
			provider := ProviderGoogle
			update.AuthProvider = &provider
		}
		if user.FirstName == "" && identity.GivenName != "" {
			given := identity.GivenName
			update.FirstName = &given
		}
		if user.LastName == "" && identity.FamilyName != "" {
			familyName := identity.FamilyName
			update.LastName = &familyName
		}
		user, err = e.users.UpdateUser(ctx, user.UserID, update)
		if err != nil {
			return UserRecord{}, nil, err
		}
	case errors.Is(err, ErrUserNotFound):
		user, err = e.users.CreateUser(ctx, CreateUserInput{
			Email:                email,
			FirstName:            identity.GivenName,
			LastName:             identity.FamilyName,
			Role:                 RoleUser,
			AuthProvider:         ProviderGoogle,
			RegistrationComplete: true,
		})
		if err != nil {
			e.emitAudit(ctx, auditEventOAuthLogin, false, "", "", err, nil)
			return UserRecord{}, nil, err
		}
	default:
		return UserRecord{}, nil, err
	}

	pair, err := e.GenerateTokenPair(ctx, user.UserID, "", 1)
	if err != nil {
		return UserRecord{}, nil, err
	}

	e.metricInc(MetricOAuthLogin)
	e.emitAudit(ctx, auditEventOAuthLogin, true, user.UserID, pair.TokenFamily, nil, nil)
	return user, pair, nil
}
