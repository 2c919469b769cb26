package goRefresh

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/MrEthical07/goRefresh/family"
	"github.com/MrEthical07/goRefresh/internal"
	"github.com/MrEthical07/goRefresh/jwt"
	"github.com/MrEthical07/goRefresh/replay"
	"github.com/google/uuid"
)

// Engine defines a public type used by goRefresh APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config      Config
	familyStore *family.Store
	replayCache *replay.Cache
	jwtManager  *jwt.Manager
	users       UserDirectory
	identity    IdentityProvider
	audit       *auditDispatcher
	metrics     *Metrics
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// GenerateTokenPair mints an access token plus a refresh token bound to
// existingFamilyID at the given version. An empty existingFamilyID starts a
// brand-new family: the durable write is best-effort, and a storage failure
// is logged rather than surfaced so a transient outage never blocks login.
func (e *Engine) GenerateTokenPair(ctx context.Context, userID, existingFamilyID string, version int) (*TokenPair, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	if version <= 0 {
		version = 1
	}

	access, err := e.jwtManager.CreateAccess(userID)
	if err != nil {
		return nil, err
	}

	familyID := existingFamilyID
	if familyID == "" {
		familyID = uuid.NewString()
		if _, err := e.familyStore.Create(ctx, userID, familyID); err != nil {
			// Availability over durability: callers still get a working pair.
			log.Print("goRefresh: token family creation failed")
		} else {
			e.metricInc(MetricFamilyCreated)
		}
	}

	refresh, err := e.jwtManager.CreateRefresh(userID, familyID, version)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricTokenPairIssued)
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenFamily:  familyID,
		Version:      version,
	}, nil
}

// Authenticate resolves a caller's identity from an optional access token
// and refresh token. A valid access token is always accepted as-is; the
// refresh path (rotation or grace renewal) only runs when the access token
// is absent or fails verification.
func (e *Engine) Authenticate(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error) {
	if e == nil || e.jwtManager == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}

	if refreshToken == "" {
		e.metricInc(MetricAuthFailure)
		e.emitAudit(ctx, auditEventAuthFailure, false, "", "", ErrAuthRequired, nil)
		return nil, ErrAuthRequired
	}

	if accessToken != "" {
		claims, err := e.jwtManager.ParseAccess(accessToken)
		if err == nil {
			user, verr := e.verifyUser(ctx, claims.UID)
			if verr != nil {
				e.metricInc(MetricAuthFailure)
				e.emitAudit(ctx, auditEventAuthFailure, false, claims.UID, "", verr, func() map[string]string {
					return map[string]string{
						"reason": "user_gating",
					}
				})
				return nil, verr
			}

			e.metricInc(MetricAccessAccepted)
			e.emitAudit(ctx, auditEventAccessAccepted, true, user.UserID, "", nil, nil)
			return &AuthResult{User: user, Rotated: false}, nil
		}
		// Invalid or expired access token: fall through to the refresh path.
	}

	return e.refresh(ctx, refreshToken)
}

func (e *Engine) refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	switch {
	case err == nil:
		return e.rotate(ctx, refreshToken, claims)
	case errors.Is(err, jwt.ErrTokenExpired):
		return e.graceRenew(ctx, refreshToken)
	default:
		e.metricInc(MetricRotationFailure)
		e.emitAudit(ctx, auditEventRotationFailure, false, "", "", ErrInvalidRefreshToken, func() map[string]string {
			return map[string]string{
				"reason": "malformed_refresh",
			}
		})
		return nil, ErrInvalidRefreshToken
	}
}

// rotate exchanges a valid refresh token for a version+1 pair within the
// same family. A replay-cache hit returns the previously minted refresh
// token with a freshly signed access token, keeping retried exchanges
// idempotent.
func (e *Engine) rotate(ctx context.Context, refreshToken string, claims *jwt.RefreshClaims) (*AuthResult, error) {
	if _, err := e.familyStore.Find(ctx, claims.TokenFamily); err != nil {
		if errors.Is(err, family.ErrNotFound) {
			e.metricInc(MetricSessionRevoked)
			e.emitAudit(ctx, auditEventRotationFailure, false, claims.UID, claims.TokenFamily, ErrSessionRevoked, nil)
			return nil, ErrSessionRevoked
		}
		return nil, err
	}

	tokenHash := internal.HashToken(refreshToken)

	entry, err := e.replayCache.Get(ctx, tokenHash)
	if err != nil {
		// Cache failures never block rotation.
		log.Print("goRefresh: replay cache read failed")
		entry = nil
	}
	if entry != nil {
		user, uerr := e.users.GetUserByID(ctx, entry.UserID)
		if uerr != nil {
			if errors.Is(uerr, ErrUserNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, uerr
		}

		access, aerr := e.jwtManager.CreateAccess(user.UserID)
		if aerr != nil {
			return nil, aerr
		}

		pair := &TokenPair{
			AccessToken:  access,
			RefreshToken: entry.NewToken,
			TokenFamily:  claims.TokenFamily,
		}
		if cached, derr := e.jwtManager.DecodeRefreshUnverified(entry.NewToken); derr == nil {
			pair.Version = cached.Version
		}

		e.metricInc(MetricRotationReplayed)
		e.emitAudit(ctx, auditEventRotationReplayed, true, user.UserID, claims.TokenFamily, nil, nil)
		return &AuthResult{User: user, Pair: pair, Rotated: true}, nil
	}

	user, verr := e.verifyUser(ctx, claims.UID)
	if verr != nil {
		e.metricInc(MetricRotationFailure)
		e.emitAudit(ctx, auditEventRotationFailure, false, claims.UID, claims.TokenFamily, verr, func() map[string]string {
			return map[string]string{
				"reason": "user_gating",
			}
		})
		return nil, verr
	}

	pair, err := e.GenerateTokenPair(ctx, user.UserID, claims.TokenFamily, claims.Version+1)
	if err != nil {
		e.metricInc(MetricRotationFailure)
		e.emitAudit(ctx, auditEventRotationFailure, false, user.UserID, claims.TokenFamily, err, func() map[string]string {
			return map[string]string{
				"reason": "token_mint_failed",
			}
		})
		return nil, err
	}

	if err := e.replayCache.Put(ctx, tokenHash, pair.RefreshToken, user.UserID); err != nil {
		log.Print("goRefresh: replay cache write failed")
	}

	e.metricInc(MetricRotationSuccess)
	e.emitAudit(ctx, auditEventRotationSuccess, true, user.UserID, claims.TokenFamily, nil, func() map[string]string {
		return map[string]string{
			"version": strconv.Itoa(pair.Version),
		}
	})
	return &AuthResult{User: user, Pair: pair, Rotated: true}, nil
}

// graceRenew handles a refresh token that is expired but structurally
// valid. Within the grace window the session is renewed as a brand-new
// family at version 1; beyond it the old family is invalidated and the
// caller must log in again.
func (e *Engine) graceRenew(ctx context.Context, expiredToken string) (*AuthResult, error) {
	claims, err := e.jwtManager.DecodeRefreshUnverified(expiredToken)
	if err != nil {
		e.metricInc(MetricRotationFailure)
		e.emitAudit(ctx, auditEventRotationFailure, false, "", "", ErrInvalidRefreshToken, func() map[string]string {
			return map[string]string{
				"reason": "undecodable_expired_refresh",
			}
		})
		return nil, ErrInvalidRefreshToken
	}

	if _, err := e.familyStore.Find(ctx, claims.TokenFamily); err != nil {
		if errors.Is(err, family.ErrNotFound) {
			e.metricInc(MetricSessionRevoked)
			e.emitAudit(ctx, auditEventGraceExpired, false, claims.UID, claims.TokenFamily, ErrSessionRevoked, nil)
			return nil, ErrSessionRevoked
		}
		return nil, err
	}

	expiredAt := claims.ExpiresAt.Time
	if time.Since(expiredAt) > e.config.Family.GracePeriod {
		if err := e.familyStore.Invalidate(ctx, claims.TokenFamily); err != nil {
			log.Print("goRefresh: stale family invalidation failed")
		}
		e.metricInc(MetricGraceExpired)
		e.emitAudit(ctx, auditEventGraceExpired, false, claims.UID, claims.TokenFamily, ErrSessionTooOld, nil)
		return nil, ErrSessionTooOld
	}

	user, verr := e.verifyUser(ctx, claims.UID)
	if verr != nil {
		e.metricInc(MetricRotationFailure)
		e.emitAudit(ctx, auditEventRotationFailure, false, claims.UID, claims.TokenFamily, verr, func() map[string]string {
			return map[string]string{
				"reason": "user_gating",
			}
		})
		return nil, verr
	}

	pair, err := e.GenerateTokenPair(ctx, user.UserID, "", 1)
	if err != nil {
		e.metricInc(MetricRotationFailure)
		e.emitAudit(ctx, auditEventRotationFailure, false, user.UserID, claims.TokenFamily, err, func() map[string]string {
			return map[string]string{
				"reason": "token_mint_failed",
			}
		})
		return nil, err
	}

	// Keyed by the expired token so a retried renewal gets the same pair.
	if err := e.replayCache.Put(ctx, internal.HashToken(expiredToken), pair.RefreshToken, user.UserID); err != nil {
		log.Print("goRefresh: replay cache write failed")
	}

	e.metricInc(MetricGraceRenewal)
	e.emitAudit(ctx, auditEventGraceRenewal, true, user.UserID, pair.TokenFamily, nil, func() map[string]string {
		return map[string]string{
			"previous_family": claims.TokenFamily,
		}
	})
	return &AuthResult{User: user, Pair: pair, Rotated: true}, nil
}

// InvalidateTokenFamily revokes one session. All refresh tokens naming the
// family become unusable regardless of their own expiry.
func (e *Engine) InvalidateTokenFamily(ctx context.Context, familyID string) error {
	if e == nil || e.familyStore == nil {
		return ErrEngineNotReady
	}
	if err := e.familyStore.Invalidate(ctx, familyID); err != nil {
		e.emitAudit(ctx, auditEventSignOut, false, "", familyID, ErrSessionInvalidationFailed, nil)
		return errors.Join(ErrSessionInvalidationFailed, err)
	}
	e.metricInc(MetricSessionRevoked)
	return nil
}

// InvalidateUserTokenFamilies revokes every session belonging to a user.
func (e *Engine) InvalidateUserTokenFamilies(ctx context.Context, userID string) error {
	if e == nil || e.familyStore == nil {
		return ErrEngineNotReady
	}
	if err := e.familyStore.InvalidateAllForUser(ctx, userID); err != nil {
		e.emitAudit(ctx, auditEventSignOutAll, false, userID, "", ErrSessionInvalidationFailed, nil)
		return errors.Join(ErrSessionInvalidationFailed, err)
	}
	e.metricInc(MetricSessionRevoked)
	return nil
}

// verifyUser resolves a user id and applies the account gates used on
// every path that resolves a user: missing, suspended, and deleted
// accounts each fail with their own error.
func (e *Engine) verifyUser(ctx context.Context, userID string) (UserRecord, error) {
	user, err := e.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, err
	}
	if err := accountStatusToError(user.Status); err != nil {
		return UserRecord{}, err
	}
	return user, nil
}

func accountStatusToError(status AccountStatus) error {
	switch status {
	case AccountSuspended:
		return ErrAccountSuspended
	case AccountDeleted:
		return ErrAccountDeleted
	default:
		return nil
	}
}
