package goRefresh

import "context"

// SignOut revokes the session named by the refresh token. The token is
// decoded without signature or expiry verification so even an expired or
// mis-signed token still identifies the family to drop. A token that
// cannot be decoded at all revokes nothing and is not an error.
func (e *Engine) SignOut(ctx context.Context, refreshToken string) error {
	if e == nil || e.jwtManager == nil {
		return ErrEngineNotReady
	}
	if refreshToken == "" {
		return nil
	}

	claims, err := e.jwtManager.DecodeRefreshUnverified(refreshToken)
	if err != nil {
		e.emitAudit(ctx, auditEventSignOut, true, "", "", nil, func() map[string]string {
			return map[string]string{
				"reason": "undecodable_token",
			}
		})
		return nil
	}

	if err := e.InvalidateTokenFamily(ctx, claims.TokenFamily); err != nil {
		return err
	}

	e.metricInc(MetricSignOut)
	e.emitAudit(ctx, auditEventSignOut, true, claims.UID, claims.TokenFamily, nil, nil)
	return nil
}

// SignOutAll revokes every session belonging to the user.
func (e *Engine) SignOutAll(ctx context.Context, userID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := e.InvalidateUserTokenFamilies(ctx, userID); err != nil {
		return err
	}

	e.metricInc(MetricSignOutAll)
	e.emitAudit(ctx, auditEventSignOutAll, true, userID, "", nil, nil)
	return nil
}
