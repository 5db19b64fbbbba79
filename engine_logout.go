package authcore

import (
	"context"
	"errors"

	"github.com/veyra/authcore/jwt"
)

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The refresh token is revoked if it is still live; revoking a missing or
// already revoked token is not an error, so logout is idempotent. The
// access token is blacklisted for its remaining lifetime; a blacklist
// failure is returned because the caller must not believe the token is
// dead when it is not. An access token that does not even parse is
// ErrUnauthorized.
func (e *Engine) Logout(ctx context.Context, refreshToken, accessToken string) error {
	var userID string

	if refreshToken != "" {
		rec, _, err := e.sessionTokens.Revoke(ctx, refreshToken)
		if err != nil {
			return wrapStoreErr(err)
		}
		userID = rec.UserID
	}

	if accessToken != "" {
		if err := e.blacklist.Add(ctx, accessToken); err != nil {
			if errors.Is(err, jwt.ErrTokenMalformed) {
				return ErrUnauthorized
			}
			return wrapStoreErr(err)
		}
		e.metricInc(MetricTokenBlacklisted)
		e.emitAudit(ctx, auditEventTokenBlacklisted, true, userID, "", nil, nil)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogoutSession, true, userID, "", nil, nil)

	return nil
}

// LogoutAll describes the logoutall operation and its observable behavior.
//
// LogoutAll may return an error when input validation, dependency calls, or security checks fail.
// LogoutAll does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Revokes every session refresh token the user holds and blacklists the
// caller's current access token. Access tokens held by other devices stay
// valid until they expire; only the refresh chain is cut.
func (e *Engine) LogoutAll(ctx context.Context, userID, accessToken string) error {
	if _, err := e.sessionTokens.RevokeAllForUser(ctx, userID); err != nil {
		return wrapStoreErr(err)
	}

	if accessToken != "" {
		if err := e.blacklist.Add(ctx, accessToken); err != nil {
			if errors.Is(err, jwt.ErrTokenMalformed) {
				return ErrUnauthorized
			}
			return wrapStoreErr(err)
		}
		e.metricInc(MetricTokenBlacklisted)
	}

	e.metricInc(MetricLogoutAll)
	e.emitAudit(ctx, auditEventLogoutAll, true, userID, "", nil, nil)

	return nil
}
