package authcore

import (
	"context"
	"errors"
	"log"

	"github.com/veyra/authcore/internal/rate"
	"github.com/veyra/authcore/sessiontoken"
)

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Rotation is single use: redeeming a refresh token revokes it and issues
// a replacement pair. Presenting a token that was already revoked is
// treated as theft evidence: the caller's access token is blacklisted and
// every refresh token belonging to the affected user is revoked. A caller
// that merely loses a concurrent rotation race receives the same
// ErrRefreshReuse as a replaying attacker; the two are indistinguishable
// by construction.
//
// currentAccessToken may be empty when the caller has none; theft
// handling then skips the blacklist step.
func (e *Engine) Refresh(ctx context.Context, refreshToken, currentAccessToken string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, ErrRefreshInvalid
	}

	if err := e.rateLimiter.CheckRefresh(ctx, refreshToken); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricRefreshRateLimited)
			e.emitAudit(ctx, auditEventRefreshRateLimited, false, "", "", ErrRateLimited, nil)
			return nil, ErrRateLimited
		}
		return nil, wrapStoreErr(err)
	}

	rec, status, err := e.sessionTokens.Claim(ctx, refreshToken)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	switch status {
	case sessiontoken.StatusClaimed:
		// Fall through to issuance below.

	case sessiontoken.StatusNotFound:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", "", ErrRefreshInvalid, nil)
		return nil, ErrRefreshInvalid

	case sessiontoken.StatusExpired:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, rec.UserID, "", ErrRefreshExpired, nil)
		return nil, ErrRefreshExpired

	case sessiontoken.StatusRevoked:
		return nil, e.handleRefreshReuse(ctx, rec, currentAccessToken)

	default:
		return nil, ErrRefreshInvalid
	}

	result, err := e.issueSession(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, rec.UserID, "", nil, nil)

	return result, nil
}

// handleRefreshReuse runs the containment response for a replayed refresh
// token: blacklist the presented access token, then revoke every session
// refresh token the user holds. Store failures propagate so the caller
// knows containment did not complete.
func (e *Engine) handleRefreshReuse(ctx context.Context, rec sessiontoken.Record, currentAccessToken string) error {
	e.metricInc(MetricRefreshReuseDetected)
	e.emitAudit(ctx, auditEventRefreshReuseDetected, false, rec.UserID, "", ErrRefreshReuse, nil)

	if currentAccessToken != "" {
		if err := e.blacklist.Add(ctx, currentAccessToken); err != nil {
			return wrapStoreErr(err)
		}
		e.metricInc(MetricTokenBlacklisted)
	}

	revoked, err := e.sessionTokens.RevokeAllForUser(ctx, rec.UserID)
	if err != nil {
		return wrapStoreErr(err)
	}
	if revoked > 0 {
		log.Print("authcore: refresh reuse containment revoked ", revoked, " session tokens")
	}

	return ErrRefreshReuse
}
