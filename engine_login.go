package authcore

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/veyra/authcore/internal/rate"
	"github.com/veyra/authcore/secrets"
	"github.com/veyra/authcore/sessiontoken"
)

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
// Unknown accounts and wrong passwords return the same
// ErrInvalidCredentials so callers cannot probe which emails exist.
func (e *Engine) Login(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	email = normalizeEmail(email)
	ip := ClientIPFromContext(ctx)

	if err := e.rateLimiter.CheckLogin(ctx, email, ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", ErrRateLimited, nil)
			return nil, ErrRateLimited
		}
		return nil, wrapStoreErr(err)
	}

	user, err := e.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if user == nil {
		return nil, e.failLogin(ctx, email, ip)
	}

	match, err := e.passwordHash.Compare(plainPassword, user.PasswordHash)
	if err != nil || !match {
		return nil, e.failLogin(ctx, email, ip)
	}

	e.maybeRehash(ctx, user, plainPassword)

	result, err := e.issueSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if err := e.rateLimiter.ResetLogin(ctx, email, ip); err != nil {
		log.Print("authcore: reset login counter failed: ", err)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, "", nil, nil)

	return result, nil
}

func (e *Engine) failLogin(ctx context.Context, email, ip string) error {
	if err := e.rateLimiter.IncrementLogin(ctx, email, ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", ErrRateLimited, nil)
			return ErrRateLimited
		}
		log.Print("authcore: increment login counter failed: ", err)
	}

	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrInvalidCredentials, nil)

	return ErrInvalidCredentials
}

// maybeRehash upgrades the stored hash after a successful verification
// when the current work factors are stronger. Failures are logged and
// swallowed; the login already succeeded.
func (e *Engine) maybeRehash(ctx context.Context, user *UserRecord, plainPassword string) {
	if !e.config.Password.RehashOnLogin || !e.passwordHash.NeedsRehash(user.PasswordHash) {
		return
	}

	newHash, err := e.passwordHash.Hash(plainPassword)
	if err != nil {
		log.Print("authcore: password rehash failed: ", err)
		return
	}

	if err := e.users.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
		log.Print("authcore: password rehash update failed: ", err)
		return
	}

	e.metricInc(MetricPasswordRehash)
}

// issueSession mints a session access token plus a fresh opaque refresh
// token and persists the refresh record with its request metadata.
func (e *Engine) issueSession(ctx context.Context, userID string) (*LoginResult, error) {
	accessToken, expiresAt, err := e.jwtManager.CreateSessionAccess(userID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := secrets.Generate(e.config.Session.RefreshTokenLength)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = e.sessionTokens.Save(ctx, refreshToken, sessiontoken.Record{
		UserID:    userID,
		UserAgent: UserAgentFromContext(ctx),
		IP:        ClientIPFromContext(ctx),
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(e.config.Session.RefreshTTL).Unix(),
	})
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	return &LoginResult{
		TokenType:    "Bearer",
		AccessToken:  accessToken,
		ExpiresAt:    expiresAt,
		RefreshToken: refreshToken,
	}, nil
}
