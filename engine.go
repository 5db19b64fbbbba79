package authcore

import (
	"context"

	"github.com/veyra/authcore/blacklist"
	"github.com/veyra/authcore/internal/audit"
	"github.com/veyra/authcore/internal/rate"
	"github.com/veyra/authcore/jwt"
	"github.com/veyra/authcore/password"
	"github.com/veyra/authcore/sessiontoken"
)

// Engine defines a public type used by authcore APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// An Engine is created once through the Builder and shared across
// goroutines; all exported methods are safe for concurrent use.
type Engine struct {
	config Config

	users       UserStore
	clients     ClientStore
	authCodes   AuthCodeStore
	oauthTokens OAuthTokenStore

	sessionTokens *sessiontoken.Store
	blacklist     *blacklist.Store
	rateLimiter   *rate.Limiter

	passwordHash *password.Hasher
	jwtManager   *jwt.Manager

	grants map[string]grantHandler

	audit   *audit.Dispatcher
	metrics *Metrics
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
// Close drains the audit pipeline. It does not close the Redis client,
// which the caller owns.
func (e *Engine) Close() {
	e.audit.Close()
}

// Metrics describes the metrics operation and its observable behavior.
//
// Metrics may return an error when input validation, dependency calls, or security checks fail.
// Metrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

// BlacklistCount describes the blacklistcount operation and its observable behavior.
//
// BlacklistCount may return an error when input validation, dependency calls, or security checks fail.
// BlacklistCount does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) BlacklistCount(ctx context.Context) (int, error) {
	return e.blacklist.Count(ctx)
}

// BlacklistRemove describes the blacklistremove operation and its observable behavior.
//
// BlacklistRemove may return an error when input validation, dependency calls, or security checks fail.
// BlacklistRemove does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) BlacklistRemove(ctx context.Context, token string) error {
	return e.blacklist.Remove(ctx, token)
}
