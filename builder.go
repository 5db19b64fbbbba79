package authcore

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/veyra/authcore/blacklist"
	"github.com/veyra/authcore/internal/rate"
	"github.com/veyra/authcore/jwt"
	"github.com/veyra/authcore/password"
	"github.com/veyra/authcore/sessiontoken"
)

// Builder defines a public type used by authcore APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users       UserStore
	clients     ClientStore
	authCodes   AuthCodeStore
	oauthTokens OAuthTokenStore

	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore describes the withuserstore operation and its observable behavior.
//
// WithUserStore may return an error when input validation, dependency calls, or security checks fail.
// WithUserStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithUserStore(s UserStore) *Builder {
	b.users = s
	return b
}

// WithClientStore describes the withclientstore operation and its observable behavior.
//
// WithClientStore may return an error when input validation, dependency calls, or security checks fail.
// WithClientStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithClientStore(s ClientStore) *Builder {
	b.clients = s
	return b
}

// WithAuthCodeStore describes the withauthcodestore operation and its observable behavior.
//
// WithAuthCodeStore may return an error when input validation, dependency calls, or security checks fail.
// WithAuthCodeStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuthCodeStore(s AuthCodeStore) *Builder {
	b.authCodes = s
	return b
}

// WithOAuthTokenStore describes the withoauthtokenstore operation and its observable behavior.
//
// WithOAuthTokenStore may return an error when input validation, dependency calls, or security checks fail.
// WithOAuthTokenStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithOAuthTokenStore(s OAuthTokenStore) *Builder {
	b.oauthTokens = s
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.clients == nil {
		return nil, errors.New("client store required")
	}
	if b.authCodes == nil {
		return nil, errors.New("auth code store required")
	}
	if b.oauthTokens == nil {
		return nil, errors.New("oauth token store required")
	}

	engine := &Engine{
		config:      cfg,
		users:       b.users,
		clients:     b.clients,
		authCodes:   b.authCodes,
		oauthTokens: b.oauthTokens,
	}

	engine.sessionTokens = sessiontoken.NewStore(b.redis, cfg.Session.RedisPrefix)
	engine.blacklist = blacklist.New(b.redis, cfg.Blacklist.RedisPrefix)
	engine.rateLimiter = rate.New(b.redis, rate.Config{
		EnableLoginThrottle:     cfg.Security.EnableLoginThrottle,
		EnableIPThrottle:        cfg.Security.EnableIPThrottle,
		EnableRefreshThrottle:   cfg.Security.EnableRefreshThrottle,
		MaxLoginAttempts:        cfg.Security.MaxLoginAttempts,
		LoginCooldownDuration:   cfg.Security.LoginCooldownDuration,
		MaxRefreshAttempts:      cfg.Security.MaxRefreshAttempts,
		RefreshCooldownDuration: cfg.Security.RefreshCooldownDuration,
	})
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	jm, err := jwt.NewManager(jwt.Config{
		SessionSecret:      cloneBytes(cfg.JWT.SessionSecret),
		OAuthAccessSecret:  cloneBytes(cfg.JWT.OAuthAccessSecret),
		OAuthRefreshSecret: cloneBytes(cfg.JWT.OAuthRefreshSecret),
		SessionAccessTTL:   cfg.JWT.SessionAccessTTL,
		Issuer:             cfg.JWT.Issuer,
		Audience:           cfg.JWT.Audience,
		Leeway:             cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	engine.grants = map[string]grantHandler{
		GrantClientCredentials: &clientCredentialsGrant{engine: engine},
		GrantAuthorizationCode: &authorizationCodeGrant{engine: engine},
		GrantRefreshToken:      &refreshTokenGrant{engine: engine},
	}

	b.built = true

	return engine, nil
}
