package authcore

import (
	"errors"
	"time"
)

// JWTConfig defines a public type used by authcore APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// Each signed token class has its own secret so tokens can never cross
// classes. All three secrets are required.
type JWTConfig struct {
	SessionSecret      []byte
	OAuthAccessSecret  []byte
	OAuthRefreshSecret []byte

	SessionAccessTTL time.Duration
	Issuer           string
	Audience         string
	Leeway           time.Duration
}

// OAuthConfig defines a public type used by authcore APIs.
//
// OAuthConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OAuthConfig struct {
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	AuthCodeTTL time.Duration

	// AuthCodeLength and RefreshTokenLength are opaque secret sizes in
	// random bytes before hex encoding.
	AuthCodeLength     int
	RefreshTokenLength int
}

// SessionConfig defines a public type used by authcore APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RefreshTTL         time.Duration
	RefreshTokenLength int
	RedisPrefix        string
}

// PasswordConfig defines a public type used by authcore APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	MinLength int

	// RehashOnLogin upgrades hashes created under weaker parameters the
	// next time the password verifies successfully.
	RehashOnLogin bool
}

// PasswordResetConfig defines a public type used by authcore APIs.
//
// PasswordResetConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordResetConfig struct {
	TokenTTL    time.Duration
	TokenLength int
}

// SecurityConfig defines a public type used by authcore APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	EnableRefreshThrottle bool

	MaxLoginAttempts        int
	LoginCooldownDuration   time.Duration
	MaxRefreshAttempts      int
	RefreshCooldownDuration time.Duration
}

// BlacklistConfig defines a public type used by authcore APIs.
//
// BlacklistConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type BlacklistConfig struct {
	RedisPrefix string
}

// AuditConfig defines a public type used by authcore APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by authcore APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

// Config defines a public type used by authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT           JWTConfig
	OAuth         OAuthConfig
	Session       SessionConfig
	Password      PasswordConfig
	PasswordReset PasswordResetConfig
	Security      SecurityConfig
	Blacklist     BlacklistConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SessionAccessTTL: time.Hour,
			Issuer:           "authcore",
			Audience:         "authcore",
			Leeway:           30 * time.Second,
		},
		OAuth: OAuthConfig{
			AccessTTL:          15 * time.Minute,
			RefreshTTL:         7 * 24 * time.Hour,
			AuthCodeTTL:        10 * time.Minute,
			AuthCodeLength:     32,
			RefreshTokenLength: 32,
		},
		Session: SessionConfig{
			RefreshTTL:         7 * 24 * time.Hour,
			RefreshTokenLength: 64,
			RedisPrefix:        "authcore:session",
		},
		Password: PasswordConfig{
			Memory:        64 * 1024,
			Time:          3,
			Parallelism:   2,
			SaltLength:    16,
			KeyLength:     32,
			MinLength:     8,
			RehashOnLogin: true,
		},
		PasswordReset: PasswordResetConfig{
			TokenTTL:    time.Hour,
			TokenLength: 32,
		},
		Security: SecurityConfig{
			EnableLoginThrottle:     true,
			EnableIPThrottle:        true,
			EnableRefreshThrottle:   true,
			MaxLoginAttempts:        5,
			LoginCooldownDuration:   15 * time.Minute,
			MaxRefreshAttempts:      10,
			RefreshCooldownDuration: time.Minute,
		},
		Blacklist: BlacklistConfig{
			RedisPrefix: "blacklist:token",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if len(c.JWT.SessionSecret) < 32 {
		return errors.New("JWT.SessionSecret must be at least 32 bytes")
	}
	if len(c.JWT.OAuthAccessSecret) < 32 {
		return errors.New("JWT.OAuthAccessSecret must be at least 32 bytes")
	}
	if len(c.JWT.OAuthRefreshSecret) < 32 {
		return errors.New("JWT.OAuthRefreshSecret must be at least 32 bytes")
	}
	if c.JWT.SessionAccessTTL <= 0 {
		return errors.New("JWT.SessionAccessTTL must be positive")
	}
	if c.JWT.Issuer == "" || c.JWT.Audience == "" {
		return errors.New("JWT.Issuer and JWT.Audience are required")
	}
	if c.OAuth.AccessTTL <= 0 || c.OAuth.RefreshTTL <= 0 || c.OAuth.AuthCodeTTL <= 0 {
		return errors.New("OAuth TTLs must be positive")
	}
	if c.OAuth.RefreshTTL <= c.OAuth.AccessTTL {
		return errors.New("OAuth.RefreshTTL must exceed OAuth.AccessTTL")
	}
	if c.OAuth.AuthCodeLength < 16 || c.OAuth.RefreshTokenLength < 16 {
		return errors.New("OAuth secret lengths must be at least 16 bytes")
	}
	if c.Session.RefreshTTL <= 0 {
		return errors.New("Session.RefreshTTL must be positive")
	}
	if c.Session.RefreshTokenLength < 32 {
		return errors.New("Session.RefreshTokenLength must be at least 32 bytes")
	}
	if c.Password.MinLength < 8 {
		return errors.New("Password.MinLength must be at least 8")
	}
	if c.PasswordReset.TokenTTL <= 0 {
		return errors.New("PasswordReset.TokenTTL must be positive")
	}
	if c.PasswordReset.TokenLength < 16 {
		return errors.New("PasswordReset.TokenLength must be at least 16 bytes")
	}
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 || c.Security.LoginCooldownDuration <= 0 {
			return errors.New("login throttle requires MaxLoginAttempts and LoginCooldownDuration")
		}
	}
	if c.Security.EnableRefreshThrottle {
		if c.Security.MaxRefreshAttempts <= 0 || c.Security.RefreshCooldownDuration <= 0 {
			return errors.New("refresh throttle requires MaxRefreshAttempts and RefreshCooldownDuration")
		}
	}

	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.SessionSecret = cloneBytes(cfg.JWT.SessionSecret)
	out.JWT.OAuthAccessSecret = cloneBytes(cfg.JWT.OAuthAccessSecret)
	out.JWT.OAuthRefreshSecret = cloneBytes(cfg.JWT.OAuthRefreshSecret)
	return out
}
