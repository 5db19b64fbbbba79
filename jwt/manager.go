// Package jwt signs and verifies the three signed token classes the
// engine issues: first-party session access tokens, OAuth access tokens,
// and OAuth refresh tokens. Each class has its own HMAC secret so a token
// of one class can never verify as another.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired is returned when a session access token verified
	// correctly but its expiry has passed. Callers typically surface
	// this differently from a forged or garbled token.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed is returned for any other verification failure:
	// bad signature, wrong algorithm, wrong issuer or audience, or a
	// token that is not a JWT at all.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrNoExpiry is returned by DecodeExpiry for tokens without an exp claim.
	ErrNoExpiry = errors.New("token has no expiry claim")
)

// Config holds the signing secrets and issuance parameters.
// All three secrets are required and should be independent values.
type Config struct {
	SessionSecret      []byte
	OAuthAccessSecret  []byte
	OAuthRefreshSecret []byte

	SessionAccessTTL time.Duration
	Issuer           string
	Audience         string
	Leeway           time.Duration
}

// Manager creates and verifies signed tokens. Safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.SessionSecret) == 0 {
		return nil, errors.New("session secret required")
	}
	if len(cfg.OAuthAccessSecret) == 0 {
		return nil, errors.New("oauth access secret required")
	}
	if len(cfg.OAuthRefreshSecret) == 0 {
		return nil, errors.New("oauth refresh secret required")
	}
	if cfg.SessionAccessTTL <= 0 {
		return nil, errors.New("session access TTL must be positive")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience required")
	}

	return &Manager{config: cfg}, nil
}

// NewTokenID returns a fresh random token identifier for jti claims.
func NewTokenID() string {
	return uuid.NewString()
}

// SessionClaims is the claim set of a first-party session access token.
// Subject carries the user id.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// CreateSessionAccess signs a session access token for userID and returns
// the token with its expiry instant.
func (m *Manager) CreateSessionAccess(userID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.config.SessionAccessTTL)

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.config.Issuer,
			Audience:  jwt.ClaimStrings{m.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(m.config.SessionSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}

	return signed, expiresAt, nil
}

// ParseSessionAccess verifies a session access token. Expired tokens
// return ErrTokenExpired; every other failure returns ErrTokenMalformed.
func (m *Manager) ParseSessionAccess(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	_, err := m.sessionParser().ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.config.SessionSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	if claims.Subject == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

func (m *Manager) sessionParser() *jwt.Parser {
	return jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithLeeway(m.config.Leeway),
		jwt.WithExpirationRequired(),
	)
}

// OAuthAccessClaims is the claim set of an OAuth access token. ID carries
// the jti, Subject the resource-owner user id (empty for the client
// credentials grant), ClientID the issuing client and Scope the granted
// scopes in wire form.
type OAuthAccessClaims struct {
	ClientID string `json:"client_id"`
	Scope    string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// CreateOAuthAccess signs an OAuth access token. userID may be empty for
// tokens not bound to a resource owner.
func (m *Manager) CreateOAuthAccess(jti, userID, clientID, scopes string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := OAuthAccessClaims{
		ClientID: clientID,
		Scope:    scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    m.config.Issuer,
			Audience:  jwt.ClaimStrings{m.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(m.config.OAuthAccessSecret)
	if err != nil {
		return "", fmt.Errorf("sign oauth access token: %w", err)
	}

	return signed, nil
}

// VerifyOAuthAccess verifies an OAuth access token and reports success
// with a boolean. Verification failure carries no further detail; callers
// treat any false result as an unauthorized token.
func (m *Manager) VerifyOAuthAccess(token string) (*OAuthAccessClaims, bool) {
	claims := &OAuthAccessClaims{}

	_, err := m.oauthParser().ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.config.OAuthAccessSecret, nil
	})
	if err != nil || claims.ID == "" || claims.ClientID == "" {
		return nil, false
	}

	return claims, true
}

// OAuthRefreshClaims is the claim set of an OAuth refresh token. ID
// carries the jti and AccessTokenID the jti of the access token issued
// alongside it, so redeeming the refresh token can revoke its partner.
type OAuthRefreshClaims struct {
	AccessTokenID string `json:"access_token_id"`
	ClientID      string `json:"client_id"`
	jwt.RegisteredClaims
}

// CreateOAuthRefresh signs an OAuth refresh token linked to an access token.
func (m *Manager) CreateOAuthRefresh(jti, accessTokenID, clientID string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := OAuthRefreshClaims{
		AccessTokenID: accessTokenID,
		ClientID:      clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    m.config.Issuer,
			Audience:  jwt.ClaimStrings{m.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(m.config.OAuthRefreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign oauth refresh token: %w", err)
	}

	return signed, nil
}

// VerifyOAuthRefresh verifies an OAuth refresh token, reporting success
// with a boolean like VerifyOAuthAccess.
func (m *Manager) VerifyOAuthRefresh(token string) (*OAuthRefreshClaims, bool) {
	claims := &OAuthRefreshClaims{}

	_, err := m.oauthParser().ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.config.OAuthRefreshSecret, nil
	})
	if err != nil || claims.ID == "" || claims.AccessTokenID == "" || claims.ClientID == "" {
		return nil, false
	}

	return claims, true
}

func (m *Manager) oauthParser() *jwt.Parser {
	return jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithLeeway(m.config.Leeway),
		jwt.WithExpirationRequired(),
	)
}

// DecodeExpiry extracts the exp claim without verifying the signature.
// Used when sizing blacklist TTLs, where the token may belong to any
// class and its authenticity is irrelevant.
func DecodeExpiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}

	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil {
		return time.Time{}, ErrTokenMalformed
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}

	return claims.ExpiresAt.Time, nil
}
