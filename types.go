package authcore

import (
	"context"
	"time"
)

// UserRecord defines a public type used by authcore APIs.
//
// UserRecord instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type UserRecord struct {
	ID           string
	Email        string
	PasswordHash string

	// ResetTokenHash holds the SHA-256 digest of an outstanding
	// password-reset token; empty when none is outstanding.
	ResetTokenHash    string
	ResetTokenExpires time.Time

	CreatedAt time.Time
}

// ClientRecord defines a public type used by authcore APIs.
//
// ClientRecord instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ClientRecord struct {
	ID string

	// SecretHash is the Argon2id hash of the client secret; empty for
	// public clients, which authenticate by identifier alone and must
	// use PKCE on the authorization code grant.
	SecretHash string

	RedirectURIs []string
	GrantTypes   []string
	Confidential bool
	Active       bool
}

// AllowsGrant describes the allowsgrant operation and its observable behavior.
//
// AllowsGrant may return an error when input validation, dependency calls, or security checks fail.
// AllowsGrant does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *ClientRecord) AllowsGrant(grantType string) bool {
	for _, g := range c.GrantTypes {
		if g == grantType {
			return true
		}
	}
	return false
}

// AllowsRedirect describes the allowsredirect operation and its observable behavior.
//
// AllowsRedirect may return an error when input validation, dependency calls, or security checks fail.
// AllowsRedirect does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *ClientRecord) AllowsRedirect(uri string) bool {
	for _, r := range c.RedirectURIs {
		if r == uri {
			return true
		}
	}
	return false
}

// AuthCodeRecord defines a public type used by authcore APIs.
//
// AuthCodeRecord instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// CodeHash is the SHA-256 digest of the issued code; the cleartext code
// is never stored. RevokedAt zero means the code is still redeemable.
type AuthCodeRecord struct {
	CodeHash            string
	ClientID            string
	UserID              string
	RedirectURI         string
	Scopes              []string
	CodeChallenge       string
	CodeChallengeMethod string
	ExpiresAt           time.Time
	RevokedAt           time.Time
}

// OAuthAccessTokenRecord defines a public type used by authcore APIs.
//
// OAuthAccessTokenRecord instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// Records are keyed by the token's jti claim. UserID is empty for tokens
// issued under the client credentials grant. RevokedAt zero means live.
type OAuthAccessTokenRecord struct {
	JTI       string
	ClientID  string
	UserID    string
	Scopes    []string
	ExpiresAt time.Time
	RevokedAt time.Time
}

// OAuthRefreshTokenRecord defines a public type used by authcore APIs.
//
// OAuthRefreshTokenRecord instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// AccessTokenJTI links the refresh token to the access token minted in
// the same grant, so redeeming it can revoke the pair together.
type OAuthRefreshTokenRecord struct {
	JTI            string
	AccessTokenJTI string
	ClientID       string
	ExpiresAt      time.Time
	RevokedAt      time.Time
}

// UserStore defines a public type used by authcore APIs.
//
// UserStore instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// Implementations are supplied by the caller and back onto whatever
// persistence the application uses. Lookups return (nil, nil) when no
// matching row exists; errors are reserved for store failures.
type UserStore interface {
	Create(ctx context.Context, user UserRecord) (*UserRecord, error)
	GetByID(ctx context.Context, id string) (*UserRecord, error)
	GetByEmail(ctx context.Context, email string) (*UserRecord, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*UserRecord, error)
	ClearResetToken(ctx context.Context, id string) error
}

// ClientStore defines a public type used by authcore APIs.
//
// ClientStore instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ClientStore interface {
	GetByID(ctx context.Context, id string) (*ClientRecord, error)
}

// AuthCodeStore defines a public type used by authcore APIs.
//
// AuthCodeStore instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// Claim is the single-use gate for code redemption: it revokes the code
// only if it is still live and unexpired, and reports whether this caller
// performed the revocation. Two concurrent redemptions of one code must
// observe at most one true result between them.
type AuthCodeStore interface {
	Create(ctx context.Context, code AuthCodeRecord) error
	GetValidByCodeHash(ctx context.Context, codeHash string) (*AuthCodeRecord, error)
	Claim(ctx context.Context, codeHash string) (bool, error)
}

// OAuthTokenStore defines a public type used by authcore APIs.
//
// OAuthTokenStore instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// ClaimRefreshToken carries the same atomicity contract as
// AuthCodeStore.Claim: conditional revocation of a live row, at most one
// winner under concurrency.
type OAuthTokenStore interface {
	CreateAccessToken(ctx context.Context, token OAuthAccessTokenRecord) error
	GetAccessToken(ctx context.Context, jti string) (*OAuthAccessTokenRecord, error)
	GetValidAccessToken(ctx context.Context, jti string) (*OAuthAccessTokenRecord, error)
	RevokeAccessToken(ctx context.Context, jti string) error

	CreateRefreshToken(ctx context.Context, token OAuthRefreshTokenRecord) error
	GetValidRefreshToken(ctx context.Context, jti string) (*OAuthRefreshTokenRecord, error)
	ClaimRefreshToken(ctx context.Context, jti string) (bool, error)

	RevokeAllForUser(ctx context.Context, userID string) error
}

// TokenRequest defines a public type used by authcore APIs.
//
// TokenRequest instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// Fields mirror the token endpoint's form parameters; unused fields stay
// empty for grants that do not take them.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Scope        string
	Code         string
	RedirectURI  string
	CodeVerifier string
	RefreshToken string
}

// TokenResponse defines a public type used by authcore APIs.
//
// TokenResponse instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenResponse struct {
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// AuthorizeRequest defines a public type used by authcore APIs.
//
// AuthorizeRequest instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// AuthorizeResult defines a public type used by authcore APIs.
//
// AuthorizeResult instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuthorizeResult struct {
	Code        string
	State       string
	RedirectURI string
}

// LoginResult defines a public type used by authcore APIs.
//
// LoginResult instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LoginResult struct {
	TokenType    string
	AccessToken  string
	ExpiresAt    time.Time
	RefreshToken string
}

// SessionAuth defines a public type used by authcore APIs.
//
// SessionAuth instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionAuth struct {
	UserID    string
	ExpiresAt time.Time
}

// OAuthAuth defines a public type used by authcore APIs.
//
// OAuthAuth instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OAuthAuth struct {
	ClientID  string
	UserID    string
	Scopes    []string
	ExpiresAt time.Time
}

// UserInfo defines a public type used by authcore APIs.
//
// UserInfo instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type UserInfo struct {
	ID        string
	Email     string
	CreatedAt time.Time
}
