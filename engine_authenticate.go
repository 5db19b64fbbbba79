package authcore

import (
	"context"
	"errors"

	"github.com/veyra/authcore/jwt"
)

// Authenticate describes the authenticate operation and its observable behavior.
//
// Authenticate may return an error when input validation, dependency calls, or security checks fail.
// Authenticate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// A session access token authenticates only if its signature, issuer,
// audience and expiry all verify AND it is not on the revocation
// blacklist. Expired tokens return ErrTokenExpired, blacklisted ones
// ErrTokenRevoked, everything else ErrUnauthorized.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*SessionAuth, error) {
	if accessToken == "" {
		return nil, ErrUnauthorized
	}

	claims, err := e.jwtManager.ParseSessionAccess(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrUnauthorized
	}

	revoked, err := e.blacklist.IsBlacklisted(ctx, accessToken)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return &SessionAuth{
		UserID:    claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// AuthenticateOAuth describes the authenticateoauth operation and its observable behavior.
//
// AuthenticateOAuth may return an error when input validation, dependency calls, or security checks fail.
// AuthenticateOAuth does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// An OAuth access token authenticates only if the JWT verifies AND its
// server-side row is live: present, unexpired and unrevoked. Revoking the
// row is therefore sufficient to kill the token ahead of its expiry.
func (e *Engine) AuthenticateOAuth(ctx context.Context, accessToken string) (*OAuthAuth, error) {
	if accessToken == "" {
		return nil, ErrUnauthorized
	}

	claims, ok := e.jwtManager.VerifyOAuthAccess(accessToken)
	if !ok {
		return nil, ErrUnauthorized
	}

	row, err := e.oauthTokens.GetValidAccessToken(ctx, claims.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if row == nil {
		return nil, ErrUnauthorized
	}

	return &OAuthAuth{
		ClientID:  row.ClientID,
		UserID:    row.UserID,
		Scopes:    row.Scopes,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

// RevokeUserOAuthTokens describes the revokeuseroauthtokens operation and its observable behavior.
//
// RevokeUserOAuthTokens may return an error when input validation, dependency calls, or security checks fail.
// RevokeUserOAuthTokens does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RevokeUserOAuthTokens(ctx context.Context, userID string) error {
	if err := e.oauthTokens.RevokeAllForUser(ctx, userID); err != nil {
		return wrapStoreErr(err)
	}

	e.emitAudit(ctx, auditEventOAuthTokensRevoked, true, userID, "", nil, nil)

	return nil
}
