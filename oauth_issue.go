package authcore

import (
	"context"
	"time"

	"github.com/veyra/authcore/jwt"
	"github.com/veyra/authcore/scope"
)

// issueOAuthAccess mints a signed OAuth access token and persists its
// server-side row. The row, not the signature, is what later revocation
// acts on.
func (e *Engine) issueOAuthAccess(ctx context.Context, clientID, userID string, scopes []string) (token, jti string, err error) {
	jti = jwt.NewTokenID()
	expiresAt := time.Now().Add(e.config.OAuth.AccessTTL)

	if err := e.oauthTokens.CreateAccessToken(ctx, OAuthAccessTokenRecord{
		JTI:       jti,
		ClientID:  clientID,
		UserID:    userID,
		Scopes:    scopes,
		ExpiresAt: expiresAt,
	}); err != nil {
		return "", "", wrapStoreErr(err)
	}

	token, err = e.jwtManager.CreateOAuthAccess(jti, userID, clientID, scope.Serialize(scopes), e.config.OAuth.AccessTTL)
	if err != nil {
		return "", "", err
	}

	return token, jti, nil
}

// issueOAuthRefresh mints a signed OAuth refresh token linked to the
// access token issued in the same exchange.
func (e *Engine) issueOAuthRefresh(ctx context.Context, clientID, accessTokenJTI string) (string, error) {
	jti := jwt.NewTokenID()
	expiresAt := time.Now().Add(e.config.OAuth.RefreshTTL)

	if err := e.oauthTokens.CreateRefreshToken(ctx, OAuthRefreshTokenRecord{
		JTI:            jti,
		AccessTokenJTI: accessTokenJTI,
		ClientID:       clientID,
		ExpiresAt:      expiresAt,
	}); err != nil {
		return "", wrapStoreErr(err)
	}

	token, err := e.jwtManager.CreateOAuthRefresh(jti, accessTokenJTI, clientID, e.config.OAuth.RefreshTTL)
	if err != nil {
		return "", err
	}

	return token, nil
}
