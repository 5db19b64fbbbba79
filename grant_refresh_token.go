package authcore

import (
	"context"

	"github.com/veyra/authcore/scope"
)

// refreshTokenGrant rotates OAuth token pairs. The presented refresh
// token must verify cryptographically AND have a live server-side row;
// redemption claims the row atomically, revokes the linked access token,
// and mints a replacement pair. Requested scopes may narrow the original
// grant but never widen it.
type refreshTokenGrant struct {
	engine *Engine
}

func (g *refreshTokenGrant) handle(ctx context.Context, client *ClientRecord, req TokenRequest) (*TokenResponse, error) {
	if req.RefreshToken == "" {
		return nil, errInvalidRequest("refresh_token is required")
	}

	claims, ok := g.engine.jwtManager.VerifyOAuthRefresh(req.RefreshToken)
	if !ok {
		return nil, errInvalidGrant("refresh token is invalid")
	}

	stored, err := g.engine.oauthTokens.GetValidRefreshToken(ctx, claims.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if stored == nil {
		return nil, errInvalidGrant("refresh token is revoked or expired")
	}
	if stored.ClientID != client.ID {
		return nil, errInvalidGrant("refresh token was issued to another client")
	}

	// The old access token's row carries the originally granted scopes
	// and the resource owner. Fetched without a validity predicate: the
	// access token may have expired long ago and that is fine.
	oldAccess, err := g.engine.oauthTokens.GetAccessToken(ctx, stored.AccessTokenJTI)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if oldAccess == nil {
		return nil, errInvalidGrant("refresh token is orphaned")
	}

	claimed, err := g.engine.oauthTokens.ClaimRefreshToken(ctx, claims.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if !claimed {
		return nil, errInvalidGrant("refresh token is revoked or expired")
	}

	if err := g.engine.oauthTokens.RevokeAccessToken(ctx, stored.AccessTokenJTI); err != nil {
		return nil, wrapStoreErr(err)
	}

	scopes := oldAccess.Scopes
	if req.Scope != "" {
		scopes = scope.Intersect(requestedScopes(req.Scope), oldAccess.Scopes)
		if len(scopes) == 0 {
			return nil, errInvalidScope("requested scope exceeds the original grant")
		}
	}

	accessToken, accessJTI, err := g.engine.issueOAuthAccess(ctx, client.ID, oldAccess.UserID, scopes)
	if err != nil {
		return nil, err
	}

	refreshToken, err := g.engine.issueOAuthRefresh(ctx, client.ID, accessJTI)
	if err != nil {
		return nil, err
	}

	g.engine.metricInc(MetricOAuthTokenRotated)
	g.engine.emitAudit(ctx, auditEventOAuthTokenRotated, true, oldAccess.UserID, client.ID, nil, nil)

	return &TokenResponse{
		TokenType:    "Bearer",
		AccessToken:  accessToken,
		ExpiresIn:    int64(g.engine.config.OAuth.AccessTTL.Seconds()),
		RefreshToken: refreshToken,
		Scope:        scope.Serialize(scopes),
	}, nil
}
