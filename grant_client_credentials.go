package authcore

import (
	"context"

	"github.com/veyra/authcore/scope"
)

// clientCredentialsGrant issues access tokens for machine-to-machine
// callers acting on their own behalf. No resource owner is involved and
// no refresh token is issued; the client can always authenticate again.
type clientCredentialsGrant struct {
	engine *Engine
}

func (g *clientCredentialsGrant) handle(ctx context.Context, client *ClientRecord, req TokenRequest) (*TokenResponse, error) {
	scopes := requestedScopes(req.Scope)

	accessToken, _, err := g.engine.issueOAuthAccess(ctx, client.ID, "", scopes)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		TokenType:   "Bearer",
		AccessToken: accessToken,
		ExpiresIn:   int64(g.engine.config.OAuth.AccessTTL.Seconds()),
		Scope:       scope.Serialize(scopes),
	}, nil
}
