package authcore

import (
	"context"

	"github.com/veyra/authcore/pkce"
	"github.com/veyra/authcore/scope"
	"github.com/veyra/authcore/secrets"
)

// authorizationCodeGrant redeems single-use authorization codes for
// token pairs. Codes are looked up by digest, validated against the
// requesting client, redirect URI and PKCE proof, and only then claimed;
// the claim is the atomic step that guarantees one redemption per code.
type authorizationCodeGrant struct {
	engine *Engine
}

func (g *authorizationCodeGrant) handle(ctx context.Context, client *ClientRecord, req TokenRequest) (*TokenResponse, error) {
	if req.Code == "" {
		return nil, errInvalidRequest("code is required")
	}
	if req.RedirectURI == "" {
		return nil, errInvalidRequest("redirect_uri is required")
	}

	codeHash := secrets.Hash(req.Code)

	rec, err := g.engine.authCodes.GetValidByCodeHash(ctx, codeHash)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if rec == nil {
		g.engine.metricInc(MetricAuthCodeReplayed)
		g.engine.emitAudit(ctx, auditEventAuthCodeReplayed, false, "", client.ID, nil, nil)
		return nil, errInvalidGrant("authorization code is invalid or expired")
	}

	if rec.ClientID != client.ID {
		return nil, errInvalidGrant("authorization code was issued to another client")
	}
	if rec.RedirectURI != req.RedirectURI {
		return nil, errInvalidGrant("redirect_uri does not match the authorization request")
	}

	if rec.CodeChallenge != "" {
		if req.CodeVerifier == "" {
			return nil, errInvalidRequest("code_verifier is required")
		}
		if !pkce.VerifyChallenge(req.CodeVerifier, rec.CodeChallenge, rec.CodeChallengeMethod) {
			return nil, errInvalidGrant("code_verifier does not match code_challenge")
		}
	}

	claimed, err := g.engine.authCodes.Claim(ctx, codeHash)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if !claimed {
		// Lost a concurrent redemption race, or the code was replayed
		// between lookup and claim. Same answer either way.
		g.engine.metricInc(MetricAuthCodeReplayed)
		g.engine.emitAudit(ctx, auditEventAuthCodeReplayed, false, rec.UserID, client.ID, nil, nil)
		return nil, errInvalidGrant("authorization code is invalid or expired")
	}

	accessToken, accessJTI, err := g.engine.issueOAuthAccess(ctx, client.ID, rec.UserID, rec.Scopes)
	if err != nil {
		return nil, err
	}

	resp := &TokenResponse{
		TokenType:   "Bearer",
		AccessToken: accessToken,
		ExpiresIn:   int64(g.engine.config.OAuth.AccessTTL.Seconds()),
		Scope:       scope.Serialize(rec.Scopes),
	}

	// offline_access is the opt-in for long-lived access: without it the
	// client gets no refresh token.
	if scope.Has(rec.Scopes, scope.OfflineAccess) {
		refreshToken, err := g.engine.issueOAuthRefresh(ctx, client.ID, accessJTI)
		if err != nil {
			return nil, err
		}
		resp.RefreshToken = refreshToken
	}

	return resp, nil
}
