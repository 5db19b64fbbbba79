package authcore

import (
	"context"
	"time"

	"github.com/veyra/authcore/pkce"
	"github.com/veyra/authcore/secrets"
)

// HandleAuthorizationRequest describes the handleauthorizationrequest operation and its observable behavior.
//
// HandleAuthorizationRequest may return an error when input validation, dependency calls, or security checks fail.
// HandleAuthorizationRequest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// This is the authorization endpoint for an already authenticated and
// consenting resource owner: it validates the request and issues a
// short-lived single-use authorization code bound to the client, the
// redirect URI, the granted scopes and the PKCE challenge. Only the
// code's digest is stored.
func (e *Engine) HandleAuthorizationRequest(ctx context.Context, userID string, req AuthorizeRequest) (*AuthorizeResult, error) {
	if userID == "" {
		return nil, errAccessDenied("resource owner authentication required")
	}

	if req.ResponseType != "code" {
		return nil, errInvalidRequest("response_type must be code")
	}

	if req.ClientID == "" {
		return nil, errInvalidRequest("client_id is required")
	}

	client, err := e.clients.GetByID(ctx, req.ClientID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if client == nil || !client.Active {
		return nil, errInvalidClient("client authentication failed")
	}

	if !client.AllowsGrant(GrantAuthorizationCode) {
		return nil, errUnauthorizedClient("client is not authorized for the authorization code grant")
	}

	if req.RedirectURI == "" {
		return nil, errInvalidRequest("redirect_uri is required")
	}
	if !client.AllowsRedirect(req.RedirectURI) {
		return nil, errInvalidRequest("redirect_uri is not registered for this client")
	}

	challenge := req.CodeChallenge
	method := req.CodeChallengeMethod

	// Public clients cannot keep a secret, so PKCE is their only proof
	// of possession at redemption time. Mandatory for them.
	if !client.Confidential && challenge == "" {
		return nil, errInvalidRequest("code_challenge is required for public clients")
	}

	if challenge != "" {
		if method == "" {
			method = pkce.MethodPlain
		}
		if !pkce.ValidMethod(method) {
			return nil, errInvalidRequest("code_challenge_method must be plain or S256")
		}
	}

	scopes := requestedScopes(req.Scope)

	code, err := secrets.Generate(e.config.OAuth.AuthCodeLength)
	if err != nil {
		return nil, err
	}

	if err := e.authCodes.Create(ctx, AuthCodeRecord{
		CodeHash:            secrets.Hash(code),
		ClientID:            client.ID,
		UserID:              userID,
		RedirectURI:         req.RedirectURI,
		Scopes:              scopes,
		CodeChallenge:       challenge,
		CodeChallengeMethod: method,
		ExpiresAt:           time.Now().Add(e.config.OAuth.AuthCodeTTL),
	}); err != nil {
		return nil, wrapStoreErr(err)
	}

	e.metricInc(MetricAuthCodeIssued)
	e.emitAudit(ctx, auditEventAuthCodeIssued, true, userID, client.ID, nil, nil)

	return &AuthorizeResult{
		Code:        code,
		State:       req.State,
		RedirectURI: req.RedirectURI,
	}, nil
}
