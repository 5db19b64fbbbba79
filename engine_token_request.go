package authcore

import (
	"context"

	"github.com/veyra/authcore/scope"
)

// Grant type identifiers accepted on the token endpoint.
const (
	// GrantClientCredentials is an exported constant or variable used by the token engine.
	GrantClientCredentials = "client_credentials"
	// GrantAuthorizationCode is an exported constant or variable used by the token engine.
	GrantAuthorizationCode = "authorization_code"
	// GrantRefreshToken is an exported constant or variable used by the token engine.
	GrantRefreshToken = "refresh_token"
)

// grantHandler is one strategy in the token endpoint's dispatch table.
// Handlers receive an already authenticated client; everything after
// client authentication is grant-specific.
type grantHandler interface {
	handle(ctx context.Context, client *ClientRecord, req TokenRequest) (*TokenResponse, error)
}

// HandleTokenRequest describes the handletokenrequest operation and its observable behavior.
//
// HandleTokenRequest may return an error when input validation, dependency calls, or security checks fail.
// HandleTokenRequest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// This is the token endpoint: it resolves the grant strategy,
// authenticates the client, and delegates. Failures come back as
// *OAuthError values carrying the RFC 6749 error code and HTTP status.
func (e *Engine) HandleTokenRequest(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	if req.GrantType == "" {
		return nil, errInvalidRequest("grant_type is required")
	}

	handler, ok := e.grants[req.GrantType]
	if !ok {
		return nil, errUnsupportedGrantType("unsupported grant_type: " + req.GrantType)
	}

	client, err := e.authenticateClient(ctx, req)
	if err != nil {
		e.metricInc(MetricClientAuthFailure)
		e.emitAudit(ctx, auditEventClientAuthFailure, false, "", req.ClientID, err, nil)
		return nil, err
	}

	if !client.AllowsGrant(req.GrantType) {
		e.metricInc(MetricGrantFailure)
		e.emitAudit(ctx, auditEventGrantRejected, false, "", client.ID, nil, map[string]string{
			"grant_type": req.GrantType,
			"reason":     "grant not allowed for client",
		})
		return nil, errUnauthorizedClient("client is not authorized for grant_type " + req.GrantType)
	}

	resp, err := handler.handle(ctx, client, req)
	if err != nil {
		e.metricInc(MetricGrantFailure)
		e.emitAudit(ctx, auditEventGrantRejected, false, "", client.ID, err, map[string]string{
			"grant_type": req.GrantType,
		})
		return nil, err
	}

	e.metricInc(MetricGrantSuccess)
	e.emitAudit(ctx, auditEventGrantIssued, true, "", client.ID, nil, map[string]string{
		"grant_type": req.GrantType,
		"scope":      resp.Scope,
	})

	return resp, nil
}

// authenticateClient resolves and authenticates the requesting client.
// Unknown, disabled and badly authenticated clients are indistinguishable
// from the outside: all three produce invalid_client.
func (e *Engine) authenticateClient(ctx context.Context, req TokenRequest) (*ClientRecord, error) {
	if req.ClientID == "" {
		return nil, errInvalidClient("client authentication required")
	}

	client, err := e.clients.GetByID(ctx, req.ClientID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if client == nil || !client.Active {
		return nil, errInvalidClient("client authentication failed")
	}

	if client.Confidential {
		if req.ClientSecret == "" {
			return nil, errInvalidClient("client authentication failed")
		}
		match, err := e.passwordHash.Compare(req.ClientSecret, client.SecretHash)
		if err != nil || !match {
			return nil, errInvalidClient("client authentication failed")
		}
	}

	return client, nil
}

// requestedScopes parses and filters the request's scope parameter down
// to grantable scopes. Unknown scopes are dropped, not rejected.
func requestedScopes(raw string) []string {
	return scope.Validate(scope.Parse(raw))
}
