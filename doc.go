// Package authcore is an embeddable token lifecycle and revocation
// engine. It issues and verifies first-party session tokens (login,
// rotation with theft detection, logout, revocation blacklist) and acts
// as a minimal OAuth 2.0 authorization server supporting the
// client_credentials, authorization_code (with PKCE) and refresh_token
// grants.
//
// An Engine is assembled once through the Builder with a Redis client
// and the caller's persistence stores, then shared across goroutines:
//
//	engine, err := authcore.New().
//		WithConfig(cfg).
//		WithRedis(redisClient).
//		WithUserStore(users).
//		WithClientStore(clients).
//		WithAuthCodeStore(codes).
//		WithOAuthTokenStore(tokens).
//		Build()
//
// # Architecture boundaries
//
// The engine owns token semantics: minting, verification, rotation,
// revocation, and the error taxonomy. Redis-backed state (session
// refresh tokens, the revocation blacklist, rate counters) is owned by
// the engine's own stores. Durable records (users, clients,
// authorization codes, OAuth token rows) live behind caller-supplied
// store interfaces; the engine dictates their contracts, most
// importantly the atomic claim semantics on single-use artifacts, but
// not their persistence technology.
//
// # What this package must NOT do
//
// No HTTP routing, request parsing or response rendering; the
// examples/http-minimal program shows that wiring. No email delivery:
// password-reset tokens are returned to the caller for out-of-band
// delivery. No client registration UI, token introspection endpoint or
// signing key rotation.
package authcore
