// Package middleware provides net/http middleware over the engine's
// token verification: session bearer auth, OAuth bearer auth and scope
// enforcement. Handlers read the verified identity from the request
// context.
package middleware

import (
	"context"
	"net/http"
	"strings"

	authcore "github.com/veyra/authcore"
)

type contextKey uint8

const (
	ctxKeySessionAuth contextKey = iota
	ctxKeyOAuthAuth
)

// Guard authenticates requests with a session access token. The token
// must parse, be unexpired and not be blacklisted; everything else gets
// a 401 before next is reached.
func Guard(engine *authcore.Engine, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			unauthorized(w)
			return
		}

		auth, err := engine.Authenticate(r.Context(), token)
		if err != nil {
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeySessionAuth, auth)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFromRequest returns the session identity stored by Guard.
func SessionFromRequest(r *http.Request) (*authcore.SessionAuth, bool) {
	auth, ok := r.Context().Value(ctxKeySessionAuth).(*authcore.SessionAuth)
	return auth, ok
}

// GuardOAuth authenticates requests with an OAuth access token. The
// token must verify cryptographically and have a live server-side row.
func GuardOAuth(engine *authcore.Engine, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			unauthorized(w)
			return
		}

		auth, err := engine.AuthenticateOAuth(r.Context(), token)
		if err != nil {
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyOAuthAuth, auth)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OAuthFromRequest returns the OAuth identity stored by GuardOAuth.
func OAuthFromRequest(r *http.Request) (*authcore.OAuthAuth, bool) {
	auth, ok := r.Context().Value(ctxKeyOAuthAuth).(*authcore.OAuthAuth)
	return auth, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
