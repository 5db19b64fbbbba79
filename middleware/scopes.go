package middleware

import (
	"net/http"

	"github.com/veyra/authcore/scope"
)

// RequireScopes rejects OAuth requests whose token was not granted every
// listed scope. Must run inside GuardOAuth; a request with no OAuth
// identity is a 401, a request missing scopes a 403 with the
// insufficient_scope challenge.
func RequireScopes(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth, ok := OAuthFromRequest(r)
			if !ok {
				unauthorized(w)
				return
			}

			if !scope.HasAll(auth.Scopes, required) {
				w.Header().Set("WWW-Authenticate",
					`Bearer error="insufficient_scope", scope="`+scope.Serialize(required)+`"`)
				http.Error(w, "insufficient scope", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
