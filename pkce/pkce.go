// Package pkce implements Proof Key for Code Exchange verification for
// the authorization code grant (RFC 7636). Clients send a code_challenge
// when requesting an authorization code and must later present the
// matching code_verifier when redeeming it.
package pkce

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// Supported code_challenge_method values.
const (
	MethodPlain = "plain"
	MethodS256  = "S256"
)

// ValidMethod reports whether method is a supported challenge method.
func ValidMethod(method string) bool {
	return method == MethodPlain || method == MethodS256
}

// Challenge derives the code_challenge for a verifier under the given
// method. For S256 this is base64url(sha256(verifier)) without padding,
// for plain the verifier itself. Unknown methods return an empty string.
func Challenge(verifier, method string) string {
	switch method {
	case MethodS256:
		sum := sha256.Sum256([]byte(verifier))
		return base64.RawURLEncoding.EncodeToString(sum[:])
	case MethodPlain:
		return verifier
	default:
		return ""
	}
}

// VerifyChallenge reports whether verifier satisfies the stored challenge
// under the given method. Comparison is constant-time so a failed
// verification does not leak how much of the challenge matched.
func VerifyChallenge(verifier, challenge, method string) bool {
	if verifier == "" || challenge == "" {
		return false
	}

	derived := Challenge(verifier, method)
	if derived == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(derived), []byte(challenge)) == 1
}
