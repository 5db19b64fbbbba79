// Package scope validates and manipulates OAuth scope sets against the
// fixed allow-list this authorization server grants. Scope strings on the
// wire are space-delimited per RFC 6749.
package scope

import "strings"

// The scopes this server is willing to grant. Anything outside this list
// is silently dropped during validation rather than rejected, so a client
// asking for more than it should simply receives less.
const (
	Read          = "read"
	Write         = "write"
	Profile       = "profile"
	Email         = "email"
	OfflineAccess = "offline_access"
)

var allowed = map[string]struct{}{
	Read:          {},
	Write:         {},
	Profile:       {},
	Email:         {},
	OfflineAccess: {},
}

// Parse splits a space-delimited scope string into individual scopes.
// Empty input yields a nil slice. Repeated separators are tolerated.
func Parse(raw string) []string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Serialize joins scopes back into the space-delimited wire form.
func Serialize(scopes []string) string {
	return strings.Join(scopes, " ")
}

// Validate filters requested down to the scopes this server grants,
// preserving request order and dropping duplicates. Unknown scopes are
// discarded without error.
func Validate(requested []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(requested))

	for _, s := range requested {
		if _, ok := allowed[s]; !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}

// Allowed reports whether s is a grantable scope.
func Allowed(s string) bool {
	_, ok := allowed[s]
	return ok
}

// Has reports whether scopes contains target.
func Has(scopes []string, target string) bool {
	for _, s := range scopes {
		if s == target {
			return true
		}
	}
	return false
}

// HasAll reports whether scopes contains every scope in required.
func HasAll(scopes []string, required []string) bool {
	for _, r := range required {
		if !Has(scopes, r) {
			return false
		}
	}
	return true
}

// Intersect returns the scopes present in both sets, preserving the order
// of requested. Used by the refresh grant to narrow, never widen, the
// originally granted scope set.
func Intersect(requested, granted []string) []string {
	var out []string
	for _, s := range requested {
		if Has(granted, s) && !Has(out, s) {
			out = append(out, s)
		}
	}
	return out
}
