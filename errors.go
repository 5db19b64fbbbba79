package authcore

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidCredentials is an exported constant or variable used by the token engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountExists is an exported constant or variable used by the token engine.
	ErrAccountExists = errors.New("account already exists")
	// ErrNotFound is an exported constant or variable used by the token engine.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is an exported constant or variable used by the token engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenExpired is an exported constant or variable used by the token engine.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked is an exported constant or variable used by the token engine.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrRefreshInvalid is an exported constant or variable used by the token engine.
	ErrRefreshInvalid = errors.New("refresh token invalid")
	// ErrRefreshExpired is an exported constant or variable used by the token engine.
	ErrRefreshExpired = errors.New("refresh token expired")
	// ErrRefreshReuse is an exported constant or variable used by the token engine.
	ErrRefreshReuse = errors.New("refresh token reuse detected")
	// ErrResetTokenInvalid is an exported constant or variable used by the token engine.
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")
	// ErrRateLimited is an exported constant or variable used by the token engine.
	ErrRateLimited = errors.New("rate limited")
	// ErrInsufficientScope is an exported constant or variable used by the token engine.
	ErrInsufficientScope = errors.New("insufficient scope")
	// ErrStoreUnavailable is an exported constant or variable used by the token engine.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEngineClosed is an exported constant or variable used by the token engine.
	ErrEngineClosed = errors.New("engine closed")
)

// OAuth error codes emitted on the token and authorization endpoints.
const (
	OAuthErrInvalidRequest       = "invalid_request"
	OAuthErrInvalidClient        = "invalid_client"
	OAuthErrInvalidGrant         = "invalid_grant"
	OAuthErrUnauthorizedClient   = "unauthorized_client"
	OAuthErrUnsupportedGrantType = "unsupported_grant_type"
	OAuthErrInvalidScope         = "invalid_scope"
	OAuthErrAccessDenied         = "access_denied"
)

// OAuthError defines a public type used by authcore APIs.
//
// OAuthError instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OAuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Status      int    `json:"-"`
}

// Error describes the error operation and its observable behavior.
//
// Error may return an error when input validation, dependency calls, or security checks fail.
// Error does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *OAuthError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return e.Code + ": " + e.Description
}

// AsOAuthError describes the asoautherror operation and its observable behavior.
//
// AsOAuthError may return an error when input validation, dependency calls, or security checks fail.
// AsOAuthError does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func AsOAuthError(err error) (*OAuthError, bool) {
	var oe *OAuthError
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

func errInvalidRequest(description string) *OAuthError {
	return &OAuthError{Code: OAuthErrInvalidRequest, Description: description, Status: http.StatusBadRequest}
}

func errInvalidClient(description string) *OAuthError {
	return &OAuthError{Code: OAuthErrInvalidClient, Description: description, Status: http.StatusUnauthorized}
}

func errInvalidGrant(description string) *OAuthError {
	return &OAuthError{Code: OAuthErrInvalidGrant, Description: description, Status: http.StatusBadRequest}
}

func errUnauthorizedClient(description string) *OAuthError {
	return &OAuthError{Code: OAuthErrUnauthorizedClient, Description: description, Status: http.StatusBadRequest}
}

func errUnsupportedGrantType(description string) *OAuthError {
	return &OAuthError{Code: OAuthErrUnsupportedGrantType, Description: description, Status: http.StatusBadRequest}
}

func errInvalidScope(description string) *OAuthError {
	return &OAuthError{Code: OAuthErrInvalidScope, Description: description, Status: http.StatusBadRequest}
}

func errAccessDenied(description string) *OAuthError {
	return &OAuthError{Code: OAuthErrAccessDenied, Description: description, Status: http.StatusForbidden}
}

// FieldError defines a public type used by authcore APIs.
//
// FieldError instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError defines a public type used by authcore APIs.
//
// ValidationError instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Error describes the error operation and its observable behavior.
//
// Error may return an error when input validation, dependency calls, or security checks fail.
// Error does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError describes the asvalidationerror operation and its observable behavior.
//
// AsValidationError may return an error when input validation, dependency calls, or security checks fail.
// AsValidationError does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func wrapStoreErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
