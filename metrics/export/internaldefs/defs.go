package internaldefs

import (
	authcore "github.com/veyra/authcore"
)

// CounterDef defines a public type used by authcore APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the token engine.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful login attempts."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Failed login attempts."},
	{ID: authcore.MetricLoginRateLimited, Name: "authcore_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: authcore.MetricRegisterSuccess, Name: "authcore_register_success_total", Help: "Successful registrations."},
	{ID: authcore.MetricRegisterDuplicate, Name: "authcore_register_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: authcore.MetricRefreshSuccess, Name: "authcore_refresh_success_total", Help: "Successful session refresh rotations."},
	{ID: authcore.MetricRefreshFailure, Name: "authcore_refresh_failure_total", Help: "Failed session refresh attempts."},
	{ID: authcore.MetricRefreshReuseDetected, Name: "authcore_refresh_reuse_detected_total", Help: "Detected refresh token reuses."},
	{ID: authcore.MetricRefreshRateLimited, Name: "authcore_refresh_rate_limited_total", Help: "Rate-limited refresh attempts."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Single-session logout operations."},
	{ID: authcore.MetricLogoutAll, Name: "authcore_logout_all_total", Help: "Logout-all operations."},
	{ID: authcore.MetricTokenBlacklisted, Name: "authcore_token_blacklisted_total", Help: "Access tokens added to the revocation blacklist."},
	{ID: authcore.MetricGrantSuccess, Name: "authcore_grant_success_total", Help: "Token endpoint grants issued."},
	{ID: authcore.MetricGrantFailure, Name: "authcore_grant_failure_total", Help: "Token endpoint grants rejected."},
	{ID: authcore.MetricClientAuthFailure, Name: "authcore_client_auth_failure_total", Help: "Failed OAuth client authentications."},
	{ID: authcore.MetricAuthCodeIssued, Name: "authcore_auth_code_issued_total", Help: "Authorization codes issued."},
	{ID: authcore.MetricAuthCodeReplayed, Name: "authcore_auth_code_replayed_total", Help: "Authorization code redemptions rejected as replayed or invalid."},
	{ID: authcore.MetricOAuthTokenRotated, Name: "authcore_oauth_token_rotated_total", Help: "OAuth refresh grant rotations."},
	{ID: authcore.MetricPasswordRehash, Name: "authcore_password_rehash_total", Help: "Password hashes upgraded on login."},
	{ID: authcore.MetricPasswordResetRequest, Name: "authcore_password_reset_request_total", Help: "Password reset requests."},
	{ID: authcore.MetricPasswordResetConfirmSuccess, Name: "authcore_password_reset_confirm_success_total", Help: "Successful password reset confirmations."},
	{ID: authcore.MetricPasswordResetConfirmFailure, Name: "authcore_password_reset_confirm_failure_total", Help: "Failed password reset confirmations."},
}
