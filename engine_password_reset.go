package authcore

import (
	"context"
	"log"
	"time"

	"github.com/veyra/authcore/secrets"
)

// ForgotPassword describes the forgotpassword operation and its observable behavior.
//
// ForgotPassword may return an error when input validation, dependency calls, or security checks fail.
// ForgotPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Issues an opaque reset token for the account and returns it for
// out-of-band delivery. Unknown emails return an empty token with no
// error so the endpoint cannot be used to enumerate accounts. Only the
// token's hash is stored; a database leak does not leak usable tokens.
func (e *Engine) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)

	user, err := e.users.GetByEmail(ctx, email)
	if err != nil {
		return "", wrapStoreErr(err)
	}
	if user == nil {
		return "", nil
	}

	token, err := secrets.Generate(e.config.PasswordReset.TokenLength)
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(e.config.PasswordReset.TokenTTL)
	if err := e.users.SetResetToken(ctx, user.ID, secrets.Hash(token), expiresAt); err != nil {
		return "", wrapStoreErr(err)
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, user.ID, "", nil, nil)

	return token, nil
}

// ResetPassword describes the resetpassword operation and its observable behavior.
//
// ResetPassword may return an error when input validation, dependency calls, or security checks fail.
// ResetPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// A completed reset revokes every session refresh token the user holds;
// a stolen session must not survive a password change.
func (e *Engine) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrResetTokenInvalid
	}
	if len(newPassword) < e.config.Password.MinLength {
		return &ValidationError{Fields: []FieldError{
			{Field: "password", Message: "too short"},
		}}
	}

	user, err := e.users.GetByResetTokenHash(ctx, secrets.Hash(token))
	if err != nil {
		return wrapStoreErr(err)
	}
	if user == nil {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", "", ErrResetTokenInvalid, nil)
		return ErrResetTokenInvalid
	}

	if time.Now().After(user.ResetTokenExpires) {
		if err := e.users.ClearResetToken(ctx, user.ID); err != nil {
			log.Print("authcore: clear expired reset token failed: ", err)
		}
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, user.ID, "", ErrResetTokenInvalid, nil)
		return ErrResetTokenInvalid
	}

	hash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := e.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return wrapStoreErr(err)
	}
	if err := e.users.ClearResetToken(ctx, user.ID); err != nil {
		return wrapStoreErr(err)
	}

	if _, err := e.sessionTokens.RevokeAllForUser(ctx, user.ID); err != nil {
		return wrapStoreErr(err)
	}

	e.metricInc(MetricPasswordResetConfirmSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, user.ID, "", nil, nil)

	return nil
}
