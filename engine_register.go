package authcore

import (
	"context"
	"net/mail"
	"strings"
	"time"
)

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
// The email is normalized (trimmed, lowercased) before the uniqueness
// check so the same mailbox cannot register twice under case variants.
func (e *Engine) Register(ctx context.Context, email, plainPassword string) (*UserInfo, error) {
	email = normalizeEmail(email)

	if err := validateRegistration(email, plainPassword, e.config.Password.MinLength); err != nil {
		return nil, err
	}

	existing, err := e.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if existing != nil {
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", "", ErrAccountExists, nil)
		return nil, ErrAccountExists
	}

	hash, err := e.passwordHash.Hash(plainPassword)
	if err != nil {
		return nil, err
	}

	created, err := e.users.Create(ctx, UserRecord{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, created.ID, "", nil, nil)

	return &UserInfo{
		ID:        created.ID,
		Email:     created.Email,
		CreatedAt: created.CreatedAt,
	}, nil
}

// Me describes the me operation and its observable behavior.
//
// Me may return an error when input validation, dependency calls, or security checks fail.
// Me does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Me(ctx context.Context, userID string) (*UserInfo, error) {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	return &UserInfo{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(email, plainPassword string, minPasswordLen int) error {
	var fields []FieldError

	if email == "" {
		fields = append(fields, FieldError{Field: "email", Message: "required"})
	} else if _, err := mail.ParseAddress(email); err != nil {
		fields = append(fields, FieldError{Field: "email", Message: "invalid email address"})
	}

	if plainPassword == "" {
		fields = append(fields, FieldError{Field: "password", Message: "required"})
	} else if len(plainPassword) < minPasswordLen {
		fields = append(fields, FieldError{Field: "password", Message: "too short"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	return nil
}
