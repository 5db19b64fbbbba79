package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterAndMe(t *testing.T) {
	env := newTestEngine(t)
	ctx := context.Background()

	info := env.createUser(t, "alice@example.com", "correct-horse")
	if info.ID == "" {
		t.Fatal("expected assigned user id")
	}
	if info.Email != "alice@example.com" {
		t.Fatalf("unexpected email %q", info.Email)
	}

	me, err := env.engine.Me(ctx, info.ID)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Email != info.Email {
		t.Fatalf("Me returned email %q, want %q", me.Email, info.Email)
	}

	if _, err := env.engine.Me(ctx, "u9999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Me(unknown) = %v, want ErrNotFound", err)
	}
}

func TestRegisterDuplicateConflict(t *testing.T) {
	env := newTestEngine(t)
	ctx := context.Background()

	env.createUser(t, "alice@example.com", "correct-horse")

	if _, err := env.engine.Register(ctx, "alice@example.com", "another-pass"); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("duplicate Register = %v, want ErrAccountExists", err)
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	env := newTestEngine(t)
	ctx := context.Background()

	info := env.createUser(t, "  Alice@Example.COM ", "correct-horse")
	if info.Email != "alice@example.com" {
		t.Fatalf("stored email %q, want normalized form", info.Email)
	}

	// A case variant of the same mailbox must hit the conflict.
	if _, err := env.engine.Register(ctx, "ALICE@example.com", "correct-horse"); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("variant Register = %v, want ErrAccountExists", err)
	}

	// And login with the variant must find the account.
	if _, err := env.engine.Login(ctx, "Alice@Example.com", "correct-horse"); err != nil {
		t.Fatalf("Login with case variant: %v", err)
	}
}

func TestRegisterCollectsAllFieldErrors(t *testing.T) {
	env := newTestEngine(t)

	_, err := env.engine.Register(context.Background(), "not-an-email", "short")

	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("Register = %v, want *ValidationError", err)
	}
	if len(ve.Fields) != 2 {
		t.Fatalf("got %d field errors, want 2: %v", len(ve.Fields), ve.Fields)
	}
}
