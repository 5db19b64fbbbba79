package blacklist

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authjwt "github.com/veyra/authcore/jwt"
)

func testStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client, ""), mr
}

func testToken(t *testing.T, ttl time.Duration) string {
	t.Helper()

	m, err := authjwt.NewManager(authjwt.Config{
		SessionSecret:      []byte("session-secret-0123456789abcdef0000"),
		OAuthAccessSecret:  []byte("oauth-access-secret-0123456789abcdef"),
		OAuthRefreshSecret: []byte("oauth-refresh-secret-0123456789abcde"),
		SessionAccessTTL:   ttl,
		Issuer:             "test-issuer",
		Audience:           "test-audience",
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	token, _, err := m.CreateSessionAccess("u0001")
	if err != nil {
		t.Fatalf("CreateSessionAccess: %v", err)
	}
	return token
}

func TestAddAndExpiry(t *testing.T) {
	store, mr := testStore(t)
	ctx := context.Background()

	token := testToken(t, time.Hour)

	if err := store.Add(ctx, token); err != nil {
		t.Fatalf("Add: %v", err)
	}

	listed, err := store.IsBlacklisted(ctx, token)
	if err != nil {
		t.Fatalf("IsBlacklisted: %v", err)
	}
	if !listed {
		t.Fatal("token not listed after Add")
	}

	// The entry must not outlive the token.
	mr.FastForward(2 * time.Hour)

	listed, err = store.IsBlacklisted(ctx, token)
	if err != nil {
		t.Fatalf("IsBlacklisted: %v", err)
	}
	if listed {
		t.Fatal("entry survived past the token expiry")
	}
}

func TestAddExpiredTokenIsNoOp(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	token := testToken(t, time.Nanosecond)
	time.Sleep(5 * time.Millisecond)

	if err := store.Add(ctx, token); err != nil {
		t.Fatalf("Add: %v", err)
	}

	listed, err := store.IsBlacklisted(ctx, token)
	if err != nil {
		t.Fatalf("IsBlacklisted: %v", err)
	}
	if listed {
		t.Fatal("already-expired token was listed")
	}
}

func TestAddRejectsMalformedToken(t *testing.T) {
	store, _ := testStore(t)

	if err := store.Add(context.Background(), "not-a-jwt"); err == nil {
		t.Fatal("malformed token accepted")
	}
}

func TestRemoveAndCount(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	first := testToken(t, time.Hour)
	second := testToken(t, time.Hour)

	for _, token := range []string{first, second} {
		if err := store.Add(ctx, token); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	if n, err := store.Count(ctx); err != nil || n != 2 {
		t.Fatalf("Count = %d, %v, want 2", n, err)
	}

	if err := store.Remove(ctx, first); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	// Removing again is idempotent.
	if err := store.Remove(ctx, first); err != nil {
		t.Fatalf("Remove (again): %v", err)
	}

	if n, err := store.Count(ctx); err != nil || n != 1 {
		t.Fatalf("Count = %d, %v, want 1", n, err)
	}

	listed, err := store.IsBlacklisted(ctx, first)
	if err != nil {
		t.Fatalf("IsBlacklisted: %v", err)
	}
	if listed {
		t.Fatal("removed token still listed")
	}
}
