package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client, cfg), mr
}

func TestLoginBudget(t *testing.T) {
	limiter, _ := testLimiter(t, Config{
		EnableLoginThrottle:   true,
		MaxLoginAttempts:      3,
		LoginCooldownDuration: 15 * time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := limiter.CheckLogin(ctx, "alice@example.com", ""); err != nil {
			t.Fatalf("attempt %d: CheckLogin: %v", i, err)
		}
		if err := limiter.IncrementLogin(ctx, "alice@example.com", ""); err != nil {
			t.Fatalf("attempt %d: IncrementLogin: %v", i, err)
		}
	}

	if err := limiter.CheckLogin(ctx, "alice@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("exhausted budget: %v, want ErrRateLimited", err)
	}

	// Another identifier is unaffected.
	if err := limiter.CheckLogin(ctx, "bob@example.com", ""); err != nil {
		t.Fatalf("other identifier: %v", err)
	}
}

func TestLoginBudgetResets(t *testing.T) {
	limiter, _ := testLimiter(t, Config{
		EnableLoginThrottle:   true,
		EnableIPThrottle:      true,
		MaxLoginAttempts:      2,
		LoginCooldownDuration: 15 * time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := limiter.IncrementLogin(ctx, "alice@example.com", "203.0.113.7"); err != nil {
			t.Fatalf("IncrementLogin: %v", err)
		}
	}
	if err := limiter.CheckLogin(ctx, "alice@example.com", "203.0.113.7"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("exhausted budget: %v, want ErrRateLimited", err)
	}

	if err := limiter.ResetLogin(ctx, "alice@example.com", "203.0.113.7"); err != nil {
		t.Fatalf("ResetLogin: %v", err)
	}
	if err := limiter.CheckLogin(ctx, "alice@example.com", "203.0.113.7"); err != nil {
		t.Fatalf("after reset: %v", err)
	}
}

func TestLoginBudgetCoolsDown(t *testing.T) {
	limiter, mr := testLimiter(t, Config{
		EnableLoginThrottle:   true,
		MaxLoginAttempts:      1,
		LoginCooldownDuration: 15 * time.Minute,
	})
	ctx := context.Background()

	if err := limiter.IncrementLogin(ctx, "alice@example.com", ""); err != nil {
		t.Fatalf("IncrementLogin: %v", err)
	}
	if err := limiter.CheckLogin(ctx, "alice@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("exhausted budget: %v, want ErrRateLimited", err)
	}

	mr.FastForward(16 * time.Minute)

	if err := limiter.CheckLogin(ctx, "alice@example.com", ""); err != nil {
		t.Fatalf("after cooldown: %v", err)
	}
}

func TestIPThrottleSpansIdentifiers(t *testing.T) {
	limiter, _ := testLimiter(t, Config{
		EnableLoginThrottle:   true,
		EnableIPThrottle:      true,
		MaxLoginAttempts:      2,
		LoginCooldownDuration: 15 * time.Minute,
	})
	ctx := context.Background()

	// Spread the failures across identifiers from one address.
	if err := limiter.IncrementLogin(ctx, "alice@example.com", "203.0.113.7"); err != nil {
		t.Fatalf("IncrementLogin: %v", err)
	}
	if err := limiter.IncrementLogin(ctx, "bob@example.com", "203.0.113.7"); err != nil {
		t.Fatalf("IncrementLogin: %v", err)
	}

	if err := limiter.CheckLogin(ctx, "carol@example.com", "203.0.113.7"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("shared address: %v, want ErrRateLimited", err)
	}
	if err := limiter.CheckLogin(ctx, "carol@example.com", "198.51.100.9"); err != nil {
		t.Fatalf("other address: %v", err)
	}
}

func TestRefreshBudget(t *testing.T) {
	limiter, mr := testLimiter(t, Config{
		EnableRefreshThrottle:   true,
		MaxRefreshAttempts:      2,
		RefreshCooldownDuration: time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := limiter.CheckRefresh(ctx, "refresh-token-value"); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if err := limiter.CheckRefresh(ctx, "refresh-token-value"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("exhausted budget: %v, want ErrRateLimited", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := limiter.CheckRefresh(ctx, "refresh-token-value"); err != nil {
		t.Fatalf("after cooldown: %v", err)
	}
}

func TestRefreshKeysHideTokenMaterial(t *testing.T) {
	limiter, mr := testLimiter(t, Config{
		EnableRefreshThrottle:   true,
		MaxRefreshAttempts:      5,
		RefreshCooldownDuration: time.Minute,
	})

	const token = "super-secret-refresh-token"
	if err := limiter.CheckRefresh(context.Background(), token); err != nil {
		t.Fatalf("CheckRefresh: %v", err)
	}

	for _, key := range mr.Keys() {
		if key == "authcore:rl:refresh:"+token {
			t.Fatal("cleartext token used as limiter key")
		}
	}
}

func TestDisabledThrottlesAreNoOps(t *testing.T) {
	limiter, mr := testLimiter(t, Config{})
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		if err := limiter.CheckLogin(ctx, "alice@example.com", "203.0.113.7"); err != nil {
			t.Fatalf("CheckLogin: %v", err)
		}
		if err := limiter.IncrementLogin(ctx, "alice@example.com", "203.0.113.7"); err != nil {
			t.Fatalf("IncrementLogin: %v", err)
		}
		if err := limiter.CheckRefresh(ctx, "token"); err != nil {
			t.Fatalf("CheckRefresh: %v", err)
		}
	}

	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("disabled limiter wrote keys: %v", keys)
	}
}
