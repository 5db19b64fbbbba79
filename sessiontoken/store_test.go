package sessiontoken

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewStore(client, ""), mr
}

func liveRecord(userID string) Record {
	now := time.Now().Unix()
	return Record{
		UserID:    userID,
		UserAgent: "test-agent",
		IP:        "203.0.113.7",
		CreatedAt: now,
		ExpiresAt: now + 3600,
	}
}

func TestSaveAndGet(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	rec := liveRecord("u0001")
	if err := store.Save(ctx, "tok-1", rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, found, err := store.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("record not found")
	}
	if got != rec {
		t.Fatalf("got %+v, want %+v", got, rec)
	}

	_, found, err = store.Get(ctx, "tok-missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatal("missing token reported found")
	}
}

func TestSaveRejectsExpiredRecord(t *testing.T) {
	store, _ := testStore(t)

	rec := liveRecord("u0001")
	rec.ExpiresAt = time.Now().Unix() - 10

	if err := store.Save(context.Background(), "tok-1", rec); err == nil {
		t.Fatal("expired record accepted")
	}
}

func TestClaimLifecycle(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "tok-1", liveRecord("u0001")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec, status, err := store.Claim(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if status != StatusClaimed {
		t.Fatalf("first claim status %d, want StatusClaimed", status)
	}
	if rec.UserID != "u0001" {
		t.Fatalf("claimed record %+v", rec)
	}

	// Second presentation is the replay signal, and still names the owner.
	rec, status, err = store.Claim(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if status != StatusRevoked {
		t.Fatalf("replay status %d, want StatusRevoked", status)
	}
	if rec.UserID != "u0001" {
		t.Fatalf("replayed record %+v", rec)
	}

	_, status, err = store.Claim(ctx, "tok-unknown")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if status != StatusNotFound {
		t.Fatalf("unknown status %d, want StatusNotFound", status)
	}
}

func TestClaimExpiredRecord(t *testing.T) {
	store, mr := testStore(t)
	ctx := context.Background()

	// Plant a record whose logical expiry has passed but whose key is
	// still present, which is what a clock skew window looks like.
	rec := liveRecord("u0001")
	rec.ExpiresAt = time.Now().Unix() - 5
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := mr.Set("authcore:session:tok:tok-1", string(data)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, status, err := store.Claim(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if status != StatusExpired {
		t.Fatalf("status %d, want StatusExpired", status)
	}
}

func TestClaimConcurrentSingleWinner(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "tok-1", liveRecord("u0001")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		claimed int
		revoked int
	)

	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			_, status, err := store.Claim(ctx, "tok-1")
			if err != nil {
				t.Errorf("Claim: %v", err)
				return
			}
			mu.Lock()
			switch status {
			case StatusClaimed:
				claimed++
			case StatusRevoked:
				revoked++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if claimed != 1 {
		t.Fatalf("claimed = %d, want exactly 1 winner", claimed)
	}
	if revoked != callers-1 {
		t.Fatalf("revoked = %d, want %d losers", revoked, callers-1)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "tok-1", liveRecord("u0001")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec, live, err := store.Revoke(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if !live || rec.UserID != "u0001" {
		t.Fatalf("first revoke: live=%v rec=%+v", live, rec)
	}

	_, live, err = store.Revoke(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Revoke (again): %v", err)
	}
	if live {
		t.Fatal("second revoke reported a live record")
	}

	_, live, err = store.Revoke(ctx, "tok-unknown")
	if err != nil {
		t.Fatalf("Revoke (unknown): %v", err)
	}
	if live {
		t.Fatal("unknown token reported live")
	}
}

func TestRevokeAllForUser(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	for _, token := range []string{"tok-a", "tok-b", "tok-c"} {
		if err := store.Save(ctx, token, liveRecord("u0001")); err != nil {
			t.Fatalf("Save(%s): %v", token, err)
		}
	}
	if err := store.Save(ctx, "tok-other", liveRecord("u0002")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	n, err := store.RevokeAllForUser(ctx, "u0001")
	if err != nil {
		t.Fatalf("RevokeAllForUser: %v", err)
	}
	if n != 3 {
		t.Fatalf("revoked %d, want 3", n)
	}

	for _, token := range []string{"tok-a", "tok-b", "tok-c"} {
		_, status, err := store.Claim(ctx, token)
		if err != nil {
			t.Fatalf("Claim(%s): %v", token, err)
		}
		if status != StatusRevoked {
			t.Fatalf("%s status %d, want StatusRevoked", token, status)
		}
	}

	// The other user's token is untouched.
	_, status, err := store.Claim(ctx, "tok-other")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if status != StatusClaimed {
		t.Fatalf("tok-other status %d, want StatusClaimed", status)
	}

	// Re-running is a no-op.
	n, err = store.RevokeAllForUser(ctx, "u0001")
	if err != nil {
		t.Fatalf("RevokeAllForUser: %v", err)
	}
	if n != 0 {
		t.Fatalf("second pass revoked %d, want 0", n)
	}
}
