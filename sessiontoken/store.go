// Package sessiontoken stores first-party opaque refresh tokens in Redis.
//
// Records are keyed by the token value itself (the value is 512 bits of
// entropy, so the key space is not guessable) and persist until the
// token's natural expiry even after revocation. A revoked record that is
// presented again is therefore distinguishable from a token that never
// existed, which is what makes replay detection possible.
//
// Rotation runs through a Lua compare-and-claim so that two concurrent
// redemptions of the same token cannot both succeed: the script reads,
// checks and revokes in one atomic step on the Redis side.
package sessiontoken

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps Redis transport failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ClaimStatus is the outcome of a Claim attempt.
type ClaimStatus int

const (
	// StatusNotFound means no record exists for the token.
	StatusNotFound ClaimStatus = iota
	// StatusExpired means the record existed past its expiry; it has
	// been marked revoked as part of the claim.
	StatusExpired
	// StatusRevoked means the record was already revoked before this
	// claim. Seeing a revoked token again is the replay signal.
	StatusRevoked
	// StatusClaimed means the caller won the claim: the record was live
	// and is now revoked, and the caller may issue a replacement.
	StatusClaimed
)

// Record is the stored state of one refresh token. Timestamps are unix
// seconds; RevokedAt zero means the token is live.
type Record struct {
	UserID    string `json:"user_id"`
	UserAgent string `json:"user_agent,omitempty"`
	IP        string `json:"ip,omitempty"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
	RevokedAt int64  `json:"revoked_at"`
}

// claimScript revokes a live record and reports what it found.
// Return codes: 0 missing, 1 expired, 2 already revoked, 3 claimed.
// The record JSON rides along in the second slot so the caller does not
// need a follow-up GET.
var claimScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
	return {0, ""}
end
local rec = cjson.decode(raw)
if rec.revoked_at and rec.revoked_at > 0 then
	return {2, raw}
end
local now = tonumber(ARGV[1])
rec.revoked_at = now
local ttl = redis.call("PTTL", KEYS[1])
if ttl > 0 then
	redis.call("SET", KEYS[1], cjson.encode(rec), "PX", ttl)
else
	redis.call("SET", KEYS[1], cjson.encode(rec))
end
if rec.expires_at <= now then
	return {1, raw}
end
return {3, raw}
`)

// Store is the Redis-backed refresh token store. Safe for concurrent use.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a Store. An empty prefix selects "authcore:session".
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "authcore:session"
	}
	return &Store{redis: redisClient, prefix: prefix}
}

// Save persists a new token record and indexes it under the owning user.
// The record key expires at the token's expiry; the user index is kept
// alive at least as long as its newest member.
func (s *Store) Save(ctx context.Context, token string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}

	expiresAt := time.Unix(rec.ExpiresAt, 0)
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return errors.New("session record already expired")
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tokenKey(token), data, ttl)
		pipe.SAdd(ctx, s.userKey(rec.UserID), token)
		pipe.ExpireAt(ctx, s.userKey(rec.UserID), expiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get fetches the record for token. The boolean reports presence.
func (s *Store) Get(ctx context.Context, token string) (Record, bool, error) {
	raw, err := s.redis.Get(ctx, s.tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, false, fmt.Errorf("decode session record: %w", err)
	}

	return rec, true, nil
}

// Claim atomically attempts to redeem token. At most one concurrent
// caller observes StatusClaimed; everyone else sees the state the winner
// left behind. The returned record is the state before this claim, so a
// StatusRevoked result still carries the owning user for replay handling.
func (s *Store) Claim(ctx context.Context, token string) (Record, ClaimStatus, error) {
	res, err := claimScript.Run(ctx, s.redis,
		[]string{s.tokenKey(token)},
		time.Now().Unix(),
	).Slice()
	if err != nil {
		return Record{}, StatusNotFound, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(res) != 2 {
		return Record{}, StatusNotFound, errors.New("unexpected claim script reply")
	}

	code, ok := res[0].(int64)
	if !ok {
		return Record{}, StatusNotFound, errors.New("unexpected claim script reply")
	}

	status := ClaimStatus(code)
	if status == StatusNotFound {
		return Record{}, StatusNotFound, nil
	}

	raw, ok := res[1].(string)
	if !ok {
		return Record{}, StatusNotFound, errors.New("unexpected claim script reply")
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, StatusNotFound, fmt.Errorf("decode session record: %w", err)
	}

	return rec, status, nil
}

// Revoke marks token revoked if it is live. The boolean reports whether
// a live record was revoked by this call. Revoking a missing or already
// revoked token is not an error; logout must be idempotent.
func (s *Store) Revoke(ctx context.Context, token string) (Record, bool, error) {
	rec, status, err := s.Claim(ctx, token)
	if err != nil {
		return Record{}, false, err
	}

	return rec, status == StatusClaimed, nil
}

// RevokeAllForUser revokes every live token indexed under userID and
// returns how many were revoked. Index entries whose records already
// expired are skipped.
func (s *Store) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	tokens, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	revoked := 0
	for _, token := range tokens {
		_, live, err := s.Revoke(ctx, token)
		if err != nil {
			return revoked, err
		}
		if live {
			revoked++
		}
	}

	return revoked, nil
}

func (s *Store) tokenKey(token string) string {
	return s.prefix + ":tok:" + token
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":usr:" + userID
}
