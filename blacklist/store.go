// Package blacklist maintains the Redis revocation list for session
// access tokens. A blacklisted token stays listed exactly as long as it
// would otherwise remain valid; the entry expires together with the
// token, so the list never grows beyond the set of live revocations.
package blacklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	authjwt "github.com/veyra/authcore/jwt"
)

// ErrRedisUnavailable wraps Redis transport failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultPrefix = "blacklist:token"

// Store is the Redis-backed revocation list. Safe for concurrent use.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New creates a Store. An empty prefix selects "blacklist:token".
func New(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{redis: redisClient, prefix: prefix}
}

// Add revokes token until its natural expiry. The expiry is read from the
// token's exp claim without signature verification; an unparseable token
// or one with no exp claim is an error, while a token that has already
// expired is a no-op since it can no longer authenticate anything.
func (s *Store) Add(ctx context.Context, token string) error {
	expiresAt, err := authjwt.DecodeExpiry(token)
	if err != nil {
		return err
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, s.key(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// IsBlacklisted reports whether token is currently revoked.
func (s *Store) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return n > 0, nil
}

// Remove deletes token from the list ahead of its expiry. Removing a
// token that is not listed is not an error.
func (s *Store) Remove(ctx context.Context, token string) error {
	if err := s.redis.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Count returns the number of currently blacklisted tokens by scanning
// the key prefix. Intended for stats endpoints, not hot paths.
func (s *Store) Count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, s.prefix+":*", 500).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}

		total += len(keys)
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}

func (s *Store) key(token string) string {
	return s.prefix + ":" + token
}
