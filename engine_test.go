package authcore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.SessionSecret = []byte("test-session-secret-0123456789abcdef")
	cfg.JWT.OAuthAccessSecret = []byte("test-oauth-access-0123456789abcdef00")
	cfg.JWT.OAuthRefreshSecret = []byte("test-oauth-refresh-0123456789abcdef0")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

type testEnv struct {
	engine  *Engine
	users   *memUserStore
	clients *memClientStore
	codes   *memAuthCodeStore
	tokens  *memOAuthTokenStore
	mr      *miniredis.Miniredis
}

func newTestEngine(t *testing.T) *testEnv {
	t.Helper()
	return newTestEngineWithConfig(t, testConfig())
}

func newTestEngineWithConfig(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := &testEnv{
		users:   newMemUserStore(),
		clients: newMemClientStore(),
		codes:   newMemAuthCodeStore(),
		tokens:  newMemOAuthTokenStore(),
		mr:      mr,
	}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserStore(env.users).
		WithClientStore(env.clients).
		WithAuthCodeStore(env.codes).
		WithOAuthTokenStore(env.tokens).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	env.engine = engine
	return env
}

func (e *testEnv) createUser(t *testing.T, email, plainPassword string) *UserInfo {
	t.Helper()

	info, err := e.engine.Register(context.Background(), email, plainPassword)
	if err != nil {
		t.Fatalf("Register(%q): %v", email, err)
	}
	return info
}

func (e *testEnv) createClient(t *testing.T, rec ClientRecord, secret string) {
	t.Helper()

	if secret != "" {
		hash, err := e.engine.passwordHash.Hash(secret)
		if err != nil {
			t.Fatalf("hash client secret: %v", err)
		}
		rec.SecretHash = hash
	}
	e.clients.add(rec)
}

func TestBuilderRequiresDependencies(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	if _, err := New().WithConfig(testConfig()).Build(); err == nil {
		t.Fatal("expected error without redis client")
	}

	if _, err := New().WithConfig(testConfig()).WithRedis(client).Build(); err == nil {
		t.Fatal("expected error without stores")
	}

	cfg := testConfig()
	cfg.JWT.SessionSecret = nil
	if _, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserStore(newMemUserStore()).
		WithClientStore(newMemClientStore()).
		WithAuthCodeStore(newMemAuthCodeStore()).
		WithOAuthTokenStore(newMemOAuthTokenStore()).
		Build(); err == nil {
		t.Fatal("expected error with missing session secret")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	b := New().
		WithConfig(testConfig()).
		WithRedis(client).
		WithUserStore(newMemUserStore()).
		WithClientStore(newMemClientStore()).
		WithAuthCodeStore(newMemAuthCodeStore()).
		WithOAuthTokenStore(newMemOAuthTokenStore())

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := b.Build(); err == nil {
		t.Fatal("expected error on second Build")
	}
}

// ---------- in-memory store fakes ----------

type memUserStore struct {
	mu     sync.Mutex
	nextID int
	byID   map[string]UserRecord
}

func newMemUserStore() *memUserStore {
	return &memUserStore{nextID: 1, byID: map[string]UserRecord{}}
}

func (s *memUserStore) Create(_ context.Context, user UserRecord) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = fmt.Sprintf("u%04d", s.nextID)
	s.nextID++
	s.byID[user.ID] = user
	out := user
	return &out, nil
}

func (s *memUserStore) GetByID(_ context.Context, id string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		out := u
		return &out, nil
	}
	return nil, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return errors.New("no such user")
	}
	u.PasswordHash = hash
	s.byID[id] = u
	return nil
}

func (s *memUserStore) SetResetToken(_ context.Context, id, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return errors.New("no such user")
	}
	u.ResetTokenHash = tokenHash
	u.ResetTokenExpires = expiresAt
	s.byID[id] = u
	return nil
}

func (s *memUserStore) GetByResetTokenHash(_ context.Context, tokenHash string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.ResetTokenHash != "" && u.ResetTokenHash == tokenHash {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) ClearResetToken(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil
	}
	u.ResetTokenHash = ""
	u.ResetTokenExpires = time.Time{}
	s.byID[id] = u
	return nil
}

type memClientStore struct {
	mu   sync.Mutex
	byID map[string]ClientRecord
}

func newMemClientStore() *memClientStore {
	return &memClientStore{byID: map[string]ClientRecord{}}
}

func (s *memClientStore) add(c ClientRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[c.ID] = c
}

func (s *memClientStore) GetByID(_ context.Context, id string) (*ClientRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.byID[id]; ok {
		out := c
		return &out, nil
	}
	return nil, nil
}

type memAuthCodeStore struct {
	mu     sync.Mutex
	byHash map[string]AuthCodeRecord
}

func newMemAuthCodeStore() *memAuthCodeStore {
	return &memAuthCodeStore{byHash: map[string]AuthCodeRecord{}}
}

func (s *memAuthCodeStore) Create(_ context.Context, code AuthCodeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byHash[code.CodeHash] = code
	return nil
}

func (s *memAuthCodeStore) GetValidByCodeHash(_ context.Context, codeHash string) (*AuthCodeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byHash[codeHash]
	if !ok || !rec.RevokedAt.IsZero() || time.Now().After(rec.ExpiresAt) {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (s *memAuthCodeStore) Claim(_ context.Context, codeHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byHash[codeHash]
	if !ok || !rec.RevokedAt.IsZero() || time.Now().After(rec.ExpiresAt) {
		return false, nil
	}
	rec.RevokedAt = time.Now()
	s.byHash[codeHash] = rec
	return true, nil
}

func (s *memAuthCodeStore) expireAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, rec := range s.byHash {
		rec.ExpiresAt = time.Now().Add(-time.Minute)
		s.byHash[hash] = rec
	}
}

type memOAuthTokenStore struct {
	mu      sync.Mutex
	access  map[string]OAuthAccessTokenRecord
	refresh map[string]OAuthRefreshTokenRecord
}

func newMemOAuthTokenStore() *memOAuthTokenStore {
	return &memOAuthTokenStore{
		access:  map[string]OAuthAccessTokenRecord{},
		refresh: map[string]OAuthRefreshTokenRecord{},
	}
}

func (s *memOAuthTokenStore) CreateAccessToken(_ context.Context, token OAuthAccessTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access[token.JTI] = token
	return nil
}

func (s *memOAuthTokenStore) GetAccessToken(_ context.Context, jti string) (*OAuthAccessTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.access[jti]; ok {
		out := t
		return &out, nil
	}
	return nil, nil
}

func (s *memOAuthTokenStore) GetValidAccessToken(_ context.Context, jti string) (*OAuthAccessTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.access[jti]
	if !ok || !t.RevokedAt.IsZero() || time.Now().After(t.ExpiresAt) {
		return nil, nil
	}
	out := t
	return &out, nil
}

func (s *memOAuthTokenStore) RevokeAccessToken(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.access[jti]; ok && t.RevokedAt.IsZero() {
		t.RevokedAt = time.Now()
		s.access[jti] = t
	}
	return nil
}

func (s *memOAuthTokenStore) CreateRefreshToken(_ context.Context, token OAuthRefreshTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[token.JTI] = token
	return nil
}

func (s *memOAuthTokenStore) GetValidRefreshToken(_ context.Context, jti string) (*OAuthRefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.refresh[jti]
	if !ok || !t.RevokedAt.IsZero() || time.Now().After(t.ExpiresAt) {
		return nil, nil
	}
	out := t
	return &out, nil
}

func (s *memOAuthTokenStore) ClaimRefreshToken(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.refresh[jti]
	if !ok || !t.RevokedAt.IsZero() || time.Now().After(t.ExpiresAt) {
		return false, nil
	}
	t.RevokedAt = time.Now()
	s.refresh[jti] = t
	return true, nil
}

func (s *memOAuthTokenStore) RevokeAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for jti, t := range s.access {
		if t.UserID == userID && t.RevokedAt.IsZero() {
			t.RevokedAt = now
			s.access[jti] = t
		}
	}
	for jti, rt := range s.refresh {
		at, ok := s.access[rt.AccessTokenJTI]
		if ok && at.UserID == userID && rt.RevokedAt.IsZero() {
			rt.RevokedAt = now
			s.refresh[jti] = rt
		}
	}
	return nil
}
