// Package password hashes and verifies user passwords and client secrets
// with Argon2id. Hashes are stored in PHC string format so the work
// factors travel with the hash and older hashes can be detected and
// upgraded after a successful verification.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrInvalidHash is returned when a stored hash cannot be parsed.
	ErrInvalidHash = errors.New("invalid password hash format")
	// ErrIncompatibleVersion is returned for hashes produced by an
	// unsupported argon2 version.
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// Config holds the Argon2id work factors and output sizes.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Hasher hashes and verifies secrets with a fixed parameter set.
// Safe for concurrent use.
type Hasher struct {
	config Config
}

// NewArgon2 creates a Hasher after validating the work factors.
func NewArgon2(cfg Config) (*Hasher, error) {
	if cfg.Memory < 8*1024 {
		return nil, errors.New("argon2 memory must be at least 8192 KiB")
	}
	if cfg.Time < 1 {
		return nil, errors.New("argon2 time cost must be at least 1")
	}
	if cfg.Parallelism < 1 {
		return nil, errors.New("argon2 parallelism must be at least 1")
	}
	if cfg.SaltLength < 8 {
		return nil, errors.New("argon2 salt length must be at least 8 bytes")
	}
	if cfg.KeyLength < 16 {
		return nil, errors.New("argon2 key length must be at least 16 bytes")
	}

	return &Hasher{config: cfg}, nil
}

// Hash derives an Argon2id hash of plain and encodes it in PHC format:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
func (h *Hasher) Hash(plain string) (string, error) {
	salt := make([]byte, h.config.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(plain),
		salt,
		h.config.Time,
		h.config.Memory,
		h.config.Parallelism,
		h.config.KeyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.config.Memory,
		h.config.Time,
		h.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Compare reports whether plain matches the stored PHC hash. The stored
// hash's own parameters are used for derivation, so hashes created under
// older configs still verify.
func (h *Hasher) Compare(plain, encoded string) (bool, error) {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	derived := argon2.IDKey(
		[]byte(plain),
		salt,
		params.Time,
		params.Memory,
		params.Parallelism,
		uint32(len(key)),
	)

	return subtle.ConstantTimeCompare(derived, key) == 1, nil
}

// NeedsRehash reports whether the stored hash was produced with weaker
// parameters than the current config and should be regenerated after the
// next successful verification. Unparseable hashes report true.
func (h *Hasher) NeedsRehash(encoded string) bool {
	params, _, key, err := decodeHash(encoded)
	if err != nil {
		return true
	}

	return params.Memory < h.config.Memory ||
		params.Time < h.config.Time ||
		params.Parallelism < h.config.Parallelism ||
		uint32(len(key)) < h.config.KeyLength
}

func decodeHash(encoded string) (Config, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Config{}, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Config{}, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return Config{}, nil, nil, ErrIncompatibleVersion
	}

	var params Config
	if _, err := fmt.Sscanf(
		parts[3], "m=%d,t=%d,p=%d",
		&params.Memory, &params.Time, &params.Parallelism,
	); err != nil {
		return Config{}, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Config{}, nil, nil, ErrInvalidHash
	}
	params.SaltLength = uint32(len(salt))

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Config{}, nil, nil, ErrInvalidHash
	}
	params.KeyLength = uint32(len(key))

	return params, salt, key, nil
}
