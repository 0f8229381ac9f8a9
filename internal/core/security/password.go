// Package security holds the two pure primitives the authentication flow is
// built on: password hashing and signed session tokens. Neither touches the
// network, the disk or shared mutable state, so both are safe for unlimited
// concurrent use.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Argon2Params configures the preferred hash. Zero fields fall back to
// DefaultArgon2Params.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgon2Params mirrors the argon2-cffi defaults used by the hashes
// already stored in production.
var DefaultArgon2Params = Argon2Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

var ErrEmptyPassword = errors.New("password must not be empty")

const (
	argon2idPrefix = "$argon2id$"
	bcryptPrefixA  = "$2a$"
	bcryptPrefixB  = "$2b$"
	bcryptPrefixY  = "$2y$"
)

// PasswordHasher produces Argon2id hashes in PHC string format and verifies
// both those and legacy bcrypt hashes.
type PasswordHasher struct {
	params Argon2Params
}

// NewPasswordHasher returns a hasher using p for new hashes.
func NewPasswordHasher(p Argon2Params) *PasswordHasher {
	if p.Time == 0 {
		p.Time = DefaultArgon2Params.Time
	}
	if p.Memory == 0 {
		p.Memory = DefaultArgon2Params.Memory
	}
	if p.Threads == 0 {
		p.Threads = DefaultArgon2Params.Threads
	}
	if p.SaltLen == 0 {
		p.SaltLen = DefaultArgon2Params.SaltLen
	}
	if p.KeyLen == 0 {
		p.KeyLen = DefaultArgon2Params.KeyLen
	}
	return &PasswordHasher{params: p}
}

// Hash returns the encoded form
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>
//
// with salt and key in unpadded standard base64.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plain), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix,
		argon2.Version,
		h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plain matches encoded. The algorithm is picked from
// the hash prefix; unknown or corrupt hashes never match.
func (h *PasswordHasher) Verify(plain, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, argon2idPrefix):
		return verifyArgon2id(plain, encoded)
	case isBcrypt(encoded):
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain)) == nil
	default:
		return false
	}
}

// NeedsRehash reports whether encoded was produced by a legacy algorithm or
// with parameters other than the hasher's current ones.
func (h *PasswordHasher) NeedsRehash(encoded string) bool {
	if !strings.HasPrefix(encoded, argon2idPrefix) {
		return true
	}
	hash, err := decodeArgon2id(encoded)
	if err != nil {
		return true
	}
	return hash.params.Time != h.params.Time ||
		hash.params.Memory != h.params.Memory ||
		hash.params.Threads != h.params.Threads ||
		hash.params.KeyLen != h.params.KeyLen ||
		hash.params.SaltLen != h.params.SaltLen
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, bcryptPrefixA) ||
		strings.HasPrefix(encoded, bcryptPrefixB) ||
		strings.HasPrefix(encoded, bcryptPrefixY)
}

type argon2idHash struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

var errMalformedHash = errors.New("malformed argon2id hash")

func decodeArgon2id(encoded string) (*argon2idHash, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, errMalformedHash
	}

	var (
		memory, time uint32
		threads      uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, errMalformedHash
	}
	if memory == 0 || time == 0 || threads == 0 {
		return nil, errMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, errMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, errMalformedHash
	}

	return &argon2idHash{
		params: Argon2Params{
			Time:    time,
			Memory:  memory,
			Threads: threads,
			SaltLen: uint32(len(salt)),
			KeyLen:  uint32(len(key)),
		},
		salt: salt,
		key:  key,
	}, nil
}

func verifyArgon2id(plain, encoded string) bool {
	hash, err := decodeArgon2id(encoded)
	if err != nil {
		return false
	}
	p := hash.params
	candidate := argon2.IDKey([]byte(plain), hash.salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return subtle.ConstantTimeCompare(candidate, hash.key) == 1
}
