// Package credential hashes and verifies passwords with Argon2id.
//
// Encoded hashes use the PHC string format:
//
//	$argon2id$v=19$m=<KiB>,t=<iterations>,p=<parallelism>$<salt>$<key>
//
// Salt and key are unpadded standard base64. Stored hashes are treated as
// untrusted input during Verify.
package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Version = argon2.Version
	saltLength    = 16

	defaultParallelism = 2
	// maxParallelism bounds the lanes a stored hash may ask for. Lanes do
	// not depend on the local CPU count, so the cap is absolute.
	maxParallelism = 16
)

var (
	// ErrHashing is returned when the platform RNG fails.
	ErrHashing = errors.New("credential: hashing failed")
	// ErrWrongCredentials covers both a mismatch and an unreadable hash.
	ErrWrongCredentials = errors.New("credential: wrong credentials")
)

// Params controls Argon2id cost. MemoryKiB is in KiB as argon2.IDKey expects.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
}

// DefaultParams returns the baseline cost. Parallelism is fixed so a hash
// written on one host verifies on any other.
func DefaultParams() Params {
	return Params{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: defaultParallelism,
		KeyLength:   32,
	}
}

// Codec hashes and verifies passwords. The zero value is not usable; use New.
type Codec struct {
	params Params
}

// New returns a Codec. Zero fields in p fall back to DefaultParams.
func New(p Params) *Codec {
	def := DefaultParams()
	if p.MemoryKiB == 0 {
		p.MemoryKiB = def.MemoryKiB
	}
	if p.Iterations == 0 {
		p.Iterations = def.Iterations
	}
	if p.Parallelism == 0 {
		p.Parallelism = def.Parallelism
	}
	if p.KeyLength == 0 {
		p.KeyLength = def.KeyLength
	}
	return &Codec{params: p}
}

// Hash derives an encoded Argon2id hash with a fresh random salt.
func (c *Codec) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: salt: %v", ErrHashing, err)
	}

	key := argon2.IDKey([]byte(password), salt, c.params.Iterations, c.params.MemoryKiB, c.params.Parallelism, c.params.KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		c.params.MemoryKiB,
		c.params.Iterations,
		c.params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

// Verify recomputes the key for candidate with the parameters embedded in
// encoded and compares in constant time.
func (c *Codec) Verify(encoded, candidate string) error {
	p, salt, expected, err := decode(encoded)
	if err != nil {
		return ErrWrongCredentials
	}
	if !c.withinBounds(p) {
		return ErrWrongCredentials
	}

	key := argon2.IDKey([]byte(candidate), salt, p.Iterations, p.MemoryKiB, p.Parallelism, uint32(len(expected)))
	if subtle.ConstantTimeCompare(key, expected) != 1 {
		return ErrWrongCredentials
	}
	return nil
}

// withinBounds rejects hashes whose cost is far above the configured one,
// so a tampered row cannot pin a CPU.
func (c *Codec) withinBounds(got Params) bool {
	if got.MemoryKiB > c.params.MemoryKiB*2 {
		return false
	}
	if got.Iterations > c.params.Iterations*2 {
		return false
	}
	if got.Parallelism < 1 || got.Parallelism > maxParallelism {
		return false
	}
	return got.KeyLength >= 16 && got.KeyLength <= 128
}

func decode(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrWrongCredentials
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return Params{}, nil, nil, ErrWrongCredentials
	}

	var mem, iter, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iter, &par); err != nil {
		return Params{}, nil, nil, ErrWrongCredentials
	}
	if mem == 0 || iter == 0 || par == 0 || par > 255 {
		return Params{}, nil, nil, ErrWrongCredentials
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) < 8 {
		return Params{}, nil, nil, ErrWrongCredentials
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, ErrWrongCredentials
	}

	return Params{
		MemoryKiB:   mem,
		Iterations:  iter,
		Parallelism: uint8(par),
		KeyLength:   uint32(len(key)),
	}, salt, key, nil
}
