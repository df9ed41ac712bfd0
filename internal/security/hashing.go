package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords using bcrypt over an HMAC-SHA256 pre-hash keyed
// with a server-side pepper. The pre-hash keeps inputs under bcrypt's 72 byte limit.
// Callers must not log or persist plaintext passwords.
type Hasher struct {
	Cost   int
	pepper []byte
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31) and pepper.
// Cost 12 is a reasonable default for interactive login.
func NewHasher(cost int, pepper string) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost, pepper: []byte(pepper)}
}

// Hash produces a bcrypt hash of password suitable for storage.
func (h *Hasher) Hash(password []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(h.prehash(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies password against the stored hash in constant time. Returns nil if they
// match; returns an error (including bcrypt.ErrMismatchedHashAndPassword) otherwise.
func (h *Hasher) Compare(hash string, password []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), h.prehash(password))
}

// Verify reports whether password matches the stored hash.
func (h *Hasher) Verify(password []byte, stored string) bool {
	return stored != "" && h.Compare(stored, password) == nil
}

func (h *Hasher) prehash(password []byte) []byte {
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write(password)
	sum := mac.Sum(nil)
	out := make([]byte, base64.RawStdEncoding.EncodedLen(len(sum)))
	base64.RawStdEncoding.Encode(out, sum)
	return out
}
