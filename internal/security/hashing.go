package security

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords for LOCAL credentials using bcrypt.
// Plaintext passwords are never logged or persisted.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with cost clamped to bcrypt's supported range; 0 selects bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	switch {
	case cost <= 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash returns the bcrypt hash of password suitable for the credentials.password_hash column.
func (h *Hasher) Hash(password []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare returns nil when password matches hash, bcrypt.ErrMismatchedHashAndPassword when it
// does not, or another error for a malformed hash.
func (h *Hasher) Compare(hash string, password []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), password)
}

// Verify reports whether password matches hash.
func (h *Hasher) Verify(password []byte, hash string) bool {
	return h.Compare(hash, password) == nil
}
