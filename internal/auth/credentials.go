package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinCost is the lowest bcrypt cost accepted for stored credentials.
const MinCost = 10

var dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")

// Credentials hashes and verifies user passwords.
type Credentials struct {
	cost int
}

// NewCredentials returns a Credentials using cost, raised to MinCost when lower.
func NewCredentials(cost int) *Credentials {
	if cost < MinCost {
		cost = MinCost
	}
	return &Credentials{cost: cost}
}

// Hash returns a salted one-way hash of plaintext.
func (c *Credentials) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), c.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. A malformed hash never matches.
func (c *Credentials) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// VerifyMissing burns the same work as Verify for lookups that found no user.
func (c *Credentials) VerifyMissing(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(plaintext))
}
