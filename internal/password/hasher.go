// Package password hashes and verifies account secrets with bcrypt.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type Hasher struct {
	cost int
	// dummy is compared against when no stored hash exists so that a miss
	// costs the same as a mismatch.
	dummy []byte
}

// NewHasher panics if the timing placeholder hash cannot be built; it runs
// once at startup.
func NewHasher(cost int) *Hasher {
	return newHasher(cost, bcrypt.GenerateFromPassword)
}

func newHasher(cost int, generate func(secret []byte, cost int) ([]byte, error)) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := generate([]byte("placeholder-secret"), cost)
	if err != nil {
		panic(fmt.Sprintf("password: build placeholder hash: %v", err))
	}
	return &Hasher{cost: cost, dummy: dummy}
}

// Hash returns a salted bcrypt hash of secret.
func (h *Hasher) Hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether candidate matches hash. An empty hash still runs a
// full comparison.
func (h *Hasher) Verify(hash, candidate string) bool {
	stored := []byte(hash)
	if hash == "" {
		stored = h.dummy
	}
	err := bcrypt.CompareHashAndPassword(stored, []byte(candidate))
	if err != nil {
		return false
	}
	return hash != ""
}
