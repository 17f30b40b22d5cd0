package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxSecretBytes is the longest input bcrypt accepts
const MaxSecretBytes = 72

// PasswordHasher hashes and verifies secrets with bcrypt
type PasswordHasher struct {
	cost      int
	dummyHash []byte
}

// NewPasswordHasher creates a hasher with the given bcrypt cost.
// Out of range costs fall back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// Compared against when the user does not exist so both paths cost the same
	dummy, _ := bcrypt.GenerateFromPassword([]byte("dummy-secret-for-timing"), cost)
	return &PasswordHasher{cost: cost, dummyHash: dummy}
}

// Hash returns the salted bcrypt hash of secret
func (h *PasswordHasher) Hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether secret matches hash
func (h *PasswordHasher) Verify(hash, secret string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	return err == nil
}

// VerifyDummy burns one comparison against a fixed hash
func (h *PasswordHasher) VerifyDummy(secret string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(secret))
}

// Cost returns the bcrypt work factor of an existing hash
func Cost(hash string) (int, error) {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return 0, errors.New("not a bcrypt hash")
	}
	return cost, nil
}
