package ledger

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Guard verifies the shared elevated-privilege secret required for destructive
// operations. It protects against accidental clicks, not determined misuse.
type Guard struct {
	hash []byte
}

// NewGuard hashes secret with the given bcrypt cost (0 selects bcrypt.DefaultCost).
func NewGuard(secret string, cost int) (*Guard, error) {
	if secret == "" {
		return nil, errors.New("void secret must not be empty")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return nil, fmt.Errorf("hashing void secret: %w", err)
	}
	return &Guard{hash: hash}, nil
}

// NewGuardFromHash accepts an already bcrypt-hashed secret, e.g. from configuration.
func NewGuardFromHash(hash string) (*Guard, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid void secret hash: %w", err)
	}
	return &Guard{hash: []byte(hash)}, nil
}

func (g *Guard) Verify(secret string) bool {
	if g == nil || len(g.hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(secret)) == nil
}
