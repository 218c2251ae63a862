package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// TokenLength is the fixed width of a redemption token.
	TokenLength = 6

	// tokenMaxAttempts bounds collision retries during allocation. The token
	// space holds one million values per venue, so exhausting the retry
	// budget means the venue's claim volume is far outside the design
	// envelope.
	tokenMaxAttempts = 5
)

var tokenSpace = big.NewInt(1_000_000)

// TokenGenerator mints fixed-width numeric redemption tokens from a
// cryptographically secure source. Uniqueness is not guaranteed here; the
// allocator verifies venue-scope uniqueness inside the allocation
// transaction and retries on collision.
type TokenGenerator struct{}

func NewTokenGenerator() *TokenGenerator {
	return &TokenGenerator{}
}

// Generate returns a zero-padded 6-digit token in 000000..999999.
func (g *TokenGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, tokenSpace)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
