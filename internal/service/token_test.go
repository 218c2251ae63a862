package service

import (
	"testing"
)

func TestTokenGenerator_Format(t *testing.T) {
	t.Parallel()

	gen := NewTokenGenerator()
	for i := 0; i < 1000; i++ {
		token, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(token) != TokenLength {
			t.Fatalf("expected %d characters, got %q", TokenLength, token)
		}
		for _, r := range token {
			if r < '0' || r > '9' {
				t.Fatalf("expected numeric token, got %q", token)
			}
		}
	}
}

func TestTokenGenerator_CoversLeadingZeros(t *testing.T) {
	t.Parallel()

	// With 2000 draws from a uniform 000000..999999 space, the odds of
	// never seeing a leading zero are (0.9)^2000. A failure here means the
	// generator stopped zero-padding.
	gen := NewTokenGenerator()
	for i := 0; i < 2000; i++ {
		token, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if token[0] == '0' {
			return
		}
	}
	t.Fatal("no token with a leading zero in 2000 draws")
}
