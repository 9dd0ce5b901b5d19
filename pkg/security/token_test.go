package security_test

import (
	"testing"

	"github.com/madinabek/flowershop-backend/pkg/security"
)

func TestNewTrackingTokenFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token, err := security.NewTrackingToken()
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		if !security.ValidTrackingToken(token) {
			t.Fatalf("generated token %q fails its own validation", token)
		}
		seen[token] = true
	}
	if len(seen) < 95 {
		t.Fatalf("expected ~100 distinct tokens, got %d", len(seen))
	}
}

func TestNewTrackingTokenDrawsFromWholeCharset(t *testing.T) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	seen := map[rune]int{}
	for i := 0; i < 2000; i++ {
		token, err := security.NewTrackingToken()
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		for _, r := range token {
			seen[r]++
		}
	}

	// 16000 uniform draws over 36 characters leave every character seen; a
	// hole here means the generator is dropping part of the charset.
	for _, r := range charset {
		if seen[r] == 0 {
			t.Fatalf("character %q never generated across 2000 tokens", r)
		}
	}
	if len(seen) != len(charset) {
		t.Fatalf("generated %d distinct characters, charset has %d", len(seen), len(charset))
	}
}

func TestValidTrackingToken(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"ABCD1234", true},
		{"ZZZZZZZZ", true},
		{"abcd1234", false},
		{"ABC1234", false},
		{"ABCD12345", false},
		{"ABCD-123", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := security.ValidTrackingToken(tc.value); got != tc.want {
			t.Fatalf("ValidTrackingToken(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
