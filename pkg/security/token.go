package security

import (
	"crypto/rand"
	"fmt"
)

// Tracking tokens are 8 characters from an uppercase alphanumeric alphabet.
// The token is the only credential guarding the public tracking view, so it
// must come from crypto/rand, never math/rand.
const (
	trackingTokenLength  = 8
	trackingTokenCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewTrackingToken generates an opaque order tracking token. Bytes at or
// above the largest multiple of the charset size are redrawn; folding them
// with a plain modulo would skew the draw towards the first characters.
func NewTrackingToken() (string, error) {
	const limit = 256 - 256%len(trackingTokenCharset)

	token := make([]byte, 0, trackingTokenLength)
	buf := make([]byte, trackingTokenLength)
	for len(token) < trackingTokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate tracking token: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			token = append(token, trackingTokenCharset[int(b)%len(trackingTokenCharset)])
			if len(token) == trackingTokenLength {
				break
			}
		}
	}
	return string(token), nil
}

// ValidTrackingToken reports whether the value matches the issued format.
func ValidTrackingToken(value string) bool {
	if len(value) != trackingTokenLength {
		return false
	}
	for _, r := range value {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
