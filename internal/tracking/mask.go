package tracking

import (
	"strings"
	"unicode"
)

// Address words that mark an in-building location. Everything from such a
// word to the end of its segment is cut so only the street-level part
// survives.
var privateAddressMarkers = []string{
	"apt", "apartment", "unit", "office", "suite", "floor", "fl", "room",
}

// MaskPhone stars every digit except the trailing segment: the last four for
// regular numbers, the last two when the number is too short to hide behind
// four. Formatting characters pass through untouched.
func MaskPhone(phone string) string {
	digits := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits == 0 {
		return phone
	}

	visible := 4
	if digits <= 6 {
		visible = 2
	}

	masked := []rune(phone)
	remaining := digits - visible
	for i, r := range masked {
		if !unicode.IsDigit(r) {
			continue
		}
		if remaining > 0 {
			masked[i] = '*'
			remaining--
		}
	}
	return string(masked)
}

// MaskAddress reduces a stored address to its street-level part. Segments
// split on commas, semicolons and line breaks; within each segment everything
// from the first marker word onward is dropped, so "Abay ave 10 apt 4" loses
// the apartment even without a separating comma.
func MaskAddress(address string) string {
	segments := strings.FieldsFunc(address, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	kept := make([]string, 0, len(segments))
	for _, segment := range segments {
		trimmed := strings.TrimSpace(truncateAtMarker(segment))
		if trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, ", ")
}

func truncateAtMarker(segment string) string {
	words := strings.Fields(segment)
	for i, word := range words {
		if isPrivateMarker(word) {
			return strings.Join(words[:i], " ")
		}
	}
	return segment
}

func isPrivateMarker(word string) bool {
	cleaned := strings.TrimRight(strings.ToLower(word), ".#:")
	for _, marker := range privateAddressMarkers {
		if cleaned == marker {
			return true
		}
	}
	return false
}
