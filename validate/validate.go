// Package validate checks inbound payload fields before they reach the
// coordinator. Malformed payloads are never surfaced to clients as errors;
// callers simply drop them, so these helpers only answer yes or no.
package validate

const (
	// GuessLength is the required guess width.
	GuessLength = 4
	// MaxKeyLength caps room keys and player identities. Both are opaque
	// client-supplied strings; the cap only keeps hostile payloads from
	// bloating room state.
	MaxKeyLength = 128
)

// RoomKey reports whether s is usable as a room key: non-empty and within
// the length cap. Keys are otherwise arbitrary and case-sensitive.
func RoomKey(s string) bool {
	return s != "" && len(s) <= MaxKeyLength
}

// PlayerID reports whether s is usable as a player identity token.
func PlayerID(s string) bool {
	return s != "" && len(s) <= MaxKeyLength
}

// Guess reports whether s is exactly GuessLength ASCII digits.
func Guess(s string) bool {
	if len(s) != GuessLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
