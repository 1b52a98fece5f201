// Package score implements the feedback algorithm for comparing a guess
// against the shared secret code.
//
// Both codes are fixed-width strings of exactly four decimal digits. The
// algorithm is the classic two-pass Mastermind scoring: exact position
// matches are consumed first, then remaining guess digits are matched by
// value against the unconsumed secret digits, left to right, so repeated
// digits are never counted twice.
package score

import "errors"

// Length is the fixed width of every secret and guess.
const Length = 4

// ErrInvalidCode is returned when an input is not exactly four ASCII digits.
var ErrInvalidCode = errors.New("code must be exactly 4 digits")

// Feedback reports how a guess compares against the secret.
type Feedback struct {
	// CorrectPositions counts digits that match in value and position.
	CorrectPositions int `json:"correctPositions"`
	// CorrectDigits counts digits present in the secret at a different
	// position, after exact matches are consumed.
	CorrectDigits int `json:"correctDigits"`
}

// Won reports whether the feedback represents a fully solved code.
func (f Feedback) Won() bool {
	return f.CorrectPositions == Length
}

// Valid reports whether code is exactly Length ASCII digits.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// Guess scores guess against secret.
//
// First pass: positions where guess and secret agree are counted as
// CorrectPositions and the secret digit is consumed. Second pass: every
// remaining guess digit searches the unconsumed secret digits left to
// right; the first value match counts as a CorrectDigit and consumes that
// secret digit. CorrectPositions+CorrectDigits never exceeds Length.
//
// Both inputs must be exactly Length ASCII digits; anything else returns
// ErrInvalidCode.
func Guess(secret, guess string) (Feedback, error) {
	if !Valid(secret) || !Valid(guess) {
		return Feedback{}, ErrInvalidCode
	}

	var fb Feedback
	var used [Length]bool

	for i := 0; i < Length; i++ {
		if guess[i] == secret[i] {
			fb.CorrectPositions++
			used[i] = true
		}
	}

	for i := 0; i < Length; i++ {
		if guess[i] == secret[i] {
			continue
		}
		for j := 0; j < Length; j++ {
			if !used[j] && secret[j] == guess[i] {
				fb.CorrectDigits++
				used[j] = true
				break
			}
		}
	}

	return fb, nil
}
