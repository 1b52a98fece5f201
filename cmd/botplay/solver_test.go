package main

import (
	"testing"

	"github.com/nmaroz/codeduel/game/score"
)

func TestNewSolver(t *testing.T) {
	s := NewSolver()
	if s.Remaining() != 9000 {
		t.Errorf("expected 9000 initial candidates, got %d", s.Remaining())
	}
}

func TestSolverSolves(t *testing.T) {
	for _, secret := range []string{"1000", "4271", "9999", "5555", "1234"} {
		t.Run(secret, func(t *testing.T) {
			s := NewSolver()
			for turn := 1; turn <= 12; turn++ {
				guess := s.Guess()
				fb, err := score.Guess(secret, guess)
				if err != nil {
					t.Fatalf("solver produced invalid guess %q: %v", guess, err)
				}
				if fb.Won() {
					t.Logf("solved %s in %d guesses", secret, turn)
					return
				}
				s.Observe(guess, fb.CorrectPositions, fb.CorrectDigits)
				if s.Remaining() == 0 {
					t.Fatal("candidate set emptied with honest feedback")
				}
			}
			t.Fatalf("did not solve %s within 12 guesses", secret)
		})
	}
}

func TestObserveKeepsSecret(t *testing.T) {
	secret := "8316"
	s := NewSolver()
	guess := s.Guess()
	fb, err := score.Guess(secret, guess)
	if err != nil {
		t.Fatal(err)
	}
	s.Observe(guess, fb.CorrectPositions, fb.CorrectDigits)

	found := false
	for _, c := range s.candidates {
		if c == secret {
			found = true
			break
		}
	}
	if !found {
		t.Error("the true secret must survive every honest observation")
	}
	if s.Remaining() >= 9000 {
		t.Error("expected the observation to eliminate candidates")
	}
}

func TestGuessRecoversFromContradiction(t *testing.T) {
	s := NewSolver()
	// Impossible feedback empties the candidate set.
	s.Observe("1234", 4, 0)
	s.Observe("5678", 4, 0)
	if s.Remaining() != 0 {
		t.Fatalf("expected contradictory feedback to empty the set, have %d", s.Remaining())
	}
	if g := s.Guess(); len(g) != 4 {
		t.Errorf("expected a fresh 4-digit guess after reset, got %q", g)
	}
}
