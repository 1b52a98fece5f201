package main

import (
	"strconv"

	"github.com/nmaroz/codeduel/game/score"
)

// Solver guesses the secret by candidate elimination: every feedback rules
// out the candidates that would not have produced it.
type Solver struct {
	candidates []string
}

// NewSolver starts with all codes the server can pick from.
func NewSolver() *Solver {
	candidates := make([]string, 0, 9000)
	for n := 1000; n <= 9999; n++ {
		candidates = append(candidates, strconv.Itoa(n))
	}
	return &Solver{candidates: candidates}
}

// Guess returns the next code to try. The remaining candidate set is always
// consistent with every observation, so any member is a valid guess.
func (s *Solver) Guess() string {
	if len(s.candidates) == 0 {
		// Inconsistent feedback; start over rather than stall the game.
		s.candidates = NewSolver().candidates
	}
	return s.candidates[len(s.candidates)/2]
}

// Observe narrows the candidate set to codes that would have produced
// exactly this feedback for the guess.
func (s *Solver) Observe(guess string, correctPositions, correctDigits int) {
	kept := s.candidates[:0]
	for _, candidate := range s.candidates {
		fb, err := score.Guess(candidate, guess)
		if err != nil {
			continue
		}
		if fb.CorrectPositions == correctPositions && fb.CorrectDigits == correctDigits {
			kept = append(kept, candidate)
		}
	}
	s.candidates = kept
}

// Remaining reports how many codes are still possible.
func (s *Solver) Remaining() int {
	return len(s.candidates)
}
