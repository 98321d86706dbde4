// Package puzzle generates tactical puzzles from random games and keeps
// a bounded cache of recent ones.
package puzzle

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/maxts0gt/tacticore/game"
	"github.com/maxts0gt/tacticore/tactics"
)

// Band buckets puzzles by target rating.
type Band string

const (
	Beginner     Band = "beginner"
	Intermediate Band = "intermediate"
	Advanced     Band = "advanced"
	Master       Band = "master"
)

// BandFor maps a rating to its difficulty band.
func BandFor(rating int) Band {
	switch {
	case rating < 1200:
		return Beginner
	case rating < 1600:
		return Intermediate
	case rating < 2000:
		return Advanced
	default:
		return Master
	}
}

// Puzzle is one generated tactic. Only the Rating Loop mutates Attempts,
// Solved and BestSolveTimeSeconds; everything else is fixed at creation.
type Puzzle struct {
	ID string `json:"id"`

	// StartingPosition is the FEN the solver starts from; the side to
	// move has the tactic.
	StartingPosition string `json:"starting_position"`

	// SolutionLine holds the solution in SAN, solver's moves and the
	// forced replies interleaved.
	SolutionLine []string `json:"solution_line"`

	Themes       []tactics.Theme `json:"themes"`
	TargetRating int             `json:"target_rating"`
	Difficulty   Band            `json:"difficulty"`

	Attempts int  `json:"attempts"`
	Solved   bool `json:"solved"`

	// BestSolveTimeSeconds is zero until the puzzle is first solved.
	BestSolveTimeSeconds int `json:"best_solve_time_seconds,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// HasTheme reports whether the puzzle carries t.
func (p *Puzzle) HasTheme(t tactics.Theme) bool {
	for _, th := range p.Themes {
		if th == t {
			return true
		}
	}
	return false
}

// Replay walks the solution line through the rules adapter and returns
// the positions' legality verdict. A stored puzzle whose line no longer
// replays is corrupt.
func (p *Puzzle) Replay() error {
	pos, err := game.ParseFEN(p.StartingPosition)
	if err != nil {
		return errors.WithMessage(err, "puzzle: bad starting position")
	}
	for i, san := range p.SolutionLine {
		m, err := pos.DecodeMove(san)
		if err != nil {
			return errors.WithMessagef(err, "puzzle: solution move %d", i+1)
		}
		pos.Apply(m)
	}
	return nil
}

func newID(pos *game.Position, created time.Time) string {
	h := pos.Hash()
	return fmt.Sprintf("puz-%x-%d", h[:6], created.Unix())
}
