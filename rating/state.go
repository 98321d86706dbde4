// Package rating maintains the user's Elo-style rating, streaks and
// per-theme accuracy, persisted whole-state through the storage layer.
package rating

import (
	"time"

	"github.com/maxts0gt/tacticore/tactics"
)

const (
	// SeedRating is the rating every new user starts from.
	SeedRating = 1200

	// Floor and Ceil clamp the rating after every update.
	Floor = 100
	Ceil  = 3000

	// historyCap bounds the retained rating history.
	historyCap = 100
)

// Tally counts solved versus attempted for one theme.
type Tally struct {
	Solved    int `json:"solved"`
	Attempted int `json:"attempted"`
}

// Accuracy returns solved/attempted, zero when never attempted.
func (t Tally) Accuracy() float64 {
	if t.Attempted == 0 {
		return 0
	}
	return float64(t.Solved) / float64(t.Attempted)
}

// HistoryPoint is one rating observation.
type HistoryPoint struct {
	At     time.Time `json:"at"`
	Rating int       `json:"rating"`
}

// State is the whole mutable rating record for one user. It is owned by
// a single caller; the package never shares one between goroutines.
type State struct {
	Rating        int                     `json:"rating"`
	TotalSolved   int                     `json:"total_solved"`
	TotalAttempts int                     `json:"total_attempts"`
	CurrentStreak int                     `json:"current_streak"`
	BestStreak    int                     `json:"best_streak"`
	PerTheme      map[tactics.Theme]Tally `json:"per_theme"`
	History       []HistoryPoint          `json:"history"`
}

// NewState returns a fresh state at the seed rating.
func NewState() *State {
	s := &State{
		Rating:   SeedRating,
		PerTheme: make(map[tactics.Theme]Tally),
	}
	s.recordHistory(time.Now())
	return s
}

// Update is the outcome of one submission applied to the state.
type Update struct {
	Correct      bool `json:"correct"`
	RatingChange int  `json:"rating_change"`
	NewRating    int  `json:"new_rating"`
	NewStreak    int  `json:"new_streak"`
}

// ApplyResult folds one puzzle outcome into the state: Elo update,
// clamping, streak bookkeeping and per-theme tallies.
func (s *State) ApplyResult(puzzleRating int, solved bool, themes []tactics.Theme, now time.Time) Update {
	delta := Delta(s.Rating, puzzleRating, solved)
	s.Rating = clamp(s.Rating + delta)

	s.TotalAttempts++
	if solved {
		s.TotalSolved++
		s.CurrentStreak++
		if s.CurrentStreak > s.BestStreak {
			s.BestStreak = s.CurrentStreak
		}
	} else {
		s.CurrentStreak = 0
	}

	for _, th := range themes {
		tally := s.PerTheme[th]
		tally.Attempted++
		if solved {
			tally.Solved++
		}
		s.PerTheme[th] = tally
	}

	s.recordHistory(now)
	return Update{
		Correct:      solved,
		RatingChange: delta,
		NewRating:    s.Rating,
		NewStreak:    s.CurrentStreak,
	}
}

func (s *State) recordHistory(now time.Time) {
	s.History = append(s.History, HistoryPoint{At: now, Rating: s.Rating})
	if len(s.History) > historyCap {
		s.History = s.History[len(s.History)-historyCap:]
	}
}

func clamp(r int) int {
	if r < Floor {
		return Floor
	}
	if r > Ceil {
		return Ceil
	}
	return r
}
