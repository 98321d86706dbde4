package rating

import (
	"gonum.org/v1/gonum/stat"

	"github.com/maxts0gt/tacticore/tactics"
)

// Summary condenses the rating history.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	// Trend is the linear-regression slope of the history, in rating
	// points per recorded update.
	Trend float64 `json:"trend"`
	Peak  int     `json:"peak"`
	Low   int     `json:"low"`
}

// Summarize computes history statistics. With fewer than two points the
// spread and trend are zero.
func (s *State) Summarize() Summary {
	n := len(s.History)
	if n == 0 {
		return Summary{}
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	peak, low := s.History[0].Rating, s.History[0].Rating
	for i, h := range s.History {
		xs[i] = float64(i)
		ys[i] = float64(h.Rating)
		if h.Rating > peak {
			peak = h.Rating
		}
		if h.Rating < low {
			low = h.Rating
		}
	}
	sum := Summary{
		Count: n,
		Mean:  stat.Mean(ys, nil),
		Peak:  peak,
		Low:   low,
	}
	if n >= 2 {
		sum.StdDev = stat.StdDev(ys, nil)
		_, slope := stat.LinearRegression(xs, ys, nil, false)
		sum.Trend = slope
	}
	return sum
}

// ThemeStats is one theme's accuracy record.
type ThemeStats struct {
	Theme     tactics.Theme `json:"theme"`
	Solved    int           `json:"solved"`
	Attempted int           `json:"attempted"`
	Accuracy  float64       `json:"accuracy"`
}

// ThemePerformance lists the attempted themes in vocabulary order.
func (s *State) ThemePerformance() []ThemeStats {
	out := make([]ThemeStats, 0, len(s.PerTheme))
	for _, th := range tactics.Themes {
		tally, ok := s.PerTheme[th]
		if !ok || tally.Attempted == 0 {
			continue
		}
		out = append(out, ThemeStats{
			Theme:     th,
			Solved:    tally.Solved,
			Attempted: tally.Attempted,
			Accuracy:  tally.Accuracy(),
		})
	}
	return out
}

// WeakestTheme returns the attempted theme with the lowest accuracy.
func (s *State) WeakestTheme() (ThemeStats, bool) {
	return s.extremeTheme(func(a, b ThemeStats) bool { return a.Accuracy < b.Accuracy })
}

// StrongestTheme returns the attempted theme with the highest accuracy.
func (s *State) StrongestTheme() (ThemeStats, bool) {
	return s.extremeTheme(func(a, b ThemeStats) bool { return a.Accuracy > b.Accuracy })
}

func (s *State) extremeTheme(better func(a, b ThemeStats) bool) (ThemeStats, bool) {
	perf := s.ThemePerformance()
	if len(perf) == 0 {
		return ThemeStats{}, false
	}
	best := perf[0]
	for _, ts := range perf[1:] {
		if better(ts, best) {
			best = ts
		}
	}
	return best, true
}
