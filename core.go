// Package tacticore is an offline chess reasoning core: an alpha-beta
// search engine, a tactical theme detector, a puzzle generator and an
// Elo rating loop, all sharing one rules adapter. The Core type is the
// caller-facing surface; hosts own one Core per user session.
package tacticore

import (
	"context"
	"log"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/maxts0gt/tacticore/game"
	"github.com/maxts0gt/tacticore/puzzle"
	"github.com/maxts0gt/tacticore/rating"
	"github.com/maxts0gt/tacticore/search"
	"github.com/maxts0gt/tacticore/storage"
	"github.com/maxts0gt/tacticore/tactics"
)

// ErrUnknownPuzzle is returned by SubmitSolution for an id that is not
// in the cache.
var ErrUnknownPuzzle = errors.New("tacticore: unknown puzzle id")

// Core bundles the engine, detector, generator and rating loop around
// one store. Its methods are synchronous; calls that mutate rating or
// cache state must not run concurrently.
type Core struct {
	conf  Config
	store storage.Store
	eng   *search.Engine
	det   *tactics.Detector
	gen   *puzzle.Generator
	cache *puzzle.Cache
	state *rating.State
}

// New builds a Core over the store, loading any persisted rating state
// and puzzle cache. A corrupt persisted value is logged and replaced
// with defaults rather than failing startup.
func New(store storage.Store, conf Config) (*Core, error) {
	if !conf.IsValid() {
		return nil, errors.Errorf("tacticore: invalid config %+v", conf)
	}
	c := &Core{
		conf:  conf,
		store: store,
		eng:   search.New(conf.Search),
		det:   tactics.NewDetector(conf.Detector),
		gen:   puzzle.NewGenerator(conf.Generator),
		cache: puzzle.NewCache(conf.CacheSize),
	}

	state, err := rating.Load(store, conf.RatingKey)
	if err != nil {
		log.Printf("tacticore: rating state not loaded, using defaults: %v", err)
	}
	c.state = state

	if raw, ok, err := store.Get(conf.CacheKey); err != nil {
		log.Printf("tacticore: puzzle cache not loaded: %v", err)
	} else if ok {
		if err := c.cache.Restore([]byte(raw)); err != nil {
			log.Printf("tacticore: puzzle cache not restored: %v", err)
		}
	}
	return c, nil
}

// Search runs the engine on a FEN position. Depth <= 0 uses the
// configured default.
func (c *Core) Search(ctx context.Context, fen string, depth int) (search.Result, error) {
	pos, err := game.ParseFEN(fen)
	if err != nil {
		return search.Result{}, err
	}
	return c.eng.Search(ctx, pos, depth), nil
}

// ChooseMove searches a FEN position at the default depth and returns
// the chosen move in SAN alongside the full result. The SAN is empty on
// terminal positions.
func (c *Core) ChooseMove(ctx context.Context, fen string) (string, search.Result, error) {
	pos, err := game.ParseFEN(fen)
	if err != nil {
		return "", search.Result{}, err
	}
	res := c.eng.Search(ctx, pos, 0)
	if res.BestMove == nil {
		return "", res, nil
	}
	return pos.EncodeSAN(res.BestMove), res, nil
}

// DetectThemes classifies a FEN position.
func (c *Core) DetectThemes(fen string) ([]tactics.Theme, error) {
	pos, err := game.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return c.det.Detect(pos).Slice(), nil
}

// GeneratePuzzle produces a puzzle near the user's current rating,
// restricted to the preferred themes when any are given. The puzzle is
// cached before being returned. On puzzle.ErrGenerationExhausted the
// caller should fall back to FallbackPuzzle.
func (c *Core) GeneratePuzzle(ctx context.Context, preferred ...tactics.Theme) (*puzzle.Puzzle, error) {
	p, err := c.gen.Generate(ctx, c.state.Rating, c.state.CurrentStreak, tactics.NewSet(preferred...))
	if err != nil {
		return nil, err
	}
	c.cache.Put(p)
	c.persistCache()
	return p, nil
}

// FallbackPuzzle returns the most recently cached puzzle, for the
// generation-exhausted path.
func (c *Core) FallbackPuzzle() (*puzzle.Puzzle, error) {
	return c.cache.Fallback()
}

// SubmitSolution grades a submitted move sequence against the cached
// puzzle's solution and folds the outcome into the rating state. Wrong
// or mismatched-length sequences are a normal incorrect outcome, not an
// error. The updated state is persisted; a persistence failure is
// returned alongside the valid update and never corrupts memory.
func (c *Core) SubmitSolution(id string, moves []string, elapsedSeconds int) (rating.Update, error) {
	p, ok := c.cache.Get(id)
	if !ok {
		return rating.Update{}, errors.WithMessage(ErrUnknownPuzzle, id)
	}

	correct := c.gradeSolution(p, moves)

	p.Attempts++
	if correct {
		p.Solved = true
		if elapsedSeconds > 0 && (p.BestSolveTimeSeconds == 0 || elapsedSeconds < p.BestSolveTimeSeconds) {
			p.BestSolveTimeSeconds = elapsedSeconds
		}
	}
	c.cache.Put(p)

	up := c.state.ApplyResult(p.TargetRating, correct, p.Themes, timeNow())

	var merr error
	if err := rating.Save(c.store, c.conf.RatingKey, c.state); err != nil {
		merr = multierror.Append(merr, err)
	}
	if err := c.saveCache(); err != nil {
		merr = multierror.Append(merr, err)
	}
	return up, merr
}

// gradeSolution replays the stored line and the submission side by side,
// comparing origin, destination and promotion piece. Notation
// differences are tolerated; semantic differences are not.
func (c *Core) gradeSolution(p *puzzle.Puzzle, moves []string) bool {
	if len(moves) != len(p.SolutionLine) {
		return false
	}
	pos, err := game.ParseFEN(p.StartingPosition)
	if err != nil {
		return false
	}
	for i, want := range p.SolutionLine {
		expected, err := pos.DecodeMove(want)
		if err != nil {
			return false
		}
		got, err := pos.DecodeMove(moves[i])
		if err != nil {
			return false
		}
		if got.S1() != expected.S1() || got.S2() != expected.S2() || got.Promo() != expected.Promo() {
			return false
		}
		pos.Apply(expected)
	}
	return true
}

// RatingState returns the live rating state. Callers must treat it as
// read-only; all mutation goes through SubmitSolution.
func (c *Core) RatingState() *rating.State { return c.state }

// RatingSummary returns rating-history statistics.
func (c *Core) RatingSummary() rating.Summary { return c.state.Summarize() }

// ThemePerformance returns per-theme accuracy for attempted themes.
func (c *Core) ThemePerformance() []rating.ThemeStats { return c.state.ThemePerformance() }

// CachedPuzzles lists the cached puzzles, most recent first.
func (c *Core) CachedPuzzles() []*puzzle.Puzzle { return c.cache.Recent() }

// Flush writes the rating state and puzzle cache back to the store.
func (c *Core) Flush() error {
	var merr error
	if err := rating.Save(c.store, c.conf.RatingKey, c.state); err != nil {
		merr = multierror.Append(merr, err)
	}
	if err := c.saveCache(); err != nil {
		merr = multierror.Append(merr, err)
	}
	return merr
}

func (c *Core) saveCache() error {
	data, err := c.cache.Snapshot()
	if err != nil {
		return err
	}
	return c.store.Set(c.conf.CacheKey, string(data))
}

// persistCache is the best-effort variant used on generation, where a
// store hiccup should not fail the call.
func (c *Core) persistCache() {
	if err := c.saveCache(); err != nil {
		log.Printf("tacticore: puzzle cache not persisted: %v", err)
	}
}

// Swappable for tests that need deterministic history timestamps.
var timeNow = time.Now
