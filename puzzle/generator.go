package puzzle

import (
	"context"
	"log"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/leesper/go_rng"
	"github.com/pkg/errors"

	"github.com/maxts0gt/tacticore/game"
	"github.com/maxts0gt/tacticore/rating"
	"github.com/maxts0gt/tacticore/search"
	"github.com/maxts0gt/tacticore/tactics"
)

// ErrGenerationExhausted is returned once the retry limit runs out
// without finding a tactical swing. Callers should fall back to a cached
// puzzle. Match with errors.Cause.
var ErrGenerationExhausted = errors.New("puzzle: generation retries exhausted")

const (
	baseRatingBand  = 200
	streakBandStep  = 20
	maxRatingBand   = 400
	solutionLineLen = 3
)

// GeneratorConfig holds the generator parameters.
type GeneratorConfig struct {
	// MinPlies and MaxPlies bound the random game played to reach a
	// candidate position.
	MinPlies int `json:"min_plies"`
	MaxPlies int `json:"max_plies"`

	// SearchDepth is the ply depth used to probe candidates and derive
	// the solution line.
	SearchDepth int `json:"search_depth"`

	// SwingThreshold is the centipawn gap between the static and the
	// searched evaluation that qualifies a position as tactical.
	SwingThreshold int `json:"swing_threshold"`

	// MaxRetries bounds the attempts before giving up.
	MaxRetries int `json:"max_retries"`

	// Seed fixes the random stream; zero seeds from the clock.
	Seed int64 `json:"seed"`

	// Verbose logs each rejected attempt.
	Verbose bool `json:"verbose"`
}

// DefaultGeneratorConfig returns the generator defaults.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		MinPlies:       20,
		MaxPlies:       40,
		SearchDepth:    3,
		SwingThreshold: 150,
		MaxRetries:     24,
	}
}

// IsValid checks the config fields.
func (c GeneratorConfig) IsValid() bool {
	return c.MinPlies > 0 && c.MaxPlies >= c.MinPlies &&
		c.SearchDepth >= 1 && c.SwingThreshold > 0 && c.MaxRetries > 0
}

// Generator turns random games into puzzles. It owns its random stream
// and engine, so one Generator per goroutine.
type Generator struct {
	conf GeneratorConfig
	eng  *search.Engine
	det  *tactics.Detector
	rng  *rng.UniformGenerator
}

// NewGenerator creates a Generator. It panics on an invalid config.
func NewGenerator(conf GeneratorConfig) *Generator {
	if !conf.IsValid() {
		panic(errors.Errorf("puzzle: invalid config %+v", conf))
	}
	seed := conf.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		conf: conf,
		eng:  search.New(search.Config{MaxDepth: conf.SearchDepth}),
		det:  tactics.NewDetector(tactics.DefaultConfig()),
		rng:  rng.NewUniformGenerator(seed),
	}
}

// Generate plays random games until one yields a position whose searched
// evaluation swings past the threshold, then packages it as a puzzle
// targeted near userRating. A non-empty preferred set restricts the
// result to puzzles carrying at least one of those themes. After
// MaxRetries failed attempts ErrGenerationExhausted is returned with the
// per-attempt reasons attached.
func (g *Generator) Generate(ctx context.Context, userRating, streak int, preferred tactics.Set) (*Puzzle, error) {
	var attempts error
	for i := 0; i < g.conf.MaxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "puzzle: generation canceled")
		}
		p, err := g.attempt(ctx, userRating, streak, preferred)
		if err != nil {
			if g.conf.Verbose {
				log.Printf("puzzle: attempt %d rejected: %v", i+1, err)
			}
			attempts = multierror.Append(attempts, errors.WithMessagef(err, "attempt %d", i+1))
			continue
		}
		return p, nil
	}
	return nil, errors.Wrapf(ErrGenerationExhausted, "%d attempts: %v", g.conf.MaxRetries, attempts)
}

func (g *Generator) attempt(ctx context.Context, userRating, streak int, preferred tactics.Set) (*Puzzle, error) {
	pos := g.randomGame()
	if pos.Terminal() {
		return nil, errors.New("random game ended before a playable position")
	}

	static := search.Evaluate(pos)
	res := g.eng.Search(ctx, pos, g.conf.SearchDepth)
	if res.BestMove == nil {
		return nil, errors.New("no legal moves at candidate position")
	}
	swing := res.Score - static
	if swing < 0 {
		swing = -swing
	}
	if swing < g.conf.SwingThreshold {
		return nil, errors.Errorf("swing %dcp below threshold", swing)
	}

	start := pos.Clone()
	line, err := g.solutionLine(ctx, pos, res)
	if err != nil {
		return nil, err
	}

	themes := g.det.Detect(start)
	if len(preferred) > 0 {
		themes = themes.Intersect(preferred)
		if len(themes) == 0 {
			return nil, errors.New("no preferred theme present")
		}
	}

	created := time.Now()
	p := &Puzzle{
		ID:               newID(start, created),
		StartingPosition: start.FEN(),
		SolutionLine:     line,
		Themes:           themes.Slice(),
		TargetRating:     g.targetRating(userRating, streak),
		CreatedAt:        created,
	}
	p.Difficulty = BandFor(p.TargetRating)
	if err := p.Replay(); err != nil {
		return nil, err
	}
	return p, nil
}

// randomGame plays uniform random legal moves from the start position
// for 20-40 plies, stopping early at a terminal position.
func (g *Generator) randomGame() *game.Position {
	plies := g.conf.MinPlies
	if spread := g.conf.MaxPlies - g.conf.MinPlies; spread > 0 {
		plies += int(g.rng.Int32n(int32(spread + 1)))
	}
	pos := game.Starting()
	for i := 0; i < plies && !pos.Terminal(); i++ {
		moves := pos.LegalMoves()
		if len(moves) == 0 {
			break
		}
		pos.Apply(moves[g.rng.Int32n(int32(len(moves)))])
	}
	return pos
}

// solutionLine re-derives best move, best reply and one more best move,
// truncating when the line reaches a terminal position.
func (g *Generator) solutionLine(ctx context.Context, pos *game.Position, first search.Result) ([]string, error) {
	line := make([]string, 0, solutionLineLen)
	res := first
	for len(line) < solutionLineLen {
		if res.BestMove == nil {
			break
		}
		line = append(line, pos.EncodeSAN(res.BestMove))
		pos.Apply(res.BestMove)
		if pos.Terminal() {
			break
		}
		res = g.eng.Search(ctx, pos, g.conf.SearchDepth)
	}
	if len(line) == 0 {
		return nil, errors.New("empty solution line")
	}
	return line, nil
}

// targetRating samples uniformly in a band around the user's rating. The
// band widens with the current streak, up to a cap, then the sample is
// clamped to the rating bounds.
func (g *Generator) targetRating(userRating, streak int) int {
	band := baseRatingBand + streakBandStep*streak
	if band > maxRatingBand {
		band = maxRatingBand
	}
	target := userRating - band + int(g.rng.Int32n(int32(2*band+1)))
	if target < rating.Floor {
		target = rating.Floor
	}
	if target > rating.Ceil {
		target = rating.Ceil
	}
	return target
}
