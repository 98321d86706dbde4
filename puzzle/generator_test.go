package puzzle

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxts0gt/tacticore/rating"
	"github.com/maxts0gt/tacticore/tactics"
)

func TestNewGeneratorPanicsOnBadConfig(t *testing.T) {
	bad := DefaultGeneratorConfig()
	bad.MaxPlies = bad.MinPlies - 1
	assert.Panics(t, func() { NewGenerator(bad) })
	assert.Panics(t, func() { NewGenerator(GeneratorConfig{}) })
}

func TestGenerateProducesConsistentPuzzle(t *testing.T) {
	if testing.Short() {
		t.Skip("puzzle generation searches many positions")
	}
	conf := DefaultGeneratorConfig()
	conf.Seed = 42
	conf.SearchDepth = 2
	gen := NewGenerator(conf)

	p, err := gen.Generate(context.Background(), 1200, 0, nil)
	if errors.Cause(err) == ErrGenerationExhausted {
		// Random games can legitimately fail to produce a swing within
		// the retry limit; the contract is the explicit error, not a
		// guaranteed puzzle.
		return
	}
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.NoError(t, p.Replay(), "generated solution must replay cleanly")
	assert.GreaterOrEqual(t, len(p.SolutionLine), 1)
	assert.LessOrEqual(t, len(p.SolutionLine), solutionLineLen)
	assert.GreaterOrEqual(t, p.TargetRating, 1200-baseRatingBand)
	assert.LessOrEqual(t, p.TargetRating, 1200+baseRatingBand)
	assert.Equal(t, BandFor(p.TargetRating), p.Difficulty)
	for _, th := range p.Themes {
		assert.True(t, th.Valid(), th)
	}
	assert.False(t, p.Solved)
	assert.Zero(t, p.Attempts)
}

func TestGenerateRespectsPreferredThemes(t *testing.T) {
	if testing.Short() {
		t.Skip("puzzle generation searches many positions")
	}
	conf := DefaultGeneratorConfig()
	conf.Seed = 7
	conf.SearchDepth = 2
	conf.MaxRetries = 8
	gen := NewGenerator(conf)

	preferred := tactics.NewSet(tactics.Fork)
	p, err := gen.Generate(context.Background(), 1200, 0, preferred)
	if err != nil {
		// Never a silent miss: the only allowed failure is the
		// explicit exhaustion error.
		assert.Equal(t, ErrGenerationExhausted, errors.Cause(err))
		return
	}
	assert.True(t, p.HasTheme(tactics.Fork))
}

func TestGenerateHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := NewGenerator(DefaultGeneratorConfig())
	_, err := gen.Generate(ctx, 1200, 0, nil)
	require.Error(t, err)
	assert.Equal(t, context.Canceled, errors.Cause(err))
}

func TestTargetRatingStaysInBand(t *testing.T) {
	conf := DefaultGeneratorConfig()
	conf.Seed = 1
	gen := NewGenerator(conf)

	for i := 0; i < 200; i++ {
		r := gen.targetRating(1200, 0)
		assert.GreaterOrEqual(t, r, 1000)
		assert.LessOrEqual(t, r, 1400)
	}
	// A long streak widens the band up to the cap.
	for i := 0; i < 200; i++ {
		r := gen.targetRating(1200, 50)
		assert.GreaterOrEqual(t, r, 1200-maxRatingBand)
		assert.LessOrEqual(t, r, 1200+maxRatingBand)
	}
	// Clamping near the floor and ceiling.
	for i := 0; i < 50; i++ {
		assert.GreaterOrEqual(t, gen.targetRating(120, 0), rating.Floor)
		assert.LessOrEqual(t, gen.targetRating(2950, 0), rating.Ceil)
	}
}

func TestRandomGameLengthBounds(t *testing.T) {
	conf := DefaultGeneratorConfig()
	conf.Seed = 3
	gen := NewGenerator(conf)
	for i := 0; i < 5; i++ {
		pos := gen.randomGame()
		assert.LessOrEqual(t, pos.Plies(), conf.MaxPlies)
		if !pos.Terminal() {
			assert.GreaterOrEqual(t, pos.Plies(), conf.MinPlies)
		}
	}
}
