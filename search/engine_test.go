package search

import (
	"context"
	"testing"
	"time"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxts0gt/tacticore/game"
)

func TestNewPanicsOnBadConfig(t *testing.T) {
	assert.Panics(t, func() { New(Config{MaxDepth: 0}) })
	assert.Panics(t, func() { New(Config{MaxDepth: 99}) })
}

func TestSearchFindsMateInOne(t *testing.T) {
	pos := mustFEN(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	eng := New(Config{MaxDepth: 2})
	res := eng.Search(context.Background(), pos, 0)
	require.NotNil(t, res.BestMove)
	assert.Equal(t, "Ra8#", pos.EncodeSAN(res.BestMove))
	assert.GreaterOrEqual(t, res.Score, MateScore)
	assert.Equal(t, res.BestMove, res.Line[0])
}

func TestSearchFindsMateForBlack(t *testing.T) {
	// Mirrored back-rank mate; the score must come out near -MateScore
	// since scores are always White-positive.
	pos := mustFEN(t, "r5k1/8/8/8/8/8/5PPP/6K1 b - - 0 1")
	eng := New(Config{MaxDepth: 2})
	res := eng.Search(context.Background(), pos, 0)
	require.NotNil(t, res.BestMove)
	assert.Equal(t, "Ra1#", pos.EncodeSAN(res.BestMove))
	assert.LessOrEqual(t, res.Score, -MateScore)
}

func TestSearchTakesHangingQueen(t *testing.T) {
	// Black queen on d5 is en prise to the rook on d1.
	pos := mustFEN(t, "4k3/8/8/3q4/8/8/8/3RK3 w - - 0 1")
	eng := New(DefaultConfig())
	res := eng.Search(context.Background(), pos, 0)
	require.NotNil(t, res.BestMove)
	assert.Equal(t, chess.D5, res.BestMove.S2())
}

func TestSearchFindsTwoMoverMate(t *testing.T) {
	// Ra7 seals the seventh rank, Kg8 is forced, Rb8 mates.
	pos := mustFEN(t, "7k/8/8/8/8/8/R7/1R4K1 w - - 0 1")
	eng := New(Config{MaxDepth: 4})
	res := eng.Search(context.Background(), pos, 0)
	require.NotNil(t, res.BestMove)
	assert.Greater(t, res.Score, MateScore, "a forced mate carries the sentinel")
}

func TestSearchOnTerminalPositions(t *testing.T) {
	mated := mustFEN(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	eng := New(DefaultConfig())
	res := eng.Search(context.Background(), mated, 0)
	assert.Nil(t, res.BestMove, "no legal moves means no best move")
	assert.LessOrEqual(t, res.Score, -MateScore, "white is mated, so the sentinel favors black")

	stale := mustFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	res = eng.Search(context.Background(), stale, 0)
	assert.Nil(t, res.BestMove)
	assert.Zero(t, res.Score, "draws score exactly zero")
}

func TestSearchHonorsDeadline(t *testing.T) {
	pos := game.Starting()
	eng := New(Config{MaxDepth: 8})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	res := eng.Search(ctx, pos, 0)
	assert.NotNil(t, res.BestMove, "an expired deadline still yields a move")
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Less(t, res.Depth, 8)
}

func TestSearchDoesNotMutatePosition(t *testing.T) {
	pos := game.Starting()
	before := pos.FEN()
	eng := New(Config{MaxDepth: 2})
	eng.Search(context.Background(), pos, 0)
	assert.Equal(t, before, pos.FEN())
}

func TestAdaptiveDepthExtendsInEndgame(t *testing.T) {
	pos := mustFEN(t, "7k/8/8/8/8/8/R7/1R4K1 w - - 0 1")
	eng := New(Config{MaxDepth: 2, AdaptiveDepth: true})
	res := eng.Search(context.Background(), pos, 0)
	require.NotNil(t, res.BestMove)
	// Depth 2+2 is enough to see Ra7 followed by Rb8 mate.
	assert.Greater(t, res.Score, MateScore)
}

func TestOrderMovesPutsCapturesFirst(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/3q4/8/8/8/3RK3 w - - 0 1")
	moves := orderMoves(pos, pos.LegalMoves())
	require.NotEmpty(t, moves)
	assert.Equal(t, chess.D5, moves[0].S2(), "queen capture must sort first")
}

func TestOrderMovesPrefersCheaperAttacker(t *testing.T) {
	// Pawn and queen can both take the rook; the pawn capture sorts first.
	pos := mustFEN(t, "4k3/8/8/3r4/2P5/8/3Q4/4K3 w - - 0 1")
	moves := orderMoves(pos, pos.LegalMoves())
	require.GreaterOrEqual(t, len(moves), 2)
	assert.Equal(t, chess.C4, moves[0].S1(), "pawn takes sorts above queen takes")
	assert.Equal(t, chess.D2, moves[1].S1())
	assert.Equal(t, chess.D5, moves[1].S2())
}

// plainMinimax is an unpruned reference implementation used as a
// differential oracle for the alpha-beta searcher. Side-relative score.
func plainMinimax(pos *game.Position, depth, ply int) int {
	if pos.IsCheckmate() {
		return -(MateScore + matePlyBonus(ply))
	}
	if pos.IsDraw() {
		return 0
	}
	if depth <= 0 {
		score := Evaluate(pos)
		if pos.Turn() == chess.Black {
			score = -score
		}
		return score
	}
	best := -inf
	for _, m := range orderMoves(pos, pos.LegalMoves()) {
		pos.Apply(m)
		score := -plainMinimax(pos, depth-1, ply+1)
		pos.Undo()
		if score > best {
			best = score
		}
	}
	return best
}

func TestAlphaBetaMatchesPlainMinimax(t *testing.T) {
	fens := []string{
		"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
		"4k3/8/8/3q4/8/8/8/3RK3 w - - 0 1",
		"4k3/4r3/8/8/4R3/8/8/4K3 b - - 0 1",
		"8/P6k/8/8/8/8/8/K7 w - - 0 1",
	}
	const depth = 3
	for _, fen := range fens {
		pos := mustFEN(t, fen)
		eng := New(Config{MaxDepth: depth})
		res := eng.Search(context.Background(), pos, depth)
		require.NotNil(t, res.BestMove, fen)

		oracle := pos.Clone()
		var want int
		best := -inf
		for _, m := range orderMoves(oracle, oracle.LegalMoves()) {
			oracle.Apply(m)
			score := -plainMinimax(oracle, depth-1, 1)
			oracle.Undo()
			if score > best {
				best = score
			}
		}
		want = best
		if pos.Turn() == chess.Black {
			want = -want
		}
		assert.Equal(t, want, res.Score, "alpha-beta must agree with unpruned minimax on %s", fen)
	}
}
