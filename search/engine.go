// Package search implements a depth-limited alpha-beta engine over the
// game adapter, with a static evaluator as its leaf function.
package search

import (
	"context"
	"log"
	"sort"

	"github.com/notnil/chess"
	"github.com/pkg/errors"

	"github.com/maxts0gt/tacticore/game"
)

const (
	// MateScore is the sentinel magnitude for forced mates. A mate
	// delivered n plies from the root scores MateScore + (MaxMatePly - n)
	// in magnitude, so nearer mates score higher.
	MateScore = 9000

	// MaxMatePly bounds the mate-distance adjustment.
	MaxMatePly = 100

	inf = 1 << 20

	// How many nodes pass between deadline polls.
	checkInterval = 256
)

// Config holds the engine parameters.
type Config struct {
	// MaxDepth is the default search depth in plies, used when a call
	// does not supply its own.
	MaxDepth int `json:"max_depth"`

	// AdaptiveDepth extends the depth by two plies when little material
	// remains on the board.
	AdaptiveDepth bool `json:"adaptive_depth"`

	// Verbose logs per-iteration results.
	Verbose bool `json:"verbose"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:      3,
		AdaptiveDepth: true,
	}
}

// IsValid checks the config fields.
func (c Config) IsValid() bool {
	return c.MaxDepth >= 1 && c.MaxDepth <= 10
}

// Result is the outcome of a search. BestMove is nil only for terminal
// positions; callers must branch on it before applying the move.
type Result struct {
	// BestMove is the chosen move for the side on turn, nil when the
	// position has no legal moves.
	BestMove *chess.Move

	// Score is the position value in centipawns from White's point of
	// view. Forced mates are reported in the ±MateScore sentinel range.
	Score int

	// Line is the principal variation starting with BestMove.
	Line []*chess.Move

	// Depth is the deepest fully completed iteration.
	Depth int

	// Nodes counts positions visited.
	Nodes int64
}

// Engine is a reusable alpha-beta searcher. Counters make it unsafe to
// share across goroutines; one Engine per worker.
type Engine struct {
	conf  Config
	nodes int64
	calls int64
}

// New creates an Engine. It panics on an invalid config, so a bad setup
// surfaces at construction rather than mid-game.
func New(conf Config) *Engine {
	if !conf.IsValid() {
		panic(errors.Errorf("search: invalid config %+v", conf))
	}
	return &Engine{conf: conf}
}

// Search runs iterative deepening up to maxDepth plies (the configured
// default when maxDepth <= 0) and returns the best move found. When the
// context deadline expires mid-iteration the deepest completed
// iteration's result is returned rather than an error. On a terminal
// position BestMove is nil and Score carries the terminal value. The
// position is cloned and never mutated.
func (e *Engine) Search(ctx context.Context, pos *game.Position, maxDepth int) Result {
	work := pos.Clone()
	if maxDepth <= 0 {
		maxDepth = e.conf.MaxDepth
	}
	if e.conf.AdaptiveDepth && isEndgame(work.PieceMap()) {
		maxDepth += 2
	}

	if work.Terminal() || len(work.LegalMoves()) == 0 {
		return Result{Score: terminalScore(work, 0)}
	}

	e.nodes = 0
	e.calls = 0
	white := work.Turn() == chess.White

	var best Result
	for depth := 1; depth <= maxDepth; depth++ {
		line, score, err := e.searchRoot(ctx, work, depth)
		if err != nil {
			break
		}
		if !white {
			score = -score
		}
		best = Result{BestMove: line[0], Score: score, Line: line, Depth: depth}
		if e.conf.Verbose {
			log.Printf("search: depth %d score %d best %v nodes %d", depth, score, line[0], e.nodes)
		}
		if score >= MateScore || score <= -MateScore {
			break
		}
	}
	if best.BestMove == nil {
		// The deadline fired before even a one-ply pass completed; any
		// legal move beats returning nothing.
		moves := orderMoves(work, work.LegalMoves())
		best = Result{BestMove: moves[0], Score: Evaluate(work), Line: moves[:1], Depth: 0}
	}
	best.Nodes = e.nodes
	return best
}

// terminalScore values a position with no legal moves, White-positive.
func terminalScore(pos *game.Position, ply int) int {
	if pos.IsCheckmate() {
		s := MateScore + matePlyBonus(ply)
		if pos.Turn() == chess.White {
			return -s
		}
		return s
	}
	return 0
}

// searchRoot runs one fixed-depth pass and returns the principal
// variation. The score is relative to the side on turn.
func (e *Engine) searchRoot(ctx context.Context, pos *game.Position, depth int) ([]*chess.Move, int, error) {
	moves := orderMoves(pos, pos.LegalMoves())
	var bestLine []*chess.Move
	alpha, beta := -inf, inf
	for _, m := range moves {
		pos.Apply(m)
		score, tail, err := e.alphaBeta(ctx, pos, depth-1, -beta, -alpha, 1)
		pos.Undo()
		if err != nil {
			return nil, 0, err
		}
		score = -score
		if score > alpha || bestLine == nil {
			alpha = score
			bestLine = append([]*chess.Move{m}, tail...)
		}
	}
	return bestLine, alpha, nil
}

func (e *Engine) alphaBeta(ctx context.Context, pos *game.Position, depth, alpha, beta, ply int) (int, []*chess.Move, error) {
	e.nodes++
	e.calls++
	if e.calls%checkInterval == 0 {
		select {
		case <-ctx.Done():
			return 0, nil, ctx.Err()
		default:
		}
	}

	if pos.IsCheckmate() {
		return -(MateScore + matePlyBonus(ply)), nil, nil
	}
	if pos.IsDraw() {
		return 0, nil, nil
	}
	if depth <= 0 {
		score := Evaluate(pos)
		if pos.Turn() == chess.Black {
			score = -score
		}
		return score, nil, nil
	}

	var bestLine []*chess.Move
	for _, m := range orderMoves(pos, pos.LegalMoves()) {
		pos.Apply(m)
		score, tail, err := e.alphaBeta(ctx, pos, depth-1, -beta, -alpha, ply+1)
		pos.Undo()
		if err != nil {
			return 0, nil, err
		}
		score = -score
		if score >= beta {
			return beta, nil, nil
		}
		if score > alpha {
			alpha = score
			bestLine = append([]*chess.Move{m}, tail...)
		}
	}
	return alpha, bestLine, nil
}

func matePlyBonus(ply int) int {
	if ply > MaxMatePly {
		ply = MaxMatePly
	}
	return MaxMatePly - ply
}

// orderMoves sorts captures first, most valuable victim then least
// valuable attacker, followed by checks and center-bound moves. Good
// ordering is what makes the beta cutoffs pay.
func orderMoves(pos *game.Position, moves []*chess.Move) []*chess.Move {
	scores := make(map[*chess.Move]int, len(moves))
	for _, m := range moves {
		s := 0
		if m.HasTag(chess.EnPassant) {
			s += 1000 + 9*game.PieceValue(chess.Pawn)
		} else if m.HasTag(chess.Capture) {
			victim := game.PieceValue(pos.PieceAt(m.S2()).Type())
			attacker := game.PieceValue(pos.PieceAt(m.S1()).Type())
			s += 1000 + 10*victim - attacker
		}
		if m.HasTag(chess.Check) {
			s += 500
		}
		if isCenter(m.S2()) {
			s += 10
		}
		scores[m] = s
	}
	sort.SliceStable(moves, func(i, j int) bool {
		return scores[moves[i]] > scores[moves[j]]
	})
	return moves
}

func isCenter(sq chess.Square) bool {
	f, r := int(sq.File()), int(sq.Rank())
	return f >= 2 && f <= 5 && r >= 2 && r <= 5
}
