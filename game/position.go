// Package game adapts the notnil/chess rules engine for the rest of the
// module. All chess legality (move generation, check and mate detection,
// notation) is decided by the library; this package only layers an
// apply/undo history and a few board queries on top of it.
package game

import (
	"strconv"
	"strings"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// Position is a board state with its apply history. Apply pushes a new
// immutable library position and Undo pops it, so apply-then-undo always
// restores the exact prior state, side to move and counters included.
//
// A Position must not be mutated from two goroutines at once; concurrent
// searches each take their own Clone.
type Position struct {
	stack []*chess.Position
}

// Starting returns the standard initial position.
func Starting() *Position {
	return &Position{stack: []*chess.Position{chess.NewGame().Position()}}
}

// ParseFEN builds a Position from a FEN string.
func ParseFEN(fen string) (*Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, errors.Wrapf(err, "game: parse fen %q", fen)
	}
	return &Position{stack: []*chess.Position{chess.NewGame(opt).Position()}}, nil
}

func (p *Position) current() *chess.Position {
	return p.stack[len(p.stack)-1]
}

// Clone returns an independent copy sharing no mutable state.
func (p *Position) Clone() *Position {
	stack := make([]*chess.Position, len(p.stack))
	copy(stack, p.stack)
	return &Position{stack: stack}
}

// FEN returns the current position in FEN form.
func (p *Position) FEN() string { return p.current().String() }

// Turn returns the side to move.
func (p *Position) Turn() chess.Color { return p.current().Turn() }

// LegalMoves returns the legal moves for the side to move. The returned
// slice is owned by the caller and safe to reorder.
func (p *Position) LegalMoves() []*chess.Move {
	src := p.current().ValidMoves()
	moves := make([]*chess.Move, len(src))
	copy(moves, src)
	return moves
}

// MovesFrom returns the legal moves originating on sq.
func (p *Position) MovesFrom(sq chess.Square) []*chess.Move {
	var moves []*chess.Move
	for _, m := range p.current().ValidMoves() {
		if m.S1() == sq {
			moves = append(moves, m)
		}
	}
	return moves
}

// Apply plays a move obtained from this position's move list.
func (p *Position) Apply(m *chess.Move) {
	p.stack = append(p.stack, p.current().Update(m))
}

// Undo reverts the most recent Apply. It reports false at the root.
func (p *Position) Undo() bool {
	if len(p.stack) <= 1 {
		return false
	}
	p.stack = p.stack[:len(p.stack)-1]
	return true
}

// Plies returns how many moves have been applied since construction.
func (p *Position) Plies() int { return len(p.stack) - 1 }

// IsCheckmate reports whether the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.current().Status() == chess.Checkmate
}

// IsStalemate reports whether the side to move is stalemated.
func (p *Position) IsStalemate() bool {
	return p.current().Status() == chess.Stalemate
}

// IsDraw reports stalemate, insufficient mating material or an exhausted
// fifty-move counter. Repetition draws need full game context and are the
// host's concern.
func (p *Position) IsDraw() bool {
	if p.IsStalemate() {
		return true
	}
	if p.insufficientMaterial() {
		return true
	}
	fields := strings.Fields(p.FEN())
	if len(fields) >= 5 {
		if clock, err := strconv.Atoi(fields[4]); err == nil && clock >= 100 {
			return true
		}
	}
	return false
}

// Terminal reports whether the game is over at this position.
func (p *Position) Terminal() bool { return p.IsCheckmate() || p.IsDraw() }

func (p *Position) insufficientMaterial() bool {
	minors := 0
	for _, pc := range p.PieceMap() {
		switch pc.Type() {
		case chess.King:
		case chess.Knight, chess.Bishop:
			minors++
		default:
			return false
		}
	}
	return minors <= 1
}

// PieceMap returns the occupied squares.
func (p *Position) PieceMap() map[chess.Square]chess.Piece {
	m := make(map[chess.Square]chess.Piece)
	for sq, pc := range p.current().Board().SquareMap() {
		if pc != chess.NoPiece {
			m[sq] = pc
		}
	}
	return m
}

// KingSquare returns the square of c's king.
func (p *Position) KingSquare(c chess.Color) chess.Square {
	for sq, pc := range p.current().Board().SquareMap() {
		if pc.Type() == chess.King && pc.Color() == c {
			return sq
		}
	}
	return chess.NoSquare
}

// PieceAt returns the piece on sq, chess.NoPiece when empty.
func (p *Position) PieceAt(sq chess.Square) chess.Piece {
	return p.current().Board().Piece(sq)
}

// NullMove returns the position with only the side to move flipped (the
// en passant square is cleared). It underpins opponent mobility counts and
// attack maps: the library's move generator is run for the side that is
// not actually on turn.
func (p *Position) NullMove() (*Position, error) {
	return ParseFEN(flipTurnFEN(p.FEN()))
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	kingSq := p.KingSquare(p.Turn())
	if kingSq == chess.NoSquare {
		return false
	}
	return p.AttackersOf(kingSq, p.Turn().Other()) > 0
}

// AttackersOf counts the pieces of color by with a legal move onto sq.
// When sq holds one of by's own pieces the occupant is recolored first so
// the generator still decides reachability; counting a side's "attackers"
// of its own piece therefore yields its defender count.
func (p *Position) AttackersOf(sq chess.Square, by chess.Color) int {
	fen := p.FEN()
	occupant := p.PieceAt(sq)
	if occupant != chess.NoPiece && occupant.Color() == by {
		if occupant.Type() == chess.King {
			return 0
		}
		var err error
		fen, err = recolorPieceFEN(fen, sq)
		if err != nil {
			return 0
		}
	}
	if p.Turn() != by {
		fen = flipTurnFEN(fen)
	}
	probe, err := ParseFEN(fen)
	if err != nil {
		return 0
	}
	seen := map[chess.Square]struct{}{}
	for _, m := range probe.current().ValidMoves() {
		if m.S2() == sq {
			seen[m.S1()] = struct{}{}
		}
	}
	return len(seen)
}

// WithoutPiece returns the position with the (non-king) piece on sq
// removed. Used for the absolute-pin test: removing a pinned piece
// exposes its own king.
func (p *Position) WithoutPiece(sq chess.Square) (*Position, error) {
	pc := p.PieceAt(sq)
	if pc == chess.NoPiece {
		return nil, errors.Errorf("game: no piece on %v", sq)
	}
	if pc.Type() == chess.King {
		return nil, errors.New("game: cannot remove a king")
	}
	fen, err := removePieceFEN(p.FEN(), sq)
	if err != nil {
		return nil, err
	}
	return ParseFEN(fen)
}

// EncodeSAN renders m in standard algebraic notation for this position.
func (p *Position) EncodeSAN(m *chess.Move) string {
	return chess.AlgebraicNotation{}.Encode(p.current(), m)
}

// DecodeMove parses a move in UCI ("e2e4") or SAN ("Nf3") form.
func (p *Position) DecodeMove(s string) (*chess.Move, error) {
	if m, err := (chess.UCINotation{}).Decode(p.current(), s); err == nil {
		return m, nil
	}
	if m, err := (chess.AlgebraicNotation{}).Decode(p.current(), s); err == nil {
		return m, nil
	}
	m, err := chess.LongAlgebraicNotation{}.Decode(p.current(), s)
	if err != nil {
		return nil, errors.Wrapf(err, "game: decode move %q", s)
	}
	return m, nil
}

// Hash returns the library's position hash.
func (p *Position) Hash() [16]byte { return p.current().Hash() }

// Draw renders the board as text, for CLI display.
func (p *Position) Draw() string { return p.current().Board().Draw() }
