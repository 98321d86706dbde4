package game

import (
	"math/rand"
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestParseFENRoundTrip(t *testing.T) {
	fens := []string{
		startFEN,
		"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
		"4k3/4r3/8/8/4R3/8/8/4K3 b - - 0 1",
		"8/P6k/8/8/8/8/8/K7 w - - 0 1",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		require.NoError(t, err)
		assert.Equal(t, fen, pos.FEN())
	}
}

func TestParseFENRejectsGarbage(t *testing.T) {
	_, err := ParseFEN("not a fen")
	assert.Error(t, err)
}

func TestApplyUndoRestoresState(t *testing.T) {
	pos := Starting()
	rng := rand.New(rand.NewSource(7))
	var fens []string
	for i := 0; i < 30; i++ {
		if pos.Terminal() {
			break
		}
		fens = append(fens, pos.FEN())
		moves := pos.LegalMoves()
		pos.Apply(moves[rng.Intn(len(moves))])
	}
	for i := len(fens) - 1; i >= 0; i-- {
		require.True(t, pos.Undo())
		assert.Equal(t, fens[i], pos.FEN())
	}
	assert.False(t, pos.Undo(), "undo at the root must fail")
}

func TestCloneIsIndependent(t *testing.T) {
	pos := Starting()
	clone := pos.Clone()
	pos.Apply(pos.LegalMoves()[0])
	assert.Equal(t, startFEN, clone.FEN())
	assert.NotEqual(t, pos.FEN(), clone.FEN())
}

func TestStatusQueries(t *testing.T) {
	mate, err := ParseFEN("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	require.NoError(t, err)
	assert.True(t, mate.IsCheckmate())
	assert.True(t, mate.Terminal())
	assert.True(t, mate.InCheck())

	stale, err := ParseFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	require.NoError(t, err)
	assert.True(t, stale.IsStalemate())
	assert.True(t, stale.IsDraw())
	assert.False(t, stale.IsCheckmate())

	bare, err := ParseFEN("8/8/4k3/8/8/4K3/8/8 w - - 0 1")
	require.NoError(t, err)
	assert.True(t, bare.IsDraw(), "bare kings are a draw")

	clock, err := ParseFEN("4k3/8/8/8/8/8/8/R3K3 w - - 100 80")
	require.NoError(t, err)
	assert.True(t, clock.IsDraw(), "fifty-move counter exhausted")
}

func TestKingSquareAndPieceMap(t *testing.T) {
	pos := Starting()
	assert.Equal(t, chess.E1, pos.KingSquare(chess.White))
	assert.Equal(t, chess.E8, pos.KingSquare(chess.Black))
	assert.Len(t, pos.PieceMap(), 32)
	assert.Equal(t, chess.WhiteQueen, pos.PieceAt(chess.D1))
	assert.Equal(t, chess.NoPiece, pos.PieceAt(chess.E4))
}

func TestNullMoveFlipsTurn(t *testing.T) {
	pos := Starting()
	flipped, err := pos.NullMove()
	require.NoError(t, err)
	assert.Equal(t, chess.Black, flipped.Turn())
	assert.Len(t, flipped.LegalMoves(), 20)
}

func TestAttackersOf(t *testing.T) {
	// White rook on e4 is attacked by the black rook on e7 and defended
	// by nothing.
	pos, err := ParseFEN("4k3/4r3/8/8/4R3/8/8/4K3 b - - 0 1")
	require.NoError(t, err)
	assert.Equal(t, 1, pos.AttackersOf(chess.E4, chess.Black))
	assert.Equal(t, 0, pos.AttackersOf(chess.E4, chess.White))

	// d4 pawn guarded by the c3 pawn, attacked by the e5 pawn.
	pos, err = ParseFEN("4k3/8/8/4p3/3P4/2P5/8/4K3 w - - 0 1")
	require.NoError(t, err)
	assert.Equal(t, 1, pos.AttackersOf(chess.D4, chess.White))
	assert.Equal(t, 1, pos.AttackersOf(chess.D4, chess.Black))
}

func TestWithoutPiece(t *testing.T) {
	pos, err := ParseFEN("4k3/4r3/8/8/4R3/8/8/4K3 b - - 0 1")
	require.NoError(t, err)

	stripped, err := pos.WithoutPiece(chess.E7)
	require.NoError(t, err)
	assert.Equal(t, chess.NoPiece, stripped.PieceAt(chess.E7))

	_, err = pos.WithoutPiece(chess.E8)
	assert.Error(t, err, "kings cannot be removed")

	_, err = pos.WithoutPiece(chess.A4)
	assert.Error(t, err, "empty square")
}

func TestDecodeMoveAcceptsUCIAndSAN(t *testing.T) {
	pos := Starting()
	uci, err := pos.DecodeMove("g1f3")
	require.NoError(t, err)
	san, err := pos.DecodeMove("Nf3")
	require.NoError(t, err)
	assert.Equal(t, uci.S1(), san.S1())
	assert.Equal(t, uci.S2(), san.S2())
	assert.Equal(t, "Nf3", pos.EncodeSAN(uci))

	_, err = pos.DecodeMove("zz9")
	assert.Error(t, err)
}

func TestMovesFrom(t *testing.T) {
	pos := Starting()
	assert.Len(t, pos.MovesFrom(chess.G1), 2)
	assert.Empty(t, pos.MovesFrom(chess.A1))
}

func TestFENSurgery(t *testing.T) {
	flipped := flipTurnFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 1", flipped)

	removed, err := removePieceFEN(startFEN, chess.A1)
	require.NoError(t, err)
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/1NBQKBNR w Kkq - 0 1", removed)

	recolored, err := recolorPieceFEN(startFEN, chess.E2)
	require.NoError(t, err)
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPpPPP/RNBQKBNR w KQkq - 0 1", recolored)
}
