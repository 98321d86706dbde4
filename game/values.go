package game

import "github.com/notnil/chess"

// Centipawn material values shared by the evaluator and the tactics
// detector. Kings carry no material value.
var pieceValues = map[chess.PieceType]int{
	chess.Pawn:   100,
	chess.Knight: 320,
	chess.Bishop: 330,
	chess.Rook:   500,
	chess.Queen:  900,
	chess.King:   0,
}

// PieceValue returns the centipawn value of a piece type.
func PieceValue(t chess.PieceType) int { return pieceValues[t] }
