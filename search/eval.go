package search

import (
	"github.com/notnil/chess"

	"github.com/maxts0gt/tacticore/game"
)

const (
	// Below this much non-pawn material per side the king tables switch
	// to the endgame set.
	endgameMaterialThreshold = 1500

	mobilityWeight    = 10
	doubledPawnMalus  = 15
	pawnShieldBonus   = 20
	openKingFileMalus = 15
)

// Evaluate scores the position statically in centipawns, positive for
// White regardless of the side to move. Terminal positions are the
// caller's concern; Evaluate only looks at the material on the board.
func Evaluate(pos *game.Position) int {
	pieces := pos.PieceMap()
	endgame := isEndgame(pieces)

	score := 0
	for sq, pc := range pieces {
		v := game.PieceValue(pc.Type()) + pstBonus(pc, sq, endgame)
		if pc.Color() == chess.White {
			score += v
		} else {
			score -= v
		}
	}

	score += doubledPawns(pieces, chess.Black)*doubledPawnMalus -
		doubledPawns(pieces, chess.White)*doubledPawnMalus

	score += kingSafety(pos, pieces, chess.White, endgame) -
		kingSafety(pos, pieces, chess.Black, endgame)

	score += mobility(pos) * mobilityWeight
	return score
}

func isEndgame(pieces map[chess.Square]chess.Piece) bool {
	white, black := 0, 0
	for _, pc := range pieces {
		if pc.Type() == chess.Pawn || pc.Type() == chess.King {
			continue
		}
		if pc.Color() == chess.White {
			white += game.PieceValue(pc.Type())
		} else {
			black += game.PieceValue(pc.Type())
		}
	}
	return white <= endgameMaterialThreshold && black <= endgameMaterialThreshold
}

// doubledPawns counts pawns beyond the first on each file.
func doubledPawns(pieces map[chess.Square]chess.Piece, c chess.Color) int {
	var perFile [8]int
	for sq, pc := range pieces {
		if pc.Type() == chess.Pawn && pc.Color() == c {
			perFile[int(sq.File())]++
		}
	}
	doubled := 0
	for _, n := range perFile {
		if n > 1 {
			doubled += n - 1
		}
	}
	return doubled
}

// kingSafety rewards an intact pawn shield in front of the king and
// penalizes an open king file. In the endgame the shield stops
// mattering; the king tables already pull it to the center.
func kingSafety(pos *game.Position, pieces map[chess.Square]chess.Piece, c chess.Color, endgame bool) int {
	if endgame {
		return 0
	}
	kingSq := pos.KingSquare(c)
	if kingSq == chess.NoSquare {
		return 0
	}
	forward := 1
	if c == chess.Black {
		forward = -1
	}
	score := 0
	shieldRank := int(kingSq.Rank()) + forward
	kingFileHasPawn := false
	for df := -1; df <= 1; df++ {
		file := int(kingSq.File()) + df
		if file < 0 || file > 7 || shieldRank < 0 || shieldRank > 7 {
			continue
		}
		sq := chess.Square(shieldRank*8 + file)
		if pc, ok := pieces[sq]; ok && pc.Type() == chess.Pawn && pc.Color() == c {
			score += pawnShieldBonus
			if df == 0 {
				kingFileHasPawn = true
			}
		}
	}
	if !kingFileHasPawn {
		score -= openKingFileMalus
	}
	return score
}

// mobility returns White's legal-move count minus Black's. The side not
// on turn is counted through a null move, so a side in check reads as
// having its true evasion count only when it is on turn; the null-moved
// side is counted as if the check did not bind it.
func mobility(pos *game.Position) int {
	own := len(pos.LegalMoves())
	opp := 0
	if flipped, err := pos.NullMove(); err == nil {
		opp = len(flipped.LegalMoves())
	}
	if pos.Turn() == chess.White {
		return own - opp
	}
	return opp - own
}
