package game

import (
	"strings"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// flipTurnFEN switches the side to move and clears the en passant square.
// Everything else in the FEN is preserved.
func flipTurnFEN(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return fen
	}
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	fields[3] = "-"
	return strings.Join(fields, " ")
}

// expandBoard turns the FEN board field into 64 runes, a8 first.
func expandBoard(field string) ([]rune, error) {
	cells := make([]rune, 0, 64)
	for _, r := range field {
		switch {
		case r == '/':
		case r >= '1' && r <= '8':
			for i := rune(0); i < r-'0'; i++ {
				cells = append(cells, '.')
			}
		default:
			cells = append(cells, r)
		}
	}
	if len(cells) != 64 {
		return nil, errors.Errorf("game: malformed board field %q", field)
	}
	return cells, nil
}

// compressBoard is the inverse of expandBoard.
func compressBoard(cells []rune) string {
	var sb strings.Builder
	for rank := 0; rank < 8; rank++ {
		empty := 0
		for file := 0; file < 8; file++ {
			c := cells[rank*8+file]
			if c == '.' {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteRune(rune('0' + empty))
				empty = 0
			}
			sb.WriteRune(c)
		}
		if empty > 0 {
			sb.WriteRune(rune('0' + empty))
		}
		if rank < 7 {
			sb.WriteRune('/')
		}
	}
	return sb.String()
}

// cellIndex maps a square to its offset in the expanded board (a8 first).
func cellIndex(sq chess.Square) int {
	return (7-int(sq.Rank()))*8 + int(sq.File())
}

// removePieceFEN clears the piece on sq and resets the en passant square
// and castling rights touching sq.
func removePieceFEN(fen string, sq chess.Square) (string, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return "", errors.Errorf("game: malformed fen %q", fen)
	}
	cells, err := expandBoard(fields[0])
	if err != nil {
		return "", err
	}
	idx := cellIndex(sq)
	if cells[idx] == '.' {
		return "", errors.Errorf("game: no piece on %v", sq)
	}
	cells[idx] = '.'
	fields[0] = compressBoard(cells)
	fields[2] = stripCastlingFor(fields[2], sq)
	fields[3] = "-"
	return strings.Join(fields, " "), nil
}

// recolorPieceFEN flips the color of the piece on sq. Castling rights for
// the affected rook squares are dropped since a recolored rook can no
// longer castle.
func recolorPieceFEN(fen string, sq chess.Square) (string, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return "", errors.Errorf("game: malformed fen %q", fen)
	}
	cells, err := expandBoard(fields[0])
	if err != nil {
		return "", err
	}
	idx := cellIndex(sq)
	c := cells[idx]
	if c == '.' {
		return "", errors.Errorf("game: no piece on %v", sq)
	}
	if c >= 'a' && c <= 'z' {
		cells[idx] = c - 'a' + 'A'
	} else {
		cells[idx] = c - 'A' + 'a'
	}
	fields[0] = compressBoard(cells)
	fields[2] = stripCastlingFor(fields[2], sq)
	fields[3] = "-"
	return strings.Join(fields, " "), nil
}

func stripCastlingFor(rights string, sq chess.Square) string {
	if rights == "-" {
		return rights
	}
	drop := map[chess.Square]string{
		chess.H1: "K", chess.A1: "Q", chess.E1: "KQ",
		chess.H8: "k", chess.A8: "q", chess.E8: "kq",
	}[sq]
	for _, r := range drop {
		rights = strings.ReplaceAll(rights, string(r), "")
	}
	if rights == "" {
		rights = "-"
	}
	return rights
}
