package tactics

import (
	"github.com/notnil/chess"
	"github.com/pkg/errors"

	"github.com/maxts0gt/tacticore/game"
)

// Non-king piece count at or below which a position counts as an
// endgame for theme tagging.
const endgamePieceCount = 7

// Config holds the detector parameters.
type Config struct {
	// MaxMateDepth bounds the recursive mate check, in attacker moves.
	// The recursion is exponential, so this stays small.
	MaxMateDepth int `json:"max_mate_depth"`

	// HangingThreshold is the centipawn value a piece must exceed to be
	// reported as hanging.
	HangingThreshold int `json:"hanging_threshold"`
}

// DefaultConfig returns the detector defaults.
func DefaultConfig() Config {
	return Config{
		MaxMateDepth:     3,
		HangingThreshold: game.PieceValue(chess.Pawn),
	}
}

// IsValid checks the config fields.
func (c Config) IsValid() bool {
	return c.MaxMateDepth >= 1 && c.MaxMateDepth <= 3 && c.HangingThreshold >= 0
}

// Detector classifies positions. It holds no per-call state and is safe
// for concurrent use on distinct positions.
type Detector struct {
	conf Config
}

// NewDetector creates a Detector. It panics on an invalid config.
func NewDetector(conf Config) *Detector {
	if !conf.IsValid() {
		panic(errors.Errorf("tactics: invalid config %+v", conf))
	}
	return &Detector{conf: conf}
}

// Detect returns the themes present in the position. Each predicate is
// independent except the mate family, which reports only the shortest
// forced mate. Mates deeper than one move are searched through checking
// first moves only, so a quiet-first-move mate goes unreported. Terminal
// positions detect nothing.
func (d *Detector) Detect(pos *game.Position) Set {
	themes := make(Set)
	work := pos.Clone()
	if work.Terminal() {
		return themes
	}

	pieces := work.PieceMap()
	attacks := map[chess.Color]attackMap{
		chess.White: buildAttackMap(work, chess.White),
		chess.Black: buildAttackMap(work, chess.Black),
	}

	for n := 1; n <= d.conf.MaxMateDepth; n++ {
		if mateIn(work, n) {
			switch n {
			case 1:
				themes[MateIn1] = struct{}{}
			case 2:
				themes[MateIn2] = struct{}{}
			case 3:
				themes[MateIn3] = struct{}{}
			}
			break
		}
	}

	if d.fork(work) {
		themes[Fork] = struct{}{}
	}
	if d.pin(work, pieces) {
		themes[Pin] = struct{}{}
	}
	if d.hangingPiece(work, pieces, attacks) {
		themes[HangingPiece] = struct{}{}
	}
	if d.backRank(work) {
		themes[BackRank] = struct{}{}
	}
	if len(pieces)-2 <= endgamePieceCount {
		themes[Endgame] = struct{}{}
	}
	if d.promotion(work) {
		themes[Promotion] = struct{}{}
	}

	// Extension points, deliberately unimplemented: no agreed heuristic
	// exists yet for these three.
	if d.skewer(work) {
		themes[Skewer] = struct{}{}
	}
	if d.discoveredAttack(work) {
		themes[DiscoveredAttack] = struct{}{}
	}
	if d.doubleAttack(work) {
		themes[DoubleAttack] = struct{}{}
	}
	return themes
}

// attackMap indexes attacking origin squares by destination.
type attackMap map[chess.Square]map[chess.Square]struct{}

// buildAttackMap collects, per destination square, the squares of c's
// pieces with a legal move there. The side not on turn is generated
// through a null move.
func buildAttackMap(pos *game.Position, c chess.Color) attackMap {
	probe := pos
	if pos.Turn() != c {
		flipped, err := pos.NullMove()
		if err != nil {
			return attackMap{}
		}
		probe = flipped
	}
	am := make(attackMap)
	for _, m := range probe.LegalMoves() {
		if am[m.S2()] == nil {
			am[m.S2()] = make(map[chess.Square]struct{})
		}
		am[m.S2()][m.S1()] = struct{}{}
	}
	return am
}

// mateIn reports a forced mate for the side to move within n of its own
// moves. The first attacker move is unrestricted for n=1; deeper mates
// are only searched through checking moves, which keeps the exponential
// recursion tractable and matches how such mates are actually forced.
func mateIn(pos *game.Position, n int) bool {
	if n <= 0 {
		return pos.IsCheckmate()
	}
	for _, m := range pos.LegalMoves() {
		if n == 1 {
			pos.Apply(m)
			mated := pos.IsCheckmate()
			pos.Undo()
			if mated {
				return true
			}
			continue
		}
		if !m.HasTag(chess.Check) {
			continue
		}
		pos.Apply(m)
		forced := true
		replies := pos.LegalMoves()
		if len(replies) == 0 {
			forced = pos.IsCheckmate()
		}
		for _, r := range replies {
			pos.Apply(r)
			ok := mateIn(pos, n-1)
			pos.Undo()
			if !ok {
				forced = false
				break
			}
		}
		pos.Undo()
		if forced {
			return true
		}
	}
	return false
}

// fork fires when some legal move lands on a square from which the moved
// piece attacks two or more enemy pieces worth at least a minor piece.
// The king has no exchange value but is always a qualifying target, so
// the classic royal fork counts.
func (d *Detector) fork(pos *game.Position) bool {
	mover := pos.Turn()
	for _, m := range pos.LegalMoves() {
		pos.Apply(m)
		flipped, err := pos.NullMove()
		pos.Undo()
		if err != nil {
			continue
		}
		targets := 0
		seen := map[chess.Square]struct{}{}
		for _, mm := range flipped.MovesFrom(m.S2()) {
			pc := flipped.PieceAt(mm.S2())
			if pc == chess.NoPiece || pc.Color() == mover {
				continue
			}
			if pc.Type() != chess.King && game.PieceValue(pc.Type()) < game.PieceValue(chess.Knight) {
				continue
			}
			if _, dup := seen[mm.S2()]; dup {
				continue
			}
			seen[mm.S2()] = struct{}{}
			targets++
		}
		if targets >= 2 {
			return true
		}
	}
	return false
}

// pin fires when removing some non-king piece would expose its own king
// to check, the absolute-pin condition.
func (d *Detector) pin(pos *game.Position, pieces map[chess.Square]chess.Piece) bool {
	for sq, pc := range pieces {
		if pc.Type() == chess.King {
			continue
		}
		// A king already in check makes every removal look like an
		// exposure; skip that side.
		if pc.Color() == pos.Turn() && pos.InCheck() {
			continue
		}
		stripped, err := pos.WithoutPiece(sq)
		if err != nil {
			continue
		}
		kingSq := stripped.KingSquare(pc.Color())
		if kingSq == chess.NoSquare {
			continue
		}
		if stripped.AttackersOf(kingSq, pc.Color().Other()) > 0 {
			return true
		}
	}
	return false
}

// hangingPiece fires when some piece above the value threshold has more
// enemy attackers than friendly defenders.
func (d *Detector) hangingPiece(pos *game.Position, pieces map[chess.Square]chess.Piece, attacks map[chess.Color]attackMap) bool {
	for sq, pc := range pieces {
		if pc.Type() == chess.King || game.PieceValue(pc.Type()) <= d.conf.HangingThreshold {
			continue
		}
		attackers := len(attacks[pc.Color().Other()][sq])
		if attackers == 0 {
			continue
		}
		if attackers > pos.AttackersOf(sq, pc.Color()) {
			return true
		}
	}
	return false
}

// backRank fires when the side to move's king sits on its home rank
// with at most two legal king moves.
func (d *Detector) backRank(pos *game.Position) bool {
	home := chess.Rank1
	if pos.Turn() == chess.Black {
		home = chess.Rank8
	}
	kingSq := pos.KingSquare(pos.Turn())
	if kingSq == chess.NoSquare || kingSq.Rank() != home {
		return false
	}
	return len(pos.MovesFrom(kingSq)) <= 2
}

// promotion fires when the side to move has a legal promoting move.
func (d *Detector) promotion(pos *game.Position) bool {
	for _, m := range pos.LegalMoves() {
		if m.Promo() != chess.NoPieceType {
			return true
		}
	}
	return false
}

func (d *Detector) skewer(*game.Position) bool           { return false }
func (d *Detector) discoveredAttack(*game.Position) bool { return false }
func (d *Detector) doubleAttack(*game.Position) bool     { return false }
