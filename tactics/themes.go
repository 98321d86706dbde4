// Package tactics classifies positions against a fixed vocabulary of
// tactical motifs using static board inspection plus shallow forcing
// searches.
package tactics

// Theme is a tactical motif tag. The vocabulary is closed; persisted
// puzzle records depend on these exact strings.
type Theme string

const (
	MateIn1          Theme = "mate_in_1"
	MateIn2          Theme = "mate_in_2"
	MateIn3          Theme = "mate_in_3"
	Fork             Theme = "fork"
	Pin              Theme = "pin"
	Skewer           Theme = "skewer"
	DiscoveredAttack Theme = "discovered_attack"
	DoubleAttack     Theme = "double_attack"
	BackRank         Theme = "back_rank"
	HangingPiece     Theme = "hanging_piece"
	Endgame          Theme = "endgame"
	Promotion        Theme = "promotion"
)

// Themes lists every recognized theme in a stable order.
var Themes = []Theme{
	MateIn1, MateIn2, MateIn3,
	Fork, Pin, Skewer, DiscoveredAttack, DoubleAttack,
	BackRank, HangingPiece, Endgame, Promotion,
}

// Valid reports whether t belongs to the vocabulary.
func (t Theme) Valid() bool {
	for _, known := range Themes {
		if t == known {
			return true
		}
	}
	return false
}

// Set is an unordered collection of themes.
type Set map[Theme]struct{}

// NewSet builds a Set from its members.
func NewSet(themes ...Theme) Set {
	s := make(Set, len(themes))
	for _, t := range themes {
		s[t] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(t Theme) bool {
	_, ok := s[t]
	return ok
}

// Intersect returns the members of s that are also in other.
func (s Set) Intersect(other Set) Set {
	out := make(Set)
	for t := range s {
		if other.Has(t) {
			out[t] = struct{}{}
		}
	}
	return out
}

// Slice returns the members in the vocabulary's stable order.
func (s Set) Slice() []Theme {
	out := make([]Theme, 0, len(s))
	for _, t := range Themes {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}
