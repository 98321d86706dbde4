package rating

import "github.com/chewxy/math32"

// KFactor is the Elo K used for every update.
const KFactor = 32

// expectedScore is the standard Elo logistic: the probability the user
// solves a puzzle at puzzleRating.
func expectedScore(userRating, puzzleRating int) float32 {
	exp := float32(puzzleRating-userRating) / 400
	return 1 / (1 + math32.Pow(10, exp))
}

// Delta returns the signed rating change for one outcome, rounded to
// the nearest integer. A solve never yields a negative delta and a miss
// never a positive one.
func Delta(userRating, puzzleRating int, solved bool) int {
	actual := float32(0)
	if solved {
		actual = 1
	}
	change := KFactor * (actual - expectedScore(userRating, puzzleRating))
	return int(math32.Floor(change + 0.5))
}
