package game

import "github.com/robalobadob/wordstar/internal/letters"

// Points returns the score for a word of length n.
//
//	2–3 → 5, 4 → 10, 5 → 20, 6 → 30, n > 6 → 40 + (n−6)×10
func Points(n int) int {
	switch {
	case n < letters.MinWordLen:
		return 0
	case n <= 3:
		return 5
	case n == 4:
		return 10
	case n == 5:
		return 20
	case n == 6:
		return 30
	default:
		return 40 + (n-6)*10
	}
}

// ChallengeBonus is the one-time reward for finding every word in Challenge mode.
func ChallengeBonus(found int) int { return found * 5 }

// LevelComplete reports whether found (in discovery order) passes the level.
//
// Each word fills at most one slot, first match wins: the first 5-letter word takes
// the five-slot, the first 4-letter word takes the four-slot, and every other word of
// length ≥ 2 counts toward "others". The level is passed with both slots filled and
// at least three others.
func LevelComplete(found []string) bool {
	var five, four bool
	others := 0
	for _, w := range found {
		switch n := letters.Len(w); {
		case n == 5 && !five:
			five = true
		case n == 4 && !four:
			four = true
		case n >= letters.MinWordLen:
			others++
		}
	}
	return five && four && others >= 3
}
