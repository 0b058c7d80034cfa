// internal/letters/letters.go
//
// Letter multisets and the spellability rules used across the game.
// Defines:
//   - Letter / Multiset: the board letters, repeats kept, order kept for display.
//   - Rule: which build check is in force (legacy distinct-letter or strict multiset).
//   - CanBuild*: the build checks themselves.
//   - IsValidSubmission: the submission-time membership check.
//
// Notes:
//   - Words are measured in code points so Cyrillic vocabularies behave like ASCII ones.
//   - The legacy rule ignores letter counts ("tatt" builds from "t a x y z"). It stays the
//     default for compatibility with existing level data; Strict must be chosen explicitly.

package letters

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Size is the number of letters on a board.
const Size = 5

// MinWordLen is the shortest word a player may submit.
const MinWordLen = 2

// Letter is a single board character.
type Letter = rune

// Multiset is the ordered board of letters. Duplicates are meaningful.
type Multiset []Letter

// FromWord returns the letters of w in order, repeats preserved.
func FromWord(w string) Multiset {
	return Multiset([]rune(w))
}

// FromStrings converts the snapshot form (one string per letter) back to a Multiset.
// Empty entries are skipped; only the first rune of each entry is used.
func FromStrings(in []string) Multiset {
	out := make(Multiset, 0, len(in))
	for _, s := range in {
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || r == utf8.RuneError {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Strings returns one single-character string per letter, order preserved.
func (m Multiset) Strings() []string {
	out := make([]string, len(m))
	for i, r := range m {
		out[i] = string(r)
	}
	return out
}

// String joins the letters, e.g. "stare".
func (m Multiset) String() string { return string(m) }

// Clone returns an independent copy.
func (m Multiset) Clone() Multiset {
	return append(Multiset(nil), m...)
}

// Counts maps each letter to how many times it appears.
func (m Multiset) Counts() map[Letter]int {
	c := make(map[Letter]int, len(m))
	for _, r := range m {
		c[r]++
	}
	return c
}

// Rule selects the build check in force.
type Rule int

const (
	// Legacy accepts a word when each distinct character appears at least once.
	Legacy Rule = iota
	// Strict respects letter counts: a letter can be used as many times as it is on the board.
	Strict
)

// String returns the configuration name of the rule.
func (r Rule) String() string {
	switch r {
	case Legacy:
		return "legacy"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("rule(%d)", int(r))
	}
}

// ParseRule maps "legacy"/"strict" (case-insensitive) to a Rule.
func ParseRule(s string) (Rule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "legacy", "":
		return Legacy, nil
	case "strict":
		return Strict, nil
	}
	return Legacy, fmt.Errorf("letters: unknown build rule %q", s)
}

// CanBuild applies rule to word against m.
func (r Rule) CanBuild(word string, m Multiset) bool {
	if r == Strict {
		return CanBuildStrict(word, m)
	}
	return CanBuildLegacy(word, m)
}

// CanBuildLegacy reports whether every distinct character of word is on the board.
// Counts are not checked.
func CanBuildLegacy(word string, m Multiset) bool {
	for _, r := range word {
		if !m.contains(r) {
			return false
		}
	}
	return true
}

// CanBuildStrict reports whether word can be spelled using each board letter at most once.
func CanBuildStrict(word string, m Multiset) bool {
	available := m.Counts()
	for _, r := range word {
		if available[r] == 0 {
			return false
		}
		available[r]--
	}
	return true
}

func (m Multiset) contains(r Letter) bool {
	for _, x := range m {
		if x == r {
			return true
		}
	}
	return false
}

var lower = cases.Lower(language.Und)

// Normalize lower-cases and trims a raw word. Unicode-aware (Ё → ё).
func Normalize(raw string) string {
	return lower.String(strings.TrimSpace(raw))
}

// Len is the length of w in characters.
func Len(w string) int { return utf8.RuneCountInString(w) }

// WordSet is a lookup set of normalized words.
type WordSet map[string]struct{}

// NewWordSet builds a set from words (assumed normalized).
func NewWordSet(words []string) WordSet {
	s := make(WordSet, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s WordSet) Has(w string) bool {
	_, ok := s[w]
	return ok
}

// IsValidSubmission normalizes word and checks length and membership in valid.
// No build check is run here; valid was filtered at generation time.
func IsValidSubmission(word string, valid WordSet) bool {
	w := Normalize(word)
	return Len(w) >= MinWordLen && valid.Has(w)
}
