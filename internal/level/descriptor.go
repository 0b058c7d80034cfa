// internal/level/descriptor.go
//
// Descriptor is one level: the board letters plus every word that builds from them.
// A Descriptor never changes after construction; accessors hand out copies.

package level

import (
	"errors"
	"fmt"
	"sort"

	"github.com/robalobadob/wordstar/internal/letters"
)

var (
	ErrBoardSize    = errors.New("level: board must have exactly 5 letters")
	ErrNotBuildable = errors.New("level: word not buildable from board")
)

// fallbackLetters is the board used when no basis word qualifies. It shares the
// alphabet of the embedded vocabulary.
var fallbackLetters = letters.Multiset{'a', 'r', 's', 't', 'u'}

// Descriptor is an immutable level definition.
type Descriptor struct {
	letters letters.Multiset
	words   []string // display order, see sortForDisplay
	set     letters.WordSet
	rule    letters.Rule
}

// NewDescriptor validates and builds a Descriptor, e.g. from a saved snapshot.
// Every word must build from ls under rule. The minimum word count is not enforced
// here; it belongs to generation.
func NewDescriptor(ls letters.Multiset, words []string, rule letters.Rule) (Descriptor, error) {
	if len(ls) != letters.Size {
		return Descriptor{}, fmt.Errorf("%w: got %d", ErrBoardSize, len(ls))
	}
	seen := make(letters.WordSet, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = letters.Normalize(w)
		if w == "" || seen.Has(w) {
			continue
		}
		if !rule.CanBuild(w, ls) {
			return Descriptor{}, fmt.Errorf("%w: %q from %q", ErrNotBuildable, w, ls.String())
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return newDescriptor(ls.Clone(), out, rule), nil
}

func newDescriptor(ls letters.Multiset, words []string, rule letters.Rule) Descriptor {
	sortForDisplay(words)
	return Descriptor{
		letters: ls,
		words:   words,
		set:     letters.NewWordSet(words),
		rule:    rule,
	}
}

// Fallback is the degraded level used after ErrNoCandidateFound: fixed letters, no words.
func Fallback() Descriptor {
	return newDescriptor(fallbackLetters.Clone(), nil, letters.Legacy)
}

// Letters returns a copy of the board in presentation order.
func (d Descriptor) Letters() letters.Multiset { return d.letters.Clone() }

// Words returns a copy of the valid words, longest first then alphabetical.
func (d Descriptor) Words() []string { return append([]string(nil), d.words...) }

// Set exposes the lookup set. Callers must not modify it.
func (d Descriptor) Set() letters.WordSet { return d.set }

// Contains reports whether w is a valid word of this level (w must be normalized).
func (d Descriptor) Contains(w string) bool { return d.set.Has(w) }

// Len is the number of valid words.
func (d Descriptor) Len() int { return len(d.words) }

// Rule is the build rule the words were selected under.
func (d Descriptor) Rule() letters.Rule { return d.rule }

// IsZero reports an uninitialized Descriptor.
func (d Descriptor) IsZero() bool { return len(d.letters) == 0 }

// sortForDisplay orders words longest first, ties alphabetically.
func sortForDisplay(words []string) {
	sort.Slice(words, func(i, j int) bool {
		li, lj := letters.Len(words[i]), letters.Len(words[j])
		if li != lj {
			return li > lj
		}
		return words[i] < words[j]
	})
}
