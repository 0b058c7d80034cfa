// internal/dictionary/dictionary.go
//
// Vocabulary management for level generation and word lookups.
//
// Responsibilities:
//   - Decode dictionary items ({word, definition, author}) from JSON.
//   - Normalize words to lower case (Unicode-aware) and drop duplicates.
//   - Apply the author/source filter chosen in configuration, both to the vocabulary
//     and to the signed blocks of multi-author definitions.
//   - Answer Words, Contains, Definition, Author, Stats.
//
// Sources (see LoadFile / LoadEmbedded):
//   1. WORDS_DICTIONARY_FILE points at a JSON array on disk.
//   2. Otherwise the small embedded default from the assets package.
//
// An Index is immutable after Load and safe for concurrent readers.

package dictionary

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/robalobadob/wordstar/assets"
	"github.com/robalobadob/wordstar/internal/letters"
)

// UnattributedAuthor marks items imported without a curated author.
const UnattributedAuthor = "none"

var (
	ErrNoDefinition = errors.New("dictionary: no definition")
	ErrUnknownWord  = errors.New("dictionary: unknown word")
)

// Item is one dictionary entry as stored on disk.
type Item struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Author     string `json:"author"`
}

// Authors splits the comma-separated author field.
func (it Item) Authors() []string {
	var out []string
	for _, a := range strings.Split(it.Author, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Unattributed reports entries with no definition or the "none" author.
func (it Item) Unattributed() bool {
	return strings.TrimSpace(it.Definition) == "" || strings.TrimSpace(it.Author) == UnattributedAuthor
}

// Filter selects which items make it into the vocabulary.
// An empty Authors list accepts every attributed item.
type Filter struct {
	Authors           []string
	AllowUnattributed bool
}

// AllowAll accepts every item.
var AllowAll = Filter{AllowUnattributed: true}

// enabled reports whether definitions signed by author may be shown.
func (f Filter) enabled(author string) bool {
	author = strings.TrimSpace(author)
	if author == UnattributedAuthor {
		return f.AllowUnattributed
	}
	return len(f.Authors) == 0 || slices.Contains(f.Authors, author)
}

func (f Filter) accepts(it Item) bool {
	if it.Unattributed() && !f.AllowUnattributed {
		return false
	}
	if len(f.Authors) == 0 || strings.TrimSpace(it.Author) == UnattributedAuthor {
		return true
	}
	for _, a := range it.Authors() {
		for _, want := range f.Authors {
			if a == want {
				return true
			}
		}
	}
	return false
}

// Index is the normalized, filtered vocabulary.
type Index struct {
	items  map[string]Item // keyed by normalized word
	words  []string        // sorted
	filter Filter
}

// Load decodes a JSON array of items from r and applies f.
// Words are lower-cased; the first occurrence of a word wins.
func Load(r io.Reader, f Filter) (*Index, error) {
	var raw []Item
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("dictionary: decode: %w", err)
	}
	return New(raw, f), nil
}

// New builds an Index from already decoded items.
func New(items []Item, f Filter) *Index {
	idx := &Index{items: make(map[string]Item, len(items)), filter: f}
	for _, it := range items {
		w := letters.Normalize(it.Word)
		if w == "" || !f.accepts(it) {
			continue
		}
		if _, dup := idx.items[w]; dup {
			continue
		}
		it.Word = w
		idx.items[w] = it
		idx.words = append(idx.words, w)
	}
	sort.Strings(idx.words)
	return idx
}

// FromWords builds an Index of bare words (no definitions).
func FromWords(words ...string) *Index {
	items := make([]Item, len(words))
	for i, w := range words {
		items[i] = Item{Word: w}
	}
	return New(items, AllowAll)
}

// LoadFile loads a dictionary JSON file from disk.
func LoadFile(path string, f Filter) (*Index, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Load(fh, f)
}

// LoadEmbedded loads the default dictionary shipped in the binary.
func LoadEmbedded(f Filter) (*Index, error) {
	fh, err := assets.Dictionary()
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Load(fh, f)
}

// Words returns the vocabulary in sorted order. The slice must not be modified.
func (x *Index) Words() []string { return x.words }

// Len is the vocabulary size.
func (x *Index) Len() int { return len(x.words) }

// Contains reports whether w (any case) is in the vocabulary.
func (x *Index) Contains(w string) bool {
	_, ok := x.items[letters.Normalize(w)]
	return ok
}

// Lookup returns the stored item for w.
func (x *Index) Lookup(w string) (Item, error) {
	it, ok := x.items[letters.Normalize(w)]
	if !ok {
		return Item{}, ErrUnknownWord
	}
	return it, nil
}

// signedBlock matches one "<text>\n/<author>/" block of a multi-author definition.
var signedBlock = regexp.MustCompile(`(?s)(.*?)\n/([^/]+?)/`)

// Definition returns the part of w's definition the filter lets through.
// A definition made of signed blocks keeps only the blocks of enabled authors,
// joined by a blank line. A plain definition is shown when one of the item's
// authors is enabled. ErrNoDefinition covers blank definitions and definitions
// no enabled author signs.
func (x *Index) Definition(w string) (string, error) {
	it, err := x.Lookup(w)
	if err != nil {
		return "", err
	}
	def := strings.TrimSpace(it.Definition)
	if def == "" {
		return "", ErrNoDefinition
	}
	if !strings.Contains(it.Definition, "\n/") {
		authors := it.Authors()
		if len(authors) == 0 && len(x.filter.Authors) == 0 {
			return def, nil
		}
		for _, a := range authors {
			if x.filter.enabled(a) {
				return def, nil
			}
		}
		return "", ErrNoDefinition
	}

	var blocks []string
	for _, m := range signedBlock.FindAllStringSubmatch(it.Definition, -1) {
		text, author := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if text != "" && x.filter.enabled(author) {
			blocks = append(blocks, text+"\n/"+author+"/")
		}
	}
	if len(blocks) == 0 {
		return "", ErrNoDefinition
	}
	return strings.Join(blocks, "\n\n"), nil
}

// Author returns the author field of w ("" if unknown).
func (x *Index) Author(w string) string {
	it, err := x.Lookup(w)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(it.Author)
}

// Stats returns (words, words without definition).
func (x *Index) Stats() (total int, withoutDefinition int) {
	for _, it := range x.items {
		if strings.TrimSpace(it.Definition) == "" {
			withoutDefinition++
		}
	}
	return len(x.items), withoutDefinition
}
