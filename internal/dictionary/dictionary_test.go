package dictionary

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sample = `[
 {"word": "Star", "definition": "a luminous point", "author": "webster"},
 {"word": "rats", "definition": "rodents", "author": "oxford, webster"},
 {"word": "STAR", "definition": "duplicate", "author": "oxford"},
 {"word": "tsar", "definition": "", "author": "oxford"},
 {"word": "arts", "definition": "skills", "author": "none"},
 {"word": "  ", "definition": "blank", "author": "webster"},
 {"word": "Ёлка", "definition": "fir tree", "author": "dal"}
]`

func TestLoadNormalizesAndDedups(t *testing.T) {
	idx, err := Load(strings.NewReader(sample), AllowAll)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"arts", "rats", "star", "tsar", "ёлка"}
	if diff := cmp.Diff(want, idx.Words()); diff != "" {
		t.Fatalf("words mismatch (-want +got):\n%s", diff)
	}
	def, err := idx.Definition("STAR")
	if err != nil || def != "a luminous point" {
		t.Fatalf("expected first definition to win, got %q, %v", def, err)
	}
	if !idx.Contains("ЁЛКА") {
		t.Fatal("expected Cyrillic word to be normalized")
	}
}

func TestFilterByAuthor(t *testing.T) {
	idx, err := Load(strings.NewReader(sample), Filter{Authors: []string{"oxford"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// "star" (webster) is dropped, the oxford duplicate of STAR is then accepted.
	want := []string{"rats", "star"}
	if diff := cmp.Diff(want, idx.Words()); diff != "" {
		t.Fatalf("words mismatch (-want +got):\n%s", diff)
	}
	if def, _ := idx.Definition("star"); def != "duplicate" {
		t.Fatalf("expected oxford entry, got %q", def)
	}
}

func TestFilterUnattributed(t *testing.T) {
	idx, err := Load(strings.NewReader(sample), Filter{AllowUnattributed: true, Authors: []string{"dal"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// tsar has no definition but is still attributed to oxford, which is not enabled.
	want := []string{"arts", "ёлка"}
	if diff := cmp.Diff(want, idx.Words()); diff != "" {
		t.Fatalf("words mismatch (-want +got):\n%s", diff)
	}
}

func TestDefinitionErrors(t *testing.T) {
	idx, err := Load(strings.NewReader(sample), AllowAll)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := idx.Definition("tsar"); !errors.Is(err, ErrNoDefinition) {
		t.Fatalf("expected ErrNoDefinition, got %v", err)
	}
	if _, err := idx.Definition("zzz"); !errors.Is(err, ErrUnknownWord) {
		t.Fatalf("expected ErrUnknownWord, got %v", err)
	}
	if got := idx.Author("rats"); got != "oxford, webster" {
		t.Fatalf("unexpected author %q", got)
	}
	total, missing := idx.Stats()
	if total != 5 || missing != 1 {
		t.Fatalf("stats = (%d, %d), want (5, 1)", total, missing)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	if _, err := Load(strings.NewReader(`{"word":`), AllowAll); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.json")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	idx, err := LoadFile(path, AllowAll)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if idx.Len() != 5 {
		t.Fatalf("expected 5 words, got %d", idx.Len())
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"), AllowAll); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadEmbedded(t *testing.T) {
	idx, err := LoadEmbedded(AllowAll)
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	if !idx.Contains("stare") {
		t.Fatal("expected embedded dictionary to contain stare")
	}
}

func TestFromWords(t *testing.T) {
	idx := FromWords("B", "a", "b")
	if diff := cmp.Diff([]string{"a", "b"}, idx.Words()); diff != "" {
		t.Fatalf("words mismatch (-want +got):\n%s", diff)
	}
}

const signed = `[
 {"word": "tear", "definition": "a drop from the eye\n/oxford/\nto pull apart\n/webster/", "author": "oxford, webster"},
 {"word": "rate", "definition": "a measure\n/oxford/", "author": "dal, oxford"}
]`

func TestDefinitionKeepsEnabledAuthorBlocks(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		word   string
		want   string
		err    error
	}{
		{
			name:   "all authors",
			filter: AllowAll,
			word:   "tear",
			want:   "a drop from the eye\n/oxford/\n\nto pull apart\n/webster/",
		},
		{
			name:   "one author",
			filter: Filter{Authors: []string{"webster"}},
			word:   "tear",
			want:   "to pull apart\n/webster/",
		},
		{
			name:   "no enabled signer",
			filter: Filter{Authors: []string{"dal"}},
			word:   "rate",
			err:    ErrNoDefinition,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := Load(strings.NewReader(signed), tt.filter)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			got, err := idx.Definition(tt.word)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("definition mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPlainDefinitionFollowsItemAuthors(t *testing.T) {
	idx, err := Load(strings.NewReader(sample), Filter{AllowUnattributed: false, Authors: []string{"webster"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// rats is signed by oxford and webster; webster is enabled.
	if def, err := idx.Definition("rats"); err != nil || def != "rodents" {
		t.Fatalf("expected rodents, got %q, %v", def, err)
	}
}
