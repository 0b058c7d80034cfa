// internal/level/generator.go
//
// Letter-set generation.
// Responsibilities:
//   - Pick 5-letter basis words in random order.
//   - Collect every vocabulary word (length ≥ 2) that builds from the basis letters.
//   - Return the first basis whose collection reaches the minimum size.
//
// Notes:
//   - The search is bounded (candidates × vocabulary) but not cheap; it honours ctx
//     cancellation between candidates and is meant to run off the request path via Async.
//   - No attempt is made to find the "best" board: the first acceptable one wins.
//   - The *rand.Rand is not safe for concurrent use, so shuffles are serialized.

package level

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordstar/internal/letters"
)

// MinValidWords is the smallest acceptable word set for a generated level.
const MinValidWords = 5

// ErrNoCandidateFound means no basis word produced enough matching words.
var ErrNoCandidateFound = errors.New("level: no candidate found")

// Vocabulary supplies normalized words. *dictionary.Index satisfies it.
type Vocabulary interface {
	Words() []string
}

// Generator produces Descriptors from a vocabulary.
type Generator struct {
	vocab    Vocabulary
	rule     letters.Rule
	minWords int
	logger   zerolog.Logger

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithRule selects the build rule (default letters.Legacy).
func WithRule(r letters.Rule) Option { return func(g *Generator) { g.rule = r } }

// WithRand injects the random source, e.g. a seeded PCG for reproducible boards.
func WithRand(r *rand.Rand) Option { return func(g *Generator) { g.rnd = r } }

// WithMinWords overrides MinValidWords.
func WithMinWords(n int) Option { return func(g *Generator) { g.minWords = n } }

// WithLogger sets the logger (default: the global zerolog logger).
func WithLogger(l zerolog.Logger) Option { return func(g *Generator) { g.logger = l } }

// NewGenerator constructs a Generator over vocab.
func NewGenerator(vocab Vocabulary, opts ...Option) *Generator {
	g := &Generator{
		vocab:    vocab,
		rule:     letters.Legacy,
		minWords: MinValidWords,
		logger:   log.Logger,
	}
	for _, o := range opts {
		o(g)
	}
	if g.rnd == nil {
		now := uint64(time.Now().UnixNano())
		g.rnd = rand.New(rand.NewPCG(now, now>>32|now<<32))
	}
	return g
}

// Rule reports the build rule in force.
func (g *Generator) Rule() letters.Rule { return g.rule }

// Generate searches for a level. It returns ErrNoCandidateFound when no basis word
// qualifies (including an empty vocabulary) and ctx.Err() when cancelled.
func (g *Generator) Generate(ctx context.Context) (Descriptor, error) {
	words := g.vocab.Words()
	candidates := g.candidates(words)

	for _, basis := range candidates {
		if err := ctx.Err(); err != nil {
			return Descriptor{}, err
		}
		board := letters.FromWord(basis)
		matching := g.matching(words, board)
		if len(matching) >= g.minWords {
			g.logger.Debug().
				Str("basis", basis).
				Int("words", len(matching)).
				Str("rule", g.rule.String()).
				Msg("level generated")
			return newDescriptor(board, matching, g.rule), nil
		}
	}
	return Descriptor{}, ErrNoCandidateFound
}

// GenerateOrFallback is Generate with ErrNoCandidateFound replaced by Fallback().
// Cancellation is still reported as an error.
func (g *Generator) GenerateOrFallback(ctx context.Context) (Descriptor, error) {
	d, err := g.Generate(ctx)
	if errors.Is(err, ErrNoCandidateFound) {
		g.logger.Warn().Int("vocabulary", len(g.vocab.Words())).Msg("no basis word qualifies; using fallback board")
		return Fallback(), nil
	}
	return d, err
}

// Result carries the outcome of an asynchronous generation.
type Result struct {
	Descriptor Descriptor
	Err        error
}

// Async runs GenerateOrFallback on its own goroutine. The channel receives exactly
// one Result and is then closed.
func (g *Generator) Async(ctx context.Context) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		d, err := g.GenerateOrFallback(ctx)
		ch <- Result{Descriptor: d, Err: err}
	}()
	return ch
}

// candidates returns the 5-letter words of words, shuffled.
func (g *Generator) candidates(words []string) []string {
	var out []string
	for _, w := range words {
		if letters.Len(w) == letters.Size {
			out = append(out, w)
		}
	}
	g.mu.Lock()
	g.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	g.mu.Unlock()
	return out
}

func (g *Generator) matching(words []string, board letters.Multiset) []string {
	var out []string
	for _, w := range words {
		if letters.Len(w) >= letters.MinWordLen && g.rule.CanBuild(w, board) {
			out = append(out, w)
		}
	}
	return out
}
