// internal/game/engine.go
//
// Level session engine for a single player.
// Responsibilities:
//   - Hold the installed level and the player's progress on it.
//   - Validate and apply word submissions (typed or tile-selected).
//   - Score by mode, evaluate the completion predicate, award the Challenge bonus.
//   - Track state transitions: playing → level passed → explorer/challenge → surrendered.
//   - Persist a snapshot on every committed change and notify listeners.
//
// Notes:
//   - A Session has a single writer; callers serialize access (see httpserver).
//   - Every mutating call is all-or-nothing: the next progress is built on a copy,
//     written through the ProgressWriter, and only then committed.
//   - Descriptors are installed whole; a partially generated level is never visible.

package game

import (
	"context"
	"fmt"
	"time"

	"github.com/robalobadob/wordstar/internal/letters"
	"github.com/robalobadob/wordstar/internal/level"
)

// ProgressWriter persists session snapshots for one player. Each write replaces
// the previous snapshot.
type ProgressWriter interface {
	SaveProgress(ctx context.Context, s Snapshot) error
}

// progress is the mutable part of a session. It is copied before every change.
type progress struct {
	found       []string
	score       int
	level       int
	mode        Mode
	levelPassed bool
	completed   bool // predicate satisfied at some point on this level
	surrendered bool
	allFound    bool
}

func (p progress) clone() progress {
	p.found = append([]string(nil), p.found...)
	return p
}

func (p progress) hasFound(w string) bool {
	for _, f := range p.found {
		if f == w {
			return true
		}
	}
	return false
}

// Session is one player's game.
type Session struct {
	desc      level.Descriptor
	p         progress
	indicator Indicator

	writer    ProgressWriter
	listeners listeners
	now       func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithWriter sets the snapshot writer. Without one, nothing is persisted.
func WithWriter(w ProgressWriter) Option { return func(s *Session) { s.writer = w } }

// WithListener subscribes l to session events.
func WithListener(l Listener) Option {
	return func(s *Session) { s.listeners = append(s.listeners, l) }
}

// WithClock overrides time.Now (for indicator expiry).
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// NewSession returns an empty session at level 1. Install or Restore a level before play.
func NewSession(opts ...Option) *Session {
	s := &Session{
		p:   progress{level: 1, mode: ModeNormal},
		now: time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe adds a listener after construction.
func (s *Session) Subscribe(l Listener) { s.listeners = append(s.listeners, l) }

// Install swaps in d and resets progress on the current level number:
// no found words, score 0, normal mode, all flags cleared.
func (s *Session) Install(d level.Descriptor) {
	s.desc = d
	s.p = progress{level: s.p.level, mode: ModeNormal}
	s.indicator = Indicator{}
	s.emit(Event{Kind: EventInstalled})
}

// NewLevel moves to the next level number with descriptor d. The fresh level
// replaces the saved snapshot before anything changes; a failed write leaves the
// session as it was. Listeners receive EventLevelFinished for the outgoing level first.
func (s *Session) NewLevel(ctx context.Context, d level.Descriptor) error {
	finished := !s.desc.IsZero()
	outgoing := s.Snapshot()
	if err := s.saveFresh(ctx, d, s.p.level+1); err != nil {
		return err
	}
	if finished {
		s.listeners.notify(Event{Kind: EventLevelFinished, Snapshot: outgoing})
	}
	s.p.level++
	s.Install(d)
	return nil
}

// Reset discards everything and starts again at level 1 with descriptor d.
// Like NewLevel, it writes the fresh level before switching to it.
func (s *Session) Reset(ctx context.Context, d level.Descriptor) error {
	if err := s.saveFresh(ctx, d, 1); err != nil {
		return err
	}
	s.p.level = 1
	s.Install(d)
	return nil
}

// saveFresh writes the snapshot of an untouched level number lvl on d.
func (s *Session) saveFresh(ctx context.Context, d level.Descriptor, lvl int) error {
	if s.writer == nil {
		return nil
	}
	if err := s.writer.SaveProgress(ctx, snapshotFor(d, progress{level: lvl, mode: ModeNormal})); err != nil {
		return fmt.Errorf("game: save progress: %w", err)
	}
	return nil
}

// Restore rebuilds the session from a snapshot. Words are checked against rule.
// Any inconsistency yields ErrCorruptSnapshot and leaves the session untouched.
func (s *Session) Restore(snap Snapshot, rule letters.Rule) error {
	d, err := level.NewDescriptor(letters.FromStrings(snap.Letters), snap.ValidWords, rule)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	p := progress{
		score:       snap.Score,
		level:       snap.Level,
		mode:        snap.Mode,
		levelPassed: snap.LevelPassed,
		completed:   snap.Completed || snap.LevelPassed,
		surrendered: snap.Surrendered,
		allFound:    snap.AllFound,
	}
	if p.mode == "" {
		p.mode = ModeNormal
	}
	if _, err := ParseMode(string(p.mode)); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if p.score < 0 || p.level < 1 {
		return fmt.Errorf("%w: score %d level %d", ErrCorruptSnapshot, p.score, p.level)
	}
	if p.surrendered && p.mode == ModeNormal {
		return fmt.Errorf("%w: surrendered in normal mode", ErrCorruptSnapshot)
	}
	for _, w := range snap.FoundWords {
		w = letters.Normalize(w)
		if !d.Contains(w) || p.hasFound(w) {
			return fmt.Errorf("%w: found word %q", ErrCorruptSnapshot, w)
		}
		p.found = append(p.found, w)
	}
	s.desc = d
	s.p = p
	s.indicator = Indicator{}
	s.emit(Event{Kind: EventInstalled})
	return nil
}

// Submit applies a typed word.
// Rejections are reported in the Result; the returned error is only set when the
// snapshot could not be written, in which case nothing changed.
func (s *Session) Submit(ctx context.Context, raw string) (Result, error) {
	w := letters.Normalize(raw)
	if reason := s.check(w); reason != nil {
		return s.reject(w, reason), nil
	}

	next := s.p.clone()
	res := Result{Word: w, Accepted: true}

	next.found = append(next.found, w)
	if next.mode != ModeExplorer {
		res.Points = Points(letters.Len(w))
		next.score += res.Points
	}

	if next.mode == ModeNormal && !next.completed && LevelComplete(next.found) {
		next.levelPassed = true
		next.completed = true
		res.LevelPassed = true
	}

	if len(next.found) == s.desc.Len() && !next.allFound {
		next.allFound = true
		if next.mode == ModeChallenge {
			res.Bonus = ChallengeBonus(len(next.found))
			next.score += res.Bonus
		}
		res.AllFound = next.mode != ModeExplorer
	}

	if err := s.commit(ctx, next); err != nil {
		return Result{Word: w}, err
	}
	s.indicator = Indicator{OK: true, At: s.now()}

	s.emit(Event{Kind: EventAccepted, Word: w, Points: res.Points + res.Bonus})
	if res.LevelPassed {
		s.emit(Event{Kind: EventLevelPassed, Word: w})
	}
	if res.AllFound {
		s.emit(Event{Kind: EventAllFound, Word: w, Points: res.Bonus})
	}
	return res, nil
}

// SubmitTiles spells a word from board tile indexes and submits it.
// Each tile may be used once, so the word always satisfies the strict build rule.
func (s *Session) SubmitTiles(ctx context.Context, tiles []int) (Result, error) {
	if s.desc.IsZero() {
		return s.reject("", ErrNoLevel), nil
	}
	sel := NewSelection(s.desc.Letters())
	for _, t := range tiles {
		if err := sel.Add(t); err != nil {
			return s.reject(sel.Word(), err), nil
		}
	}
	return s.Submit(ctx, sel.Word())
}

func (s *Session) check(w string) error {
	switch {
	case s.desc.IsZero():
		return ErrNoLevel
	case s.p.surrendered:
		return ErrSurrendered
	case s.p.levelPassed:
		return ErrAwaitingMode
	case letters.Len(w) < letters.MinWordLen:
		return ErrTooShort
	case !letters.IsValidSubmission(w, s.desc.Set()):
		return ErrNotInLevel
	case s.p.hasFound(w):
		return ErrAlreadyFound
	}
	return nil
}

func (s *Session) reject(w string, reason error) Result {
	s.indicator = Indicator{OK: false, At: s.now()}
	s.emit(Event{Kind: EventRejected, Word: w, Reason: reason})
	return Result{Word: w, Reason: reason}
}

// ChooseMode picks Explorer or Challenge after the level is passed.
func (s *Session) ChooseMode(ctx context.Context, m Mode) error {
	if m != ModeExplorer && m != ModeChallenge {
		return fmt.Errorf("%w: %q", ErrInvalidMode, m)
	}
	if !s.p.levelPassed {
		return fmt.Errorf("%w: choose mode from %s", ErrInvalidTransition, s.State())
	}
	next := s.p.clone()
	next.mode = m
	next.levelPassed = false
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.emit(Event{Kind: EventModeChosen})
	return nil
}

// Surrender reveals the remaining words. Only allowed in Explorer or Challenge mode.
// Surrendering twice is a no-op.
func (s *Session) Surrender(ctx context.Context) error {
	if s.p.surrendered {
		return nil
	}
	if s.p.mode == ModeNormal {
		return fmt.Errorf("%w: surrender from %s", ErrInvalidTransition, s.State())
	}
	next := s.p.clone()
	next.surrendered = true
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.emit(Event{Kind: EventSurrendered})
	return nil
}

func (s *Session) commit(ctx context.Context, next progress) error {
	if s.writer != nil {
		if err := s.writer.SaveProgress(ctx, s.snapshotOf(next)); err != nil {
			return fmt.Errorf("game: save progress: %w", err)
		}
	}
	s.p = next
	return nil
}

// State derives the coarse state.
func (s *Session) State() State {
	switch {
	case s.p.surrendered:
		return StateSurrendered
	case s.p.levelPassed:
		return StateLevelPassed
	case s.p.mode == ModeExplorer:
		return StatePlayingExplorer
	case s.p.mode == ModeChallenge:
		return StatePlayingChallenge
	default:
		return StatePlayingNormal
	}
}

// Snapshot returns the persisted form of the current session.
func (s *Session) Snapshot() Snapshot { return s.snapshotOf(s.p) }

func (s *Session) snapshotOf(p progress) Snapshot { return snapshotFor(s.desc, p) }

func snapshotFor(d level.Descriptor, p progress) Snapshot {
	found := append([]string{}, p.found...)
	valid := d.Words()
	if valid == nil {
		valid = []string{}
	}
	return Snapshot{
		Letters:     d.Letters().Strings(),
		FoundWords:  found,
		ValidWords:  valid,
		Score:       p.score,
		Level:       p.level,
		Mode:        p.mode,
		LevelPassed: p.levelPassed,
		Completed:   p.completed,
		Surrendered: p.surrendered,
		AllFound:    p.allFound,
	}
}

// Descriptor returns the installed level.
func (s *Session) Descriptor() level.Descriptor { return s.desc }

// Letters returns the board.
func (s *Session) Letters() letters.Multiset { return s.desc.Letters() }

// Found returns a copy of the found words in discovery order.
func (s *Session) Found() []string { return append([]string(nil), s.p.found...) }

// Score is the running score for this level.
func (s *Session) Score() int { return s.p.score }

// Level is the 1-based level number.
func (s *Session) Level() int { return s.p.level }

// Mode is the current play mode.
func (s *Session) Mode() Mode { return s.p.mode }

// Total is the number of valid words on this level.
func (s *Session) Total() int { return s.desc.Len() }

// Passed reports whether the completion predicate has held on this level.
func (s *Session) Passed() bool { return s.p.completed }

// Remaining lists the words not yet found. It is only available after surrender.
func (s *Session) Remaining() []string {
	if !s.p.surrendered {
		return nil
	}
	var out []string
	for _, w := range s.desc.Words() {
		if !s.p.hasFound(w) {
			out = append(out, w)
		}
	}
	return out
}

// Indicator returns the last submission marker if it is still visible at now.
func (s *Session) Indicator(now time.Time) (Indicator, bool) {
	if s.indicator.At.IsZero() || now.Sub(s.indicator.At) >= IndicatorTTL {
		return Indicator{}, false
	}
	return s.indicator, true
}

func (s *Session) emit(e Event) {
	if len(s.listeners) == 0 {
		return
	}
	e.Snapshot = s.Snapshot()
	s.listeners.notify(e)
}
