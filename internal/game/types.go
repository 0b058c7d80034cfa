// internal/game/types.go
//
// Core type definitions for the level session.
// Defines:
//   - Mode: post-win play mode (normal/explorer/challenge).
//   - State: coarse session state derived from mode and flags.
//   - Snapshot: persisted form of a session.
//   - Result: outcome of a single word submission.
//   - Rejection reasons for submissions and invalid transitions.

package game

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode is the scoring mode of a session.
type Mode string

const (
	ModeNormal    Mode = "normal"
	ModeExplorer  Mode = "explorer"
	ModeChallenge Mode = "challenge"
)

// ParseMode maps a client string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeNormal, ModeExplorer, ModeChallenge:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// State is the externally visible state of a session.
type State string

const (
	StatePlayingNormal    State = "playing_normal"
	StateLevelPassed      State = "level_passed" // waiting for ChooseMode
	StatePlayingExplorer  State = "playing_explorer"
	StatePlayingChallenge State = "playing_challenge"
	StateSurrendered      State = "surrendered"
)

// Rejection reasons. They are reported in Result.Reason, never returned as errors
// from Submit.
var (
	ErrNoLevel        = errors.New("game: no level installed")
	ErrTooShort       = errors.New("game: word too short")
	ErrNotInLevel     = errors.New("game: word not in level")
	ErrAlreadyFound   = errors.New("game: word already found")
	ErrSurrendered    = errors.New("game: session surrendered")
	ErrAwaitingMode   = errors.New("game: level passed, choose a mode")
	ErrTileOutOfRange = errors.New("game: tile out of range")
	ErrTileReused     = errors.New("game: tile already selected")
)

// Transition errors, returned from ChooseMode/Surrender/Restore.
var (
	ErrInvalidTransition = errors.New("game: invalid transition")
	ErrInvalidMode       = errors.New("game: invalid mode")
	ErrCorruptSnapshot   = errors.New("game: corrupt snapshot")
)

// Snapshot is the persisted layout of a session. The first five fields are the
// canonical progress record; the rest let a restored session resume in the same state.
type Snapshot struct {
	Letters     []string `json:"letters"`
	FoundWords  []string `json:"foundWords"`
	ValidWords  []string `json:"validWords"`
	Score       int      `json:"score"`
	Level       int      `json:"level"`
	Mode        Mode     `json:"mode,omitempty"`
	LevelPassed bool     `json:"levelPassed,omitempty"`
	Completed   bool     `json:"completed,omitempty"`
	Surrendered bool     `json:"surrendered,omitempty"`
	AllFound    bool     `json:"allFound,omitempty"`
}

// Result describes what a submission did.
type Result struct {
	Word        string // normalized input
	Accepted    bool
	Reason      error // set when !Accepted
	Points      int   // points for the word itself
	Bonus       int   // one-time Challenge bonus
	LevelPassed bool  // completion predicate fired on this word
	AllFound    bool  // "all words found" notice raised on this word
}

// IndicatorTTL is how long the success/failure marker stays visible.
const IndicatorTTL = 1500 * time.Millisecond

// Indicator is the transient ✅/❌ shown after a submission.
type Indicator struct {
	OK bool
	At time.Time
}

// Symbol returns the marker for display.
func (i Indicator) Symbol() string {
	if i.OK {
		return "✅"
	}
	return "❌"
}
