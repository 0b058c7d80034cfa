// internal/store/store.go
//
// Persistence contracts for Word Star.
// Defines:
//   - ProgressStore: one session snapshot per player.
//   - StatsStore: per-word found counts and per-level, per-mode game totals.
//   - UserStore: optional accounts.
//
// Two implementations live in this package: an in-memory store (memory.go) and
// a SQLite store (sqlite.go). Both satisfy Store.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/wordstar/internal/game"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrUsernameTaken = errors.New("store: username taken")
)

// ProgressStore keeps the last snapshot of each player's session.
type ProgressStore interface {
	// SaveProgress replaces the player's snapshot.
	SaveProgress(ctx context.Context, playerID string, s game.Snapshot) error

	// LoadProgress returns the saved snapshot. ok is false when nothing is saved
	// or the stored record cannot be decoded.
	LoadProgress(ctx context.Context, playerID string) (s game.Snapshot, ok bool, err error)

	// ClearProgress removes the player's snapshot. Clearing nothing is not an error.
	ClearProgress(ctx context.Context, playerID string) error
}

// LevelStats are the totals for one (level, mode) pair.
type LevelStats struct {
	Level int       `json:"level"`
	Mode  game.Mode `json:"mode"`
	Total int       `json:"total"`
	Wins  int       `json:"wins"`
}

// Stats summarizes a player's history.
type Stats struct {
	Words  map[string]int `json:"words"`  // word → times found
	Levels []LevelStats   `json:"levels"` // ordered by level, then mode
}

// StatsStore records what a player has found and how levels ended.
type StatsStore interface {
	RegisterFound(ctx context.Context, playerID, word string) error
	RegisterGame(ctx context.Context, playerID string, level int, mode game.Mode, won bool) error
	Stats(ctx context.Context, playerID string) (Stats, error)
}

// User is an account row.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserStore manages accounts. Usernames are unique case-insensitively.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)
	UserByUsername(ctx context.Context, username string) (User, error)
}

// Store is everything the server persists.
type Store interface {
	ProgressStore
	StatsStore
	UserStore
	Close() error
}
