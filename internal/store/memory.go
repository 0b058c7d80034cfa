// internal/store/memory.go
//
// In-memory implementation of Store.
// Used when no DATABASE_PATH is configured, and in tests.
//
// Characteristics:
//   - Snapshots are kept JSON-encoded, so callers never share slices with the store.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordstar/internal/game"
)

type levelKey struct {
	level int
	mode  game.Mode
}

// memory is a map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	progress map[string][]byte                   // playerID → snapshot JSON
	found    map[string]map[string]int           // playerID → word → count
	games    map[string]map[levelKey]*LevelStats // playerID → totals
	users    map[string]User                     // keyed by User.ID
	names    map[string]string                   // lower(username) → User.ID
}

// NewMemory constructs an empty in-memory Store.
func NewMemory() Store {
	return &memory{
		progress: make(map[string][]byte),
		found:    make(map[string]map[string]int),
		games:    make(map[string]map[levelKey]*LevelStats),
		users:    make(map[string]User),
		names:    make(map[string]string),
	}
}

func (m *memory) SaveProgress(ctx context.Context, playerID string, s game.Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("store: encode snapshot: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[playerID] = b
	return nil
}

func (m *memory) LoadProgress(ctx context.Context, playerID string) (game.Snapshot, bool, error) {
	m.mu.RLock()
	b, ok := m.progress[playerID]
	m.mu.RUnlock()
	if !ok {
		return game.Snapshot{}, false, nil
	}
	return decodeSnapshot(playerID, b)
}

func (m *memory) ClearProgress(ctx context.Context, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.progress, playerID)
	return nil
}

func (m *memory) RegisterFound(ctx context.Context, playerID, word string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	words, ok := m.found[playerID]
	if !ok {
		words = make(map[string]int)
		m.found[playerID] = words
	}
	words[word]++
	return nil
}

func (m *memory) RegisterGame(ctx context.Context, playerID string, level int, mode game.Mode, won bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals, ok := m.games[playerID]
	if !ok {
		totals = make(map[levelKey]*LevelStats)
		m.games[playerID] = totals
	}
	k := levelKey{level, mode}
	ls, ok := totals[k]
	if !ok {
		ls = &LevelStats{Level: level, Mode: mode}
		totals[k] = ls
	}
	ls.Total++
	if won {
		ls.Wins++
	}
	return nil
}

func (m *memory) Stats(ctx context.Context, playerID string) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := Stats{Words: make(map[string]int), Levels: []LevelStats{}}
	for w, n := range m.found[playerID] {
		out.Words[w] = n
	}
	for _, ls := range m.games[playerID] {
		out.Levels = append(out.Levels, *ls)
	}
	sortLevels(out.Levels)
	return out, nil
}

func (m *memory) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(username)
	if _, taken := m.names[key]; taken {
		return User{}, ErrUsernameTaken
	}
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	m.users[u.ID] = u
	m.names[key] = u.ID
	return u, nil
}

func (m *memory) UserByID(ctx context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return User{}, ErrNotFound
}

func (m *memory) UserByUsername(ctx context.Context, username string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.names[strings.ToLower(username)]; ok {
		return m.users[id], nil
	}
	return User{}, ErrNotFound
}

func (m *memory) Close() error { return nil }

// decodeSnapshot treats an undecodable record as missing so the player starts over.
func decodeSnapshot(playerID string, b []byte) (game.Snapshot, bool, error) {
	var s game.Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		log.Warn().Err(err).Str("player", playerID).Msg("discarding corrupt snapshot")
		return game.Snapshot{}, false, nil
	}
	return s, true, nil
}

func sortLevels(ls []LevelStats) {
	slices.SortFunc(ls, func(a, b LevelStats) int {
		if c := cmp.Compare(a.Level, b.Level); c != 0 {
			return c
		}
		return cmp.Compare(a.Mode, b.Mode)
	})
}
