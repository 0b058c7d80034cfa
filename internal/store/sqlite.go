// internal/store/sqlite.go
//
// SQLite implementation of Store (github.com/mattn/go-sqlite3).
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations from ./migrations.
//   - Progress snapshots as JSON text, one row per player.
//   - Word and level statistics as upserted counters.
//   - User accounts with case-insensitive unique usernames.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/robalobadob/wordstar/internal/game"
	"github.com/robalobadob/wordstar/internal/store/migrations"
)

// SQLite persists everything in one database file.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

func inMemory(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:")
}

// OpenSQLite opens (and creates if missing) the database at dsn and migrates it.
// ":memory:" opens a private in-memory database.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("store: database path is required")
	}
	if !inMemory(dsn) {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dsn+sep+"_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if inMemory(dsn) {
		// every new connection would see an empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := migrate(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

/* ------------------------------ progress ------------------------------- */

func (s *SQLite) SaveProgress(ctx context.Context, playerID string, snap game.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO progress (player_id, snapshot, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(player_id) DO UPDATE SET snapshot=excluded.snapshot, updated_at=excluded.updated_at`,
		playerID, string(b), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store: save progress: %w", err)
	}
	return nil
}

func (s *SQLite) LoadProgress(ctx context.Context, playerID string) (game.Snapshot, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM progress WHERE player_id=?`, playerID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Snapshot{}, false, nil
	}
	if err != nil {
		return game.Snapshot{}, false, fmt.Errorf("store: load progress: %w", err)
	}
	return decodeSnapshot(playerID, []byte(raw))
}

func (s *SQLite) ClearProgress(ctx context.Context, playerID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM progress WHERE player_id=?`, playerID); err != nil {
		return fmt.Errorf("store: clear progress: %w", err)
	}
	return nil
}

/* -------------------------------- stats -------------------------------- */

func (s *SQLite) RegisterFound(ctx context.Context, playerID, word string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO word_stats (player_id, word, found) VALUES (?, ?, 1)
        ON CONFLICT(player_id, word) DO UPDATE SET found = found + 1`,
		playerID, word,
	)
	if err != nil {
		return fmt.Errorf("store: register found: %w", err)
	}
	return nil
}

func (s *SQLite) RegisterGame(ctx context.Context, playerID string, level int, mode game.Mode, won bool) error {
	win := 0
	if won {
		win = 1
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO level_stats (player_id, level, mode, total, wins) VALUES (?, ?, ?, 1, ?)
        ON CONFLICT(player_id, level, mode) DO UPDATE SET total = total + 1, wins = wins + excluded.wins`,
		playerID, level, string(mode), win,
	)
	if err != nil {
		return fmt.Errorf("store: register game: %w", err)
	}
	return nil
}

func (s *SQLite) Stats(ctx context.Context, playerID string) (Stats, error) {
	out := Stats{Words: make(map[string]int), Levels: []LevelStats{}}

	rows, err := s.db.QueryContext(ctx, `SELECT word, found FROM word_stats WHERE player_id=?`, playerID)
	if err != nil {
		return Stats{}, fmt.Errorf("store: word stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var w string
		var n int
		if err := rows.Scan(&w, &n); err != nil {
			return Stats{}, err
		}
		out.Words[w] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	lrows, err := s.db.QueryContext(ctx, `
        SELECT level, mode, total, wins FROM level_stats
        WHERE player_id=? ORDER BY level ASC, mode ASC`, playerID)
	if err != nil {
		return Stats{}, fmt.Errorf("store: level stats: %w", err)
	}
	defer lrows.Close()
	for lrows.Next() {
		var ls LevelStats
		var mode string
		if err := lrows.Scan(&ls.Level, &mode, &ls.Total, &ls.Wins); err != nil {
			return Stats{}, err
		}
		ls.Mode = game.Mode(mode)
		out.Levels = append(out.Levels, ls)
	}
	return out, lrows.Err()
}

/* -------------------------------- users -------------------------------- */

func (s *SQLite) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return User{}, ErrUsernameTaken
		}
		return User{}, fmt.Errorf("store: create user: %w", err)
	}
	return u, nil
}

func (s *SQLite) UserByID(ctx context.Context, id string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id=?`, id)
	return scanUser(row)
}

func (s *SQLite) UserByUsername(ctx context.Context, username string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("store: scan user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return u, nil
}
