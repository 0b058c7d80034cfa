package store

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordstar/internal/game"
)

// PlayerProgress binds a ProgressStore to one player so a game.Session can write
// through it.
type PlayerProgress struct {
	Store    ProgressStore
	PlayerID string
}

var _ game.ProgressWriter = PlayerProgress{}

// SaveProgress replaces the player's stored snapshot with s.
func (p PlayerProgress) SaveProgress(ctx context.Context, s game.Snapshot) error {
	return p.Store.SaveProgress(ctx, p.PlayerID, s)
}

// statsTimeout bounds a single stats write made from a session event.
const statsTimeout = 2 * time.Second

// StatsRecorder is a game.Listener that feeds a StatsStore: every accepted word is
// counted, and every finished level is recorded as a game in its final mode. A level
// counts as won when the completion predicate held on it.
type StatsRecorder struct {
	Store    StatsStore
	PlayerID string
}

var _ game.Listener = StatsRecorder{}

// SessionChanged records accepted words and finished levels; other events are ignored.
func (r StatsRecorder) SessionChanged(e game.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	var err error
	switch e.Kind {
	case game.EventAccepted:
		err = r.Store.RegisterFound(ctx, r.PlayerID, e.Word)
	case game.EventLevelFinished:
		s := e.Snapshot
		err = r.Store.RegisterGame(ctx, r.PlayerID, s.Level, s.Mode, s.Completed)
	default:
		return
	}
	if err != nil {
		// stats are best effort
		log.Warn().Err(err).Str("player", r.PlayerID).Str("event", string(e.Kind)).Msg("record stats")
	}
}
