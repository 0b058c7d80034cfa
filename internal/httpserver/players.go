package httpserver

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordstar/internal/game"
	"github.com/robalobadob/wordstar/internal/store"
)

// player holds one player's session. mu serializes every request touching it.
type player struct {
	mu   sync.Mutex
	sess *game.Session

	// guarded by registry.mu
	refs     int // holders plus waiters; entries in use are never evicted
	lastUsed time.Time
}

const (
	defaultSessionCacheSize = 1024
	defaultSessionIdleTTL   = 30 * time.Minute
)

// registry maps player ids to their live sessions. Idle entries are dropped after
// idleTTL, and the least recently used idle entries go first once there are more
// than limit. A dropped session reloads from the store on the next request.
type registry struct {
	mu      sync.Mutex
	players map[string]*player
	newSess func(playerID string) *game.Session
	limit   int
	idleTTL time.Duration
	now     func() time.Time
}

func newRegistry(newSess func(string) *game.Session, limit int, idleTTL time.Duration, now func() time.Time) *registry {
	if limit <= 0 {
		limit = defaultSessionCacheSize
	}
	if idleTTL <= 0 {
		idleTTL = defaultSessionIdleTTL
	}
	return &registry{
		players: make(map[string]*player),
		newSess: newSess,
		limit:   limit,
		idleTTL: idleTTL,
		now:     now,
	}
}

// acquire returns the entry for id with a reference taken. g.mu must be held.
func (g *registry) acquire(id string) *player {
	p, ok := g.players[id]
	if !ok {
		p = &player{sess: g.newSess(id)}
		g.players[id] = p
	}
	p.refs++
	return p
}

func (g *registry) release(p *player) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p.refs--
	p.lastUsed = g.now()
	g.evict()
}

// evict drops expired entries, then the oldest idle ones above limit. g.mu must be held.
func (g *registry) evict() {
	now := g.now()
	var idle []string
	for id, p := range g.players {
		if p.refs > 0 {
			continue
		}
		if now.Sub(p.lastUsed) > g.idleTTL {
			delete(g.players, id)
			continue
		}
		idle = append(idle, id)
	}
	if len(g.players) <= g.limit {
		return
	}
	sort.Slice(idle, func(i, j int) bool {
		return g.players[idle[i]].lastUsed.Before(g.players[idle[j]].lastUsed)
	})
	for _, id := range idle {
		if len(g.players) <= g.limit {
			return
		}
		delete(g.players, id)
	}
}

// lock returns the player's entry locked. The caller must call the returned unlock.
func (g *registry) lock(id string) (*player, func()) {
	g.mu.Lock()
	p := g.acquire(id)
	g.mu.Unlock()

	p.mu.Lock()
	return p, func() {
		p.mu.Unlock()
		g.release(p)
	}
}

// lockPair locks two different players, always in id order so two pairs can never
// wait on each other.
func (g *registry) lockPair(a, b string) (*player, *player, func()) {
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	p1, unlock1 := g.lock(first)
	p2, unlock2 := g.lock(second)
	unlock := func() {
		unlock2()
		unlock1()
	}
	if first != a {
		p1, p2 = p2, p1
	}
	return p1, p2, unlock
}

// reload replaces the live session of a locked entry so the next request reads the
// store again.
func (g *registry) reload(p *player, id string) {
	p.sess = g.newSess(id)
}

// size is the number of live entries.
func (g *registry) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

// newSession wires a session to the store: snapshots through PlayerProgress,
// statistics through StatsRecorder.
func (s *Server) newSession(playerID string) *game.Session {
	return game.NewSession(
		game.WithWriter(store.PlayerProgress{Store: s.store, PlayerID: playerID}),
		game.WithListener(store.StatsRecorder{Store: s.store, PlayerID: playerID}),
		game.WithClock(s.now),
	)
}

// errGenerate marks a failed or timed-out level generation.
var errGenerate = errors.New("httpserver: level generation failed")

// ensureLevel makes sure p has a level: the saved snapshot if there is a usable one,
// otherwise a freshly generated level 1.
func (s *Server) ensureLevel(ctx context.Context, p *player, playerID string) error {
	if !p.sess.Descriptor().IsZero() {
		return nil
	}
	snap, ok, err := s.store.LoadProgress(ctx, playerID)
	if err != nil {
		return err
	}
	if ok {
		err := p.sess.Restore(snap, s.rule)
		if err == nil {
			return nil
		}
		log.Warn().Err(err).Str("player", playerID).Msg("saved progress unusable; starting a new game")
	}
	return s.startGame(ctx, p, false)
}

// startGame resets p to level 1 on a new board and persists it.
func (s *Server) startGame(ctx context.Context, p *player, isDaily bool) error {
	d, err := s.generate(ctx, isDaily)
	if err != nil {
		return errors.Join(errGenerate, err)
	}
	return p.sess.Reset(ctx, d)
}

// nextLevel moves p to the next level number on a new board and persists it.
func (s *Server) nextLevel(ctx context.Context, p *player) error {
	d, err := s.generate(ctx, false)
	if err != nil {
		return errors.Join(errGenerate, err)
	}
	return p.sess.NewLevel(ctx, d)
}

// claimAnonProgress moves a guest's saved game to the account that just logged in,
// unless the account already has one. Both players stay locked for the whole move.
func (s *Server) claimAnonProgress(ctx context.Context, anonID, userID string) {
	if anonID == "" || userID == "" || anonID == userID {
		return
	}
	anon, user, unlock := s.players.lockPair(anonID, userID)
	defer unlock()

	if _, has, err := s.store.LoadProgress(ctx, userID); err != nil || has {
		return
	}
	snap, ok, err := s.store.LoadProgress(ctx, anonID)
	if err != nil || !ok {
		return
	}
	if err := s.store.SaveProgress(ctx, userID, snap); err != nil {
		log.Warn().Err(err).Msg("claim anon progress")
		return
	}
	if err := s.store.ClearProgress(ctx, anonID); err != nil {
		log.Warn().Err(err).Msg("clear claimed anon progress")
	}
	s.players.reload(anon, anonID)
	s.players.reload(user, userID)
}
