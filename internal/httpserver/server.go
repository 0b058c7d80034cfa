// internal/httpserver/server.go
//
// HTTP server wiring for the Word Star backend.
// Responsibilities:
//   - Router + middleware (request IDs, access logs, JSON, CORS, timeouts, panic recovery).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (optional auth): /game, /game/new, /game/word, /game/mode,
//     /game/surrender, /game/level.
//   - Dictionary lookups: /words/{word}.
//   - Auth + profile endpoints: /auth/*, /stats/me.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Every request is attributed to a player: the account from a valid JWT, or an
//     anonymous id kept in a cookie.
//   - Sessions are held per player and serialized by a per-player mutex.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordstar/internal/auth"
	"github.com/robalobadob/wordstar/internal/config"
	"github.com/robalobadob/wordstar/internal/daily"
	"github.com/robalobadob/wordstar/internal/dictionary"
	"github.com/robalobadob/wordstar/internal/letters"
	"github.com/robalobadob/wordstar/internal/level"
	"github.com/robalobadob/wordstar/internal/store"
)

// Deps are the services the server is built from.
type Deps struct {
	Config     config.Config
	Dictionary *dictionary.Index
	Store      store.Store
}

// Server bundles the router, the level generator, and the player sessions.
type Server struct {
	r       *chi.Mux
	cfg     config.Config
	dict    *dictionary.Index
	rule    letters.Rule
	gen     *level.Generator
	store   store.Store
	tokens  *auth.Tokens
	players *registry
	now     func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) (*Server, error) {
	rule, err := letters.ParseRule(d.Config.BuildRule)
	if err != nil {
		return nil, err
	}
	s := &Server{
		r:      chi.NewRouter(),
		cfg:    d.Config,
		dict:   d.Dictionary,
		rule:   rule,
		gen:    level.NewGenerator(d.Dictionary, level.WithRule(rule)),
		store:  d.Store,
		tokens: auth.NewTokens(d.Config.JWTSecret, time.Duration(d.Config.JWTExpiresDays)*24*time.Hour),
		now:    time.Now,
	}
	s.players = newRegistry(s.newSession, d.Config.SessionCacheSize, d.Config.SessionIdleTTL, func() time.Time { return s.now() })

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(hlog.NewHandler(log.Logger))
	s.r.Use(accessLog)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(cors(d.Config.ClientOrigin))

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"service":"wordstar","endpoints":["/health","/game","/words/{word}","/auth/*","/stats/me"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		total, noDef := s.dict.Stats()
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "words": total, "withoutDefinition": noDef})
	})

	// Game + lookups: OPTIONAL AUTH (guests can play)
	s.r.Group(func(r chi.Router) {
		r.Use(s.withOptionalAuth())
		s.mountGame(r)
		r.Get("/words/{word}", s.handleLookup)
		r.Get("/stats/me", s.handleStats)
	})

	s.mountAuthRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})
	return s, nil
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// generate builds a level within the configured timeout. Daily levels are seeded
// from today's date so every player gets the same board.
func (s *Server) generate(ctx context.Context, isDaily bool) (level.Descriptor, error) {
	if t := s.cfg.GenerateTimeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	g := s.gen
	if isDaily {
		g = level.NewGenerator(s.dict,
			level.WithRule(s.rule),
			level.WithRand(daily.Rand(s.now(), s.cfg.DailySalt)),
		)
	}
	res := <-g.Async(ctx)
	if res.Err != nil {
		return level.Descriptor{}, res.Err
	}
	return res.Descriptor, nil
}

// ----------------------------- middleware ----------------------------------

// accessLog writes one structured line per request.
func accessLog(next http.Handler) http.Handler {
	return hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("req_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	})(next)
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// decodeBody decodes an optional JSON body; an empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
