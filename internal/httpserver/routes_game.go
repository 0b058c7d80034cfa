// internal/httpserver/routes_game.go
//
// HTTP routes for a player's game:
//   - GET  /game           → current session (restored, or a new game)
//   - POST /game/new       → new game at level 1; {"daily":true} uses today's board
//   - POST /game/word      → submit {"word":"..."} or {"tiles":[0,3,1]}
//   - POST /game/mode      → {"mode":"explorer"|"challenge"} after passing
//   - POST /game/surrender → reveal the remaining words
//   - POST /game/level     → next level
//   - GET  /words/{word}   → definition and author
//   - GET  /stats/me       → found-word counts and level totals

package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordstar/internal/daily"
	"github.com/robalobadob/wordstar/internal/dictionary"
	"github.com/robalobadob/wordstar/internal/game"
)

func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Get("/", s.handleGame)
		r.Post("/new", s.handleNewGame)
		r.Post("/word", s.handleWord)
		r.Post("/mode", s.handleMode)
		r.Post("/surrender", s.handleSurrender)
		r.Post("/level", s.handleNextLevel)
	})
}

// gameView is what the client renders.
type gameView struct {
	Letters   []string   `json:"letters"`
	Level     int        `json:"level"`
	Score     int        `json:"score"`
	Mode      game.Mode  `json:"mode"`
	State     game.State `json:"state"`
	Found     []string   `json:"found"`
	Total     int        `json:"total"`
	Passed    bool       `json:"passed"`
	Remaining []string   `json:"remaining,omitempty"` // only after surrender
	Indicator string     `json:"indicator,omitempty"` // ✅/❌ while visible
}

func (s *Server) view(sess *game.Session) gameView {
	v := gameView{
		Letters:   sess.Letters().Strings(),
		Level:     sess.Level(),
		Score:     sess.Score(),
		Mode:      sess.Mode(),
		State:     sess.State(),
		Found:     sess.Found(),
		Total:     sess.Total(),
		Passed:    sess.Passed(),
		Remaining: sess.Remaining(),
	}
	if v.Found == nil {
		v.Found = []string{}
	}
	if ind, ok := sess.Indicator(s.now()); ok {
		v.Indicator = ind.Symbol()
	}
	return v
}

// failLevel reports an error from loading or creating a level.
func failLevel(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errGenerate) {
		log.Warn().Err(err).Msg("generate level")
		writeError(w, http.StatusServiceUnavailable, "generation_failed")
		return
	}
	log.Error().Err(err).Str("path", r.URL.Path).Msg("level")
	writeError(w, http.StatusInternalServerError, "save_failed")
}

// failTransition maps ChooseMode/Surrender errors to statuses.
func failTransition(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrInvalidMode):
		writeError(w, http.StatusBadRequest, "invalid_mode")
	case errors.Is(err, game.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition")
	default:
		log.Error().Err(err).Msg("transition")
		writeError(w, http.StatusInternalServerError, "save_failed")
	}
}

// handleGame returns the player's session, creating one if needed.
func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	id := s.playerID(w, r)
	p, unlock := s.players.lock(id)
	defer unlock()
	if err := s.ensureLevel(r.Context(), p, id); err != nil {
		failLevel(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(p.sess))
}

type newGameReq struct {
	Daily bool `json:"daily"`
}

type newGameRes struct {
	gameView
	Date string `json:"date,omitempty"` // set for daily games
}

// handleNewGame discards the current game and starts over at level 1.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	id := s.playerID(w, r)
	p, unlock := s.players.lock(id)
	defer unlock()
	if err := s.startGame(r.Context(), p, req.Daily); err != nil {
		failLevel(w, r, err)
		return
	}
	res := newGameRes{gameView: s.view(p.sess)}
	if req.Daily {
		res.Date = daily.DateKey(s.now())
	}
	writeJSON(w, http.StatusOK, res)
}

type wordReq struct {
	Word  string `json:"word"`
	Tiles []int  `json:"tiles"`
}

type resultView struct {
	Word        string `json:"word"`
	Accepted    bool   `json:"accepted"`
	Reason      string `json:"reason,omitempty"`
	Points      int    `json:"points"`
	Bonus       int    `json:"bonus,omitempty"`
	LevelPassed bool   `json:"levelPassed,omitempty"`
	AllFound    bool   `json:"allFound,omitempty"`
}

type wordRes struct {
	Result resultView `json:"result"`
	Game   gameView   `json:"game"`
}

// reasonCodes names rejection reasons for clients.
var reasonCodes = map[error]string{
	game.ErrNoLevel:        "no_level",
	game.ErrTooShort:       "too_short",
	game.ErrNotInLevel:     "not_in_level",
	game.ErrAlreadyFound:   "already_found",
	game.ErrSurrendered:    "surrendered",
	game.ErrAwaitingMode:   "awaiting_mode",
	game.ErrTileOutOfRange: "tile_out_of_range",
	game.ErrTileReused:     "tile_reused",
}

func reasonCode(err error) string {
	if err == nil {
		return ""
	}
	for e, code := range reasonCodes {
		if errors.Is(err, e) {
			return code
		}
	}
	return "rejected"
}

// handleWord submits a typed word or a tile path.
func (s *Server) handleWord(w http.ResponseWriter, r *http.Request) {
	var req wordReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	id := s.playerID(w, r)
	p, unlock := s.players.lock(id)
	defer unlock()
	if err := s.ensureLevel(r.Context(), p, id); err != nil {
		failLevel(w, r, err)
		return
	}

	var (
		res game.Result
		err error
	)
	if req.Tiles != nil {
		res, err = p.sess.SubmitTiles(r.Context(), req.Tiles)
	} else {
		res, err = p.sess.Submit(r.Context(), req.Word)
	}
	if err != nil {
		log.Error().Err(err).Str("player", id).Msg("submit")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	writeJSON(w, http.StatusOK, wordRes{
		Result: resultView{
			Word:        res.Word,
			Accepted:    res.Accepted,
			Reason:      reasonCode(res.Reason),
			Points:      res.Points,
			Bonus:       res.Bonus,
			LevelPassed: res.LevelPassed,
			AllFound:    res.AllFound,
		},
		Game: s.view(p.sess),
	})
}

type modeReq struct {
	Mode string `json:"mode"`
}

// handleMode picks Explorer or Challenge after the level is passed.
func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req modeReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	m, err := game.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_mode")
		return
	}
	id := s.playerID(w, r)
	p, unlock := s.players.lock(id)
	defer unlock()
	if err := s.ensureLevel(r.Context(), p, id); err != nil {
		failLevel(w, r, err)
		return
	}
	if err := p.sess.ChooseMode(r.Context(), m); err != nil {
		failTransition(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(p.sess))
}

// handleSurrender ends the hunt and reveals the remaining words.
func (s *Server) handleSurrender(w http.ResponseWriter, r *http.Request) {
	id := s.playerID(w, r)
	p, unlock := s.players.lock(id)
	defer unlock()
	if err := s.ensureLevel(r.Context(), p, id); err != nil {
		failLevel(w, r, err)
		return
	}
	if err := p.sess.Surrender(r.Context()); err != nil {
		failTransition(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(p.sess))
}

// handleNextLevel installs a new board at the next level number.
func (s *Server) handleNextLevel(w http.ResponseWriter, r *http.Request) {
	id := s.playerID(w, r)
	p, unlock := s.players.lock(id)
	defer unlock()
	if err := s.ensureLevel(r.Context(), p, id); err != nil {
		failLevel(w, r, err)
		return
	}
	if err := s.nextLevel(r.Context(), p); err != nil {
		failLevel(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(p.sess))
}

type definitionRes struct {
	Word       string `json:"word"`
	Definition string `json:"definition,omitempty"`
	Author     string `json:"author,omitempty"`
}

// handleLookup returns a word's definition and author.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	def, err := s.dict.Definition(word)
	if errors.Is(err, dictionary.ErrUnknownWord) {
		writeError(w, http.StatusNotFound, "unknown_word")
		return
	}
	item, _ := s.dict.Lookup(word)
	writeJSON(w, http.StatusOK, definitionRes{Word: item.Word, Definition: def, Author: s.dict.Author(word)})
}

// handleStats returns the player's history.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats(r.Context(), s.playerID(w, r))
	if err != nil {
		log.Error().Err(err).Msg("stats")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
