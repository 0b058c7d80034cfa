package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/robalobadob/wordstar/internal/config"
	"github.com/robalobadob/wordstar/internal/dictionary"
	"github.com/robalobadob/wordstar/internal/game"
	"github.com/robalobadob/wordstar/internal/store"
)

func testConfig() config.Config {
	return config.Config{
		BuildRule:       "legacy",
		GenerateTimeout: 5 * time.Second,
		DailySalt:       "test_salt",
		JWTSecret:       "test_secret",
		JWTExpiresDays:  1,
		CookieName:      "wordstar_token",
		ClientOrigin:    "http://localhost:5173",
	}
}

// testDictionary has two basis words (stare, tears) with the same letters, so every
// generated board offers the same ten words.
func testDictionary() *dictionary.Index {
	items := []dictionary.Item{
		{Word: "stare", Definition: "to look fixedly", Author: "webster"},
		{Word: "tears", Definition: "drops from the eye", Author: "oxford"},
	}
	for _, w := range []string{"star", "rate", "tear", "art", "eat", "tea", "at", "as"} {
		items = append(items, dictionary.Item{Word: w})
	}
	return dictionary.New(items, dictionary.AllowAll)
}

func newTestServer(t *testing.T, st store.Store) *Server {
	t.Helper()
	srv, err := New(Deps{Config: testConfig(), Dictionary: testDictionary(), Store: st})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

// client is a tiny cookie-keeping test client.
type client struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, h http.Handler) *client {
	return &client{t: t, h: h, cookies: make(map[string]*http.Cookie)}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	for _, ck := range c.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder, wantStatus int) T {
	t.Helper()
	if rec.Code != wantStatus {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, wantStatus, rec.Body.String())
	}
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func (c *client) game() gameView {
	c.t.Helper()
	return decode[gameView](c.t, c.do(http.MethodGet, "/game", nil), http.StatusOK)
}

func (c *client) word(w string) wordRes {
	c.t.Helper()
	return decode[wordRes](c.t, c.do(http.MethodPost, "/game/word", map[string]string{"word": w}), http.StatusOK)
}

// passLevel finds stare, star, at, as, art, which satisfies the completion rule.
func (c *client) passLevel() wordRes {
	c.t.Helper()
	var last wordRes
	for _, w := range []string{"stare", "star", "at", "as", "art"} {
		last = c.word(w)
		if !last.Result.Accepted {
			c.t.Fatalf("word %q rejected: %+v", w, last.Result)
		}
	}
	if !last.Result.LevelPassed {
		c.t.Fatalf("expected level passed, got %+v", last.Result)
	}
	return last
}

// tilesFor spells word on board using each tile once.
func tilesFor(board []string, word string) []int {
	used := make([]bool, len(board))
	var out []int
	for _, r := range word {
		for i, l := range board {
			if !used[i] && l == string(r) {
				used[i] = true
				out = append(out, i)
				break
			}
		}
	}
	return out
}

func TestHealth(t *testing.T) {
	c := newClient(t, newTestServer(t, store.NewMemory()).Router())
	got := decode[map[string]any](t, c.do(http.MethodGet, "/health", nil), http.StatusOK)
	if got["ok"] != true || got["words"] != float64(10) {
		t.Fatalf("unexpected health %v", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	c := newClient(t, newTestServer(t, store.NewMemory()).Router())
	rec := c.do(http.MethodOptions, "/game/word", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestGameCreatedAndRestoredAcrossRestart(t *testing.T) {
	st := store.NewMemory()
	c := newClient(t, newTestServer(t, st).Router())

	v := c.game()
	if len(v.Letters) != 5 || v.Total != 10 || v.Level != 1 || v.State != game.StatePlayingNormal {
		t.Fatalf("unexpected new game %+v", v)
	}
	if _, ok := c.cookies[anonCookieName]; !ok {
		t.Fatal("expected anonymous player cookie")
	}

	res := c.word("Star")
	if !res.Result.Accepted || res.Result.Points != 10 || res.Game.Score != 10 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Game.Indicator != "✅" {
		t.Fatalf("expected success indicator, got %q", res.Game.Indicator)
	}

	// A new process over the same store picks the game back up.
	c.h = newTestServer(t, st).Router()
	again := c.game()
	if diff := cmp.Diff(v.Letters, again.Letters); diff != "" {
		t.Fatalf("letters changed after restart (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"star"}, again.Found); diff != "" {
		t.Fatalf("found mismatch (-want +got):\n%s", diff)
	}
}

func TestWordRejections(t *testing.T) {
	c := newClient(t, newTestServer(t, store.NewMemory()).Router())
	c.game()
	c.word("tea")

	tests := map[string]string{
		"a":     "too_short",
		"zz":    "not_in_level",
		"stone": "not_in_level",
		"TEA":   "already_found",
	}
	for in, want := range tests {
		res := c.word(in)
		if res.Result.Accepted || res.Result.Reason != want {
			t.Errorf("word %q: got %+v, want reason %s", in, res.Result, want)
		}
		if res.Game.Score != 5 {
			t.Errorf("word %q changed score to %d", in, res.Game.Score)
		}
	}
}

func TestSubmitTiles(t *testing.T) {
	c := newClient(t, newTestServer(t, store.NewMemory()).Router())
	v := c.game()

	tiles := tilesFor(v.Letters, "rate")
	res := decode[wordRes](t, c.do(http.MethodPost, "/game/word", map[string]any{"tiles": tiles}), http.StatusOK)
	if !res.Result.Accepted || res.Result.Word != "rate" {
		t.Fatalf("unexpected tile result %+v", res.Result)
	}

	res = decode[wordRes](t, c.do(http.MethodPost, "/game/word", map[string]any{"tiles": []int{0, 0}}), http.StatusOK)
	if res.Result.Reason != "tile_reused" {
		t.Fatalf("expected tile_reused, got %+v", res.Result)
	}
}

func TestModesSurrenderAndStats(t *testing.T) {
	c := newClient(t, newTestServer(t, store.NewMemory()).Router())
	c.game()

	if rec := c.do(http.MethodPost, "/game/mode", map[string]string{"mode": "explorer"}); rec.Code != http.StatusConflict {
		t.Fatalf("mode before passing: status %d", rec.Code)
	}
	if rec := c.do(http.MethodPost, "/game/surrender", nil); rec.Code != http.StatusConflict {
		t.Fatalf("surrender in normal mode: status %d", rec.Code)
	}

	passed := c.passLevel()
	if passed.Game.State != game.StateLevelPassed {
		t.Fatalf("expected level_passed, got %s", passed.Game.State)
	}
	if res := c.word("eat"); res.Result.Reason != "awaiting_mode" {
		t.Fatalf("expected awaiting_mode, got %+v", res.Result)
	}
	if rec := c.do(http.MethodPost, "/game/mode", map[string]string{"mode": "hard"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus mode: status %d", rec.Code)
	}

	v := decode[gameView](t, c.do(http.MethodPost, "/game/mode", map[string]string{"mode": "challenge"}), http.StatusOK)
	if v.State != game.StatePlayingChallenge {
		t.Fatalf("expected playing_challenge, got %s", v.State)
	}
	res := c.word("tears")
	if res.Result.Points != 20 {
		t.Fatalf("challenge words score: %+v", res.Result)
	}

	v = decode[gameView](t, c.do(http.MethodPost, "/game/surrender", nil), http.StatusOK)
	want := []string{"rate", "tear", "eat", "tea"}
	if v.State != game.StateSurrendered {
		t.Fatalf("expected surrendered, got %s", v.State)
	}
	if diff := cmp.Diff(want, v.Remaining); diff != "" {
		t.Fatalf("remaining mismatch (-want +got):\n%s", diff)
	}

	next := decode[gameView](t, c.do(http.MethodPost, "/game/level", nil), http.StatusOK)
	if next.Level != 2 || next.Score != 0 || len(next.Found) != 0 || next.State != game.StatePlayingNormal {
		t.Fatalf("unexpected next level %+v", next)
	}

	st := decode[store.Stats](t, c.do(http.MethodGet, "/stats/me", nil), http.StatusOK)
	if st.Words["tears"] != 1 || st.Words["star"] != 1 || len(st.Words) != 6 {
		t.Fatalf("unexpected word stats %v", st.Words)
	}
	wantLevels := []store.LevelStats{{Level: 1, Mode: game.ModeChallenge, Total: 1, Wins: 1}}
	if diff := cmp.Diff(wantLevels, st.Levels); diff != "" {
		t.Fatalf("level stats mismatch (-want +got):\n%s", diff)
	}
}

func TestNewGameResets(t *testing.T) {
	c := newClient(t, newTestServer(t, store.NewMemory()).Router())
	c.game()
	c.word("star")
	c.do(http.MethodPost, "/game/level", nil)

	v := decode[newGameRes](t, c.do(http.MethodPost, "/game/new", nil), http.StatusOK)
	if v.Level != 1 || v.Score != 0 || len(v.Found) != 0 || v.Date != "" {
		t.Fatalf("unexpected new game %+v", v)
	}
}

func TestDailyBoardIsShared(t *testing.T) {
	h := newTestServer(t, store.NewMemory()).Router()
	a, b := newClient(t, h), newClient(t, h)

	va := decode[newGameRes](t, a.do(http.MethodPost, "/game/new", map[string]bool{"daily": true}), http.StatusOK)
	vb := decode[newGameRes](t, b.do(http.MethodPost, "/game/new", map[string]bool{"daily": true}), http.StatusOK)
	if va.Date == "" || va.Date != vb.Date {
		t.Fatalf("dates differ: %q vs %q", va.Date, vb.Date)
	}
	if diff := cmp.Diff(va.Letters, vb.Letters); diff != "" {
		t.Fatalf("daily boards differ (-a +b):\n%s", diff)
	}
	if a.cookies[anonCookieName].Value == b.cookies[anonCookieName].Value {
		t.Fatal("expected distinct players")
	}
}

func TestCorruptProgressStartsNewGame(t *testing.T) {
	st := store.NewMemory()
	srv := newTestServer(t, st)
	c := newClient(t, srv.Router())
	c.game()
	c.word("star")

	id := anonPlayerID(c.cookies[anonCookieName].Value)
	bad := game.Snapshot{Letters: []string{"s", "t"}, FoundWords: []string{"star"}, ValidWords: []string{"star"}, Score: 10, Level: 4}
	if err := st.SaveProgress(context.Background(), id, bad); err != nil {
		t.Fatalf("save: %v", err)
	}
	p, unlock := srv.players.lock(id)
	srv.players.reload(p, id)
	unlock()

	v := c.game()
	if v.Level != 1 || len(v.Found) != 0 || v.Total != 10 {
		t.Fatalf("expected a fresh game, got %+v", v)
	}
}

func TestFallbackBoardWhenNoBasisWord(t *testing.T) {
	srv, err := New(Deps{Config: testConfig(), Dictionary: dictionary.FromWords("at", "as"), Store: store.NewMemory()})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	v := newClient(t, srv.Router()).game()
	if diff := cmp.Diff([]string{"a", "r", "s", "t", "u"}, v.Letters); diff != "" {
		t.Fatalf("fallback letters mismatch (-want +got):\n%s", diff)
	}
	if v.Total != 0 {
		t.Fatalf("fallback board has no words, got %d", v.Total)
	}
}

func TestLookup(t *testing.T) {
	c := newClient(t, newTestServer(t, store.NewMemory()).Router())

	got := decode[definitionRes](t, c.do(http.MethodGet, "/words/STARE", nil), http.StatusOK)
	want := definitionRes{Word: "stare", Definition: "to look fixedly", Author: "webster"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("lookup mismatch (-want +got):\n%s", diff)
	}

	got = decode[definitionRes](t, c.do(http.MethodGet, "/words/star", nil), http.StatusOK)
	if got.Word != "star" || got.Definition != "" {
		t.Fatalf("expected bare word, got %+v", got)
	}

	if rec := c.do(http.MethodGet, "/words/zebra", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown word: status %d", rec.Code)
	}
}

func TestAuthFlow(t *testing.T) {
	c := newClient(t, newTestServer(t, store.NewMemory()).Router())
	creds := map[string]string{"username": "alice", "password": "password1"}

	if rec := c.do(http.MethodGet, "/auth/me", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me without token: status %d", rec.Code)
	}
	if rec := c.do(http.MethodPost, "/auth/signup", map[string]string{"username": "al", "password": "password1"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("short username: status %d", rec.Code)
	}

	decode[map[string]any](t, c.do(http.MethodPost, "/auth/signup", creds), http.StatusCreated)
	if _, ok := c.cookies["wordstar_token"]; !ok {
		t.Fatal("expected auth cookie after signup")
	}
	me := decode[authUser](t, c.do(http.MethodGet, "/auth/me", nil), http.StatusOK)
	if me.Username != "alice" || me.ID == "" {
		t.Fatalf("unexpected me %+v", me)
	}

	if rec := c.do(http.MethodPost, "/auth/signup", map[string]string{"username": "ALICE", "password": "password2"}); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: status %d", rec.Code)
	}

	decode[map[string]bool](t, c.do(http.MethodPost, "/auth/logout", nil), http.StatusOK)
	if rec := c.do(http.MethodGet, "/auth/me", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: status %d", rec.Code)
	}

	if rec := c.do(http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "nope12345"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: status %d", rec.Code)
	}
	decode[map[string]any](t, c.do(http.MethodPost, "/auth/login", creds), http.StatusOK)
	if rec := c.do(http.MethodGet, "/auth/me", nil); rec.Code != http.StatusOK {
		t.Fatalf("me after login: status %d", rec.Code)
	}
}

func TestSignupClaimsGuestProgress(t *testing.T) {
	c := newClient(t, newTestServer(t, store.NewMemory()).Router())
	guest := c.game()
	c.word("rate")

	decode[map[string]any](t, c.do(http.MethodPost, "/auth/signup", map[string]string{"username": "bob_1", "password": "password1"}), http.StatusCreated)

	v := c.game()
	if diff := cmp.Diff(guest.Letters, v.Letters); diff != "" {
		t.Fatalf("letters mismatch (-guest +account):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"rate"}, v.Found); diff != "" {
		t.Fatalf("found mismatch (-want +got):\n%s", diff)
	}

	// The bearer header works as well as the cookie.
	tok := c.cookies["wordstar_token"].Value
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer auth: status %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	c := newClient(t, newTestServer(t, store.NewMemory()).Router())
	got := decode[map[string]string](t, c.do(http.MethodGet, "/nope", nil), http.StatusNotFound)
	if got["error"] != "not_found" {
		t.Fatalf("unexpected body %v", got)
	}
}
