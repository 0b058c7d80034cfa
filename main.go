package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordstar/internal/config"
	"github.com/robalobadob/wordstar/internal/dictionary"
	"github.com/robalobadob/wordstar/internal/httpserver"
	"github.com/robalobadob/wordstar/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	dict, err := loadDictionary(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load dictionary")
	}
	total, noDef := dict.Stats()
	log.Info().Int("words", total).Int("withoutDefinition", noDef).Str("rule", cfg.BuildRule).Msg("dictionary loaded")

	st, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	srv, err := httpserver.New(httpserver.Deps{Config: cfg, Dictionary: dict, Store: st})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build server")
	}
	log.Info().Str("port", cfg.Port).Msg("starting wordstar")
	if err := srv.Start(cfg.Addr()); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func loadDictionary(cfg config.Config) (*dictionary.Index, error) {
	f := dictionary.Filter{Authors: cfg.Authors, AllowUnattributed: cfg.AllowUnattributed}
	if cfg.DictionaryFile != "" {
		return dictionary.LoadFile(cfg.DictionaryFile, f)
	}
	return dictionary.LoadEmbedded(f)
}

// openStore picks SQLite when DATABASE_PATH is set, memory otherwise.
func openStore(cfg config.Config) (store.Store, error) {
	if cfg.DatabasePath == "" {
		log.Warn().Msg("DATABASE_PATH not set; progress will not survive a restart")
		return store.NewMemory(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return store.OpenSQLite(ctx, cfg.DatabasePath)
}
