// internal/config/config.go
//
// Environment-driven configuration for the Word Star server.
// Responsibilities:
//   - Load an optional `.env` file (development convenience).
//   - Parse environment variables into a typed Config with defaults.
//   - Validate the few values that have a closed set of options.
//
// Notes:
//   - An empty DATABASE_PATH selects the in-memory store.
//   - An empty WORDS_DICTIONARY_FILE selects the embedded dictionary.

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the server process.
type Config struct {
	Port     string `env:"PORT" envDefault:"5175"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`

	DatabasePath string `env:"DATABASE_PATH"`

	DictionaryFile    string   `env:"WORDS_DICTIONARY_FILE"`
	Authors           []string `env:"WORDS_AUTHORS" envSeparator:","`
	AllowUnattributed bool     `env:"WORDS_ALLOW_UNATTRIBUTED" envDefault:"true"`

	BuildRule       string        `env:"BUILD_RULE" envDefault:"legacy"`
	GenerateTimeout time.Duration `env:"GENERATE_TIMEOUT" envDefault:"5s"`
	DailySalt       string        `env:"DAILY_SALT" envDefault:"local_dev_salt"`

	SessionCacheSize int           `env:"SESSION_CACHE_SIZE" envDefault:"1024"`
	SessionIdleTTL   time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"wordstar_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
}

// ErrInvalidBuildRule is returned when BUILD_RULE is neither legacy nor strict.
var ErrInvalidBuildRule = errors.New("config: BUILD_RULE must be legacy or strict")

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads `.env` files (if present) and parses the process environment.
func Load(files ...string) (Config, error) {
	// Missing .env is fine; only the environment matters in production.
	_ = godotenv.Load(files...)

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.BuildRule = strings.ToLower(strings.TrimSpace(cfg.BuildRule))
	if cfg.BuildRule != "legacy" && cfg.BuildRule != "strict" {
		return Config{}, fmt.Errorf("%w: got %q", ErrInvalidBuildRule, cfg.BuildRule)
	}
	for i, a := range cfg.Authors {
		cfg.Authors[i] = strings.TrimSpace(a)
	}
	return cfg, nil
}

// Production reports whether cookies should be marked Secure.
func (c Config) Production() bool {
	return c.AppEnv == "production"
}

// Addr is the listen address derived from Port.
func (c Config) Addr() string {
	return ":" + c.Port
}
