// Package config loads the server configuration from the environment.
//
// WHY ENVIRONMENT VARIABLES?
// The same binary runs on a laptop, in CI and in production; only the
// environment differs. A .env file is a convenience for local runs: it is
// loaded first, but anything already exported in the shell wins.
//
// caarlos0/env fills the struct from its `env` tags and applies
// `envDefault` for anything unset, converting "24h" to a time.Duration and
// "8080" to an int along the way. normalize then checks what the tags can't
// express.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	Store  string `env:"STORE" envDefault:"memory"`
	DBPath string `env:"DB_PATH" envDefault:"data/hoverspeak.db"`

	PlaybackDuration  time.Duration `env:"PLAYBACK_DURATION" envDefault:"3s"`
	MaxReceivingSites int           `env:"MAX_RECEIVING_SITES" envDefault:"10"`
	UploadBaseURL     string        `env:"UPLOAD_BASE_URL" envDefault:"https://example.com/uploads/"`
	MaxUploadBytes    int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	// GeneratedSecret is set when SESSION_SECRET was empty and a random
	// one was made up. Sessions then do not survive a restart.
	GeneratedSecret bool `env:"-"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// godotenv.Load never overrides a variable that is already set.
		// A missing file is fine; a malformed one is not.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("config: STORE must be %q or %q, got %q", StoreMemory, StoreSQLite, c.Store)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT out of range: %d", c.Port)
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	if c.PlaybackDuration <= 0 {
		return errors.New("config: PLAYBACK_DURATION must be positive")
	}
	if c.MaxReceivingSites < 1 {
		return errors.New("config: MAX_RECEIVING_SITES must be at least 1")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("config: MAX_UPLOAD_BYTES must be positive")
	}
	if !strings.HasSuffix(c.UploadBaseURL, "/") {
		c.UploadBaseURL += "/"
	}

	// NO SECRET CONFIGURED:
	// Rather than refuse to start, make one up. Cookies signed with it stop
	// validating when the process exits, so every visitor starts over after
	// a restart; main logs a warning so this isn't a surprise in production.
	if c.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return err
		}
		c.SessionSecret = secret
		c.GeneratedSecret = true
	} else if len(c.SessionSecret) < 16 {
		return errors.New("config: SESSION_SECRET must be at least 16 characters")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level. Unknown names mean info.
func (c Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// randomSecret returns 32 bytes from crypto/rand, hex-encoded. math/rand
// would be predictable, and a guessable secret lets anyone forge cookies.
func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("config: generating session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
