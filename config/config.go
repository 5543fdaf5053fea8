package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds every setting of the application. Values come from the
// environment, optionally seeded from a .env file in the working directory.
type Config struct {
	DBPath        string `envconfig:"SQLITE_DB" default:"studynotes.db"`
	SessionSecret string `envconfig:"SESSION_SECRET"`
	Port          string `envconfig:"PORT" default:"8080"`
	Domain        string `envconfig:"DOMAIN" default:"http://localhost:8080"`

	AdminEmails []string `envconfig:"ADMIN_EMAILS" default:"admin123@gmail.com"`

	// AuthProvider selects the identity backend: "local" or "firebase".
	AuthProvider    string `envconfig:"AUTH_PROVIDER" default:"local"`
	FirebaseAPIKey  string `envconfig:"FIREBASE_API_KEY"`
	FirebaseBaseURL string `envconfig:"FIREBASE_BASE_URL" default:"https://identitytoolkit.googleapis.com/v1"`
	BcryptCost      int    `envconfig:"BCRYPT_COST" default:"10"`

	CacheDir string        `envconfig:"CACHE_DIR" default:"cache"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	GinMode  string `envconfig:"GIN_MODE" default:"release"`
}

const (
	ProviderLocal    = "local"
	ProviderFirebase = "firebase"
)

// Load reads .env (if present) and the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg(".env not loaded")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("db", cfg.DBPath).
		Str("port", cfg.Port).
		Str("auth_provider", cfg.AuthProvider).
		Int("admin_emails", len(cfg.AdminEmails)).
		Str("cache_dir", cfg.CacheDir).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Configuration loaded")

	return &cfg, nil
}

// Validate checks the settings that have no safe default.
func (c *Config) Validate() error {
	switch c.AuthProvider {
	case ProviderLocal:
	case ProviderFirebase:
		if c.FirebaseAPIKey == "" {
			return errors.New("FIREBASE_API_KEY is required when AUTH_PROVIDER=firebase")
		}
	default:
		return fmt.Errorf("unsupported AUTH_PROVIDER: %s", c.AuthProvider)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST out of range: %d", c.BcryptCost)
	}
	return nil
}

// RequireSession is checked only by commands that serve HTTP.
func (c *Config) RequireSession() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET environment variable not set")
	}
	return nil
}

// NewForTesting returns a config that needs no environment.
func NewForTesting() *Config {
	return &Config{
		DBPath:          ":memory:",
		SessionSecret:   "secret",
		Port:            "8080",
		Domain:          "http://localhost:8080",
		AdminEmails:     []string{"admin123@gmail.com"},
		AuthProvider:    ProviderLocal,
		FirebaseBaseURL: "https://identitytoolkit.googleapis.com/v1",
		BcryptCost:      4,
		CacheDir:        "cache",
		CacheTTL:        10 * time.Minute,
		LogLevel:        "info",
		GinMode:         "test",
	}
}
