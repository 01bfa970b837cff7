package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken          string        `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	DeveloperChatID   int64         `envconfig:"DEVELOPER_CHAT_ID" required:"true"`
	MaintainerChatIDs []int64       `envconfig:"MAINTAINER_CHAT_IDS"` // comma separated
	DBPath            string        `envconfig:"SQLITE_DB_PATH" default:"/tmp/users.db"`
	PollInterval      time.Duration `envconfig:"POLL_INTERVAL" default:"30s"`
	FetchConcurrency  int           `envconfig:"FETCH_CONCURRENCY" default:"2"`
	ProviderRate      int           `envconfig:"PROVIDER_RATE_PER_MIN" default:"90"`
	ProviderTimeout   time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"10s"`
	ProviderBaseURL   string        `envconfig:"PROVIDER_BASE_URL" default:"https://cdn-api.co-vin.in"`
	ProviderTZ        string        `envconfig:"PROVIDER_TZ" default:"Asia/Kolkata"`
	RateLimitBackoff  time.Duration `envconfig:"RATE_LIMIT_BACKOFF" default:"5m"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	HTTPAddr          string        `envconfig:"HTTP_ADDR" default:":8080"` // healthz, metrics
}

// Load reads an optional .env file and then environment variables into Config.
// Variables already set in the environment win over .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads environment variables into Config and validates it.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the bot cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN must not be empty"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval))
	}
	if c.FetchConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("FETCH_CONCURRENCY must be positive, got %d", c.FetchConcurrency))
	}
	if c.ProviderRate <= 0 {
		errs = append(errs, fmt.Errorf("PROVIDER_RATE_PER_MIN must be positive, got %d", c.ProviderRate))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, fmt.Errorf("PROVIDER_TIMEOUT must be positive, got %s", c.ProviderTimeout))
	}
	if c.RateLimitBackoff < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKOFF must not be negative, got %s", c.RateLimitBackoff))
	}
	if _, err := time.LoadLocation(c.ProviderTZ); err != nil {
		errs = append(errs, fmt.Errorf("PROVIDER_TZ: %w", err))
	}
	return errors.Join(errs...)
}

// Location returns the provider timezone. Validate guarantees it loads.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ProviderTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Maintainers returns the user ids allowed to see /stats. The developer is
// always one of them.
func (c Config) Maintainers() []int64 {
	out := []int64{c.DeveloperChatID}
	for _, id := range c.MaintainerChatIDs {
		if id != c.DeveloperChatID {
			out = append(out, id)
		}
	}
	return out
}
