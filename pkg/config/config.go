// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	// Juso confirmation keys. RoadKey falls back to LegacyKey.
	RoadKey   string `env:"JUSO_ROAD_KEY"`
	LegacyKey string `env:"JUSO_CONFM_KEY"`
	DetailKey string `env:"JUSO_DETAIL_KEY"`
	EngKey    string `env:"JUSO_ENG_KEY"`

	// Endpoints. The English API has no default and stays disabled without one.
	SearchAPIURL string `env:"JUSO_SEARCH_API_URL" envDefault:"https://business.juso.go.kr/addrlink/addrLinkApi.do"`
	DetailAPIURL string `env:"JUSO_DETAIL_API_URL" envDefault:"https://business.juso.go.kr/addrlink/addrDetailApi.do"`
	EngAPIURL    string `env:"JUSO_ENG_API_URL"`

	CountPerPage int    `env:"JUSO_COUNT_PER_PAGE" envDefault:"10"`
	FirstSort    string `env:"JUSO_FIRST_SORT" envDefault:"none"`
	AddInfo      string `env:"JUSO_ADD_INFO_YN" envDefault:"Y"`

	CacheTTLSeconds int `env:"POSTCODE_CACHE_TTL_SECONDS" envDefault:"604800"`
	CacheMaxSize    int `env:"POSTCODE_CACHE_MAXSIZE" envDefault:"20000"`

	HTTPTimeoutSeconds float64 `env:"HTTP_TIMEOUT_SECONDS" envDefault:"10"`
	UserAgent          string  `env:"HTTP_USER_AGENT" envDefault:"postcode-mcp/0.1.0"`

	RateLimitRPS   float64 `env:"JUSO_RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"JUSO_RATE_LIMIT_BURST" envDefault:"10"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding values already set. With no paths it reads
// ./.env. A missing default file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load reads the configuration from the process environment and validates it.
func Load() (*Config, error) {
	return LoadFromMap(environ())
}

// LoadFromMap reads the configuration from vars instead of the process
// environment.
func LoadFromMap(vars map[string]string) (*Config, error) {
	cleaned := make(map[string]string, len(vars))
	for k, v := range vars {
		cleaned[k] = clean(v)
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: cleaned}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.RoadKey == "" {
		cfg.RoadKey = cfg.LegacyKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that would keep the server from working.
func (c *Config) Validate() error {
	switch {
	case c.RoadKey == "":
		return errors.New("missing JUSO_ROAD_KEY (or legacy JUSO_CONFM_KEY)")
	case c.SearchAPIURL == "":
		return errors.New("JUSO_SEARCH_API_URL must not be empty")
	case c.CountPerPage <= 0:
		return fmt.Errorf("JUSO_COUNT_PER_PAGE must be positive, got %d", c.CountPerPage)
	case c.CacheTTLSeconds <= 0:
		return fmt.Errorf("POSTCODE_CACHE_TTL_SECONDS must be positive, got %d", c.CacheTTLSeconds)
	case c.CacheMaxSize <= 0:
		return fmt.Errorf("POSTCODE_CACHE_MAXSIZE must be positive, got %d", c.CacheMaxSize)
	case c.HTTPTimeoutSeconds <= 0:
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %g", c.HTTPTimeoutSeconds)
	case c.RateLimitRPS < 0:
		return fmt.Errorf("JUSO_RATE_LIMIT_RPS must not be negative, got %g", c.RateLimitRPS)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// DetailEnabled reports whether the detail stage can run.
func (c *Config) DetailEnabled() bool {
	return c.DetailKey != ""
}

// EnglishEnabled reports whether the English stage can run. It needs both a
// key and an endpoint.
func (c *Config) EnglishEnabled() bool {
	return c.EngKey != "" && c.EngAPIURL != ""
}

// CacheTTL returns the cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// HTTPTimeout returns the per-request upstream timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds * float64(time.Second))
}

// ParseLogLevel maps a LOG_LEVEL value to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

// clean strips surrounding whitespace and quotes, as .env files and shell
// exports often leave them in.
func clean(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

func environ() map[string]string {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return vars
}
