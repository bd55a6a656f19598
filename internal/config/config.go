// Package config reads process configuration from the environment.
//
// A .env file in the working directory is loaded first when present; real
// environment variables always win over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/torontotech/meetups/internal/logger"
	"github.com/torontotech/meetups/internal/meetup"
)

// ErrMissingCredentials is returned when the store URL, or the service key a
// REST store needs, is not set
var ErrMissingCredentials = errors.New("missing store credentials: set SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")

const (
	DefaultFetchTimeout = 60 * time.Second
	DefaultHTTPAddr     = ":8080"
	DefaultCacheDir     = "~/.cache/meetups"
	DefaultCacheTTL     = time.Hour
)

// Config holds every setting the binaries read
type Config struct {
	StoreURL string
	StoreKey string
	DryRun   bool

	SourcesFile string
	Location    *time.Location

	FetchTimeout time.Duration
	UserAgent    string
	NoSandbox    bool
	ChromePath   string

	NATSURL         string
	ArchiveDir      string
	ArchiveBucket   string
	ArchiveRegion   string
	ArchiveEndpoint string
	PushgatewayURL  string

	HTTPAddr string
	CacheDir string
	CacheTTL time.Duration

	LogLevel  logger.Level
	LogFormat logger.Format
}

// Load reads .env (if any) and then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, which has the signature of os.LookupEnv
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	env := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}

	cfg := &Config{
		StoreURL:        env("SUPABASE_URL", "VITE_SUPABASE_URL"),
		StoreKey:        env("SUPABASE_SERVICE_ROLE_KEY", "VITE_SUPABASE_SERVICE_ROLE_KEY"),
		SourcesFile:     env("SOURCES_FILE"),
		UserAgent:       env("USER_AGENT"),
		ChromePath:      env("CHROME_PATH"),
		NATSURL:         env("NATS_URL"),
		ArchiveDir:      env("ARCHIVE_DIR"),
		ArchiveBucket:   env("ARCHIVE_S3_BUCKET"),
		ArchiveRegion:   env("ARCHIVE_S3_REGION"),
		ArchiveEndpoint: env("ARCHIVE_S3_ENDPOINT"),
		PushgatewayURL:  env("PUSHGATEWAY_URL"),
		HTTPAddr:        orDefault(env("HTTP_ADDR"), DefaultHTTPAddr),
		CacheDir:        orDefault(env("CACHE_DIR"), DefaultCacheDir),
	}

	// only the literal "true" enables dry run, as in the original scripts
	cfg.DryRun = env("DRY_RUN") == "true"

	var errs []error
	var err error

	if cfg.NoSandbox, err = parseBool("BROWSER_NO_SANDBOX", env("BROWSER_NO_SANDBOX")); err != nil {
		errs = append(errs, err)
	}
	if cfg.FetchTimeout, err = parseDuration("FETCH_TIMEOUT", env("FETCH_TIMEOUT"), DefaultFetchTimeout); err != nil {
		errs = append(errs, err)
	}
	if cfg.CacheTTL, err = parseDuration("CACHE_TTL", env("CACHE_TTL"), DefaultCacheTTL); err != nil {
		errs = append(errs, err)
	}
	if cfg.Location, err = meetup.LoadLocation(orDefault(env("SOURCE_TIMEZONE"), meetup.DefaultTimezone)); err != nil {
		errs = append(errs, fmt.Errorf("SOURCE_TIMEZONE: %w", err))
	}
	if cfg.LogLevel, err = logger.ParseLevel(env("LOG_LEVEL")); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if cfg.LogFormat, err = logger.ParseFormat(env("LOG_FORMAT")); err != nil {
		errs = append(errs, fmt.Errorf("LOG_FORMAT: %w", err))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// RequireStore checks that the store can be reached with the configured
// credentials. Binaries call it before doing any work.
func (c *Config) RequireStore() error {
	if c.StoreURL == "" {
		return ErrMissingCredentials
	}
	lower := strings.ToLower(c.StoreURL)
	if (strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")) && c.StoreKey == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Logger builds the logger described by LOG_LEVEL and LOG_FORMAT
func (c *Config) Logger() *logger.Logger {
	return logger.New(c.LogLevel, c.LogFormat, os.Stderr)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func parseBool(name, v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", name, v)
	}
	return b, nil
}

func parseDuration(name, v string, fallback time.Duration) (time.Duration, error) {
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", name, v)
	}
	return d, nil
}
