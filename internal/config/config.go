// Package config loads and validates application configuration from
// environment variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read by Load when it exists.
const DefaultEnvFile = ".env"

// Config holds all configuration values for the API server and the batch
// CLI. Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the head-office Postgres connection string. Required.
	DatabaseURL string

	// LocalDatabaseURL is the campground's own Postgres database. When set,
	// summaries are written there as well as to the head office.
	LocalDatabaseURL string

	// MongoURI is the document-store connection string. Required.
	MongoURI string

	// MongoDatabase defaults to "CampsiteBookingsDB".
	MongoDatabase string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the comma-separated CORS_ORIGINS list. Empty disables
	// the CORS middleware.
	CORSOrigins []string

	// CampgroundID is stamped on every allocated booking and on the summary.
	CampgroundID int64

	// SourceCampgroundID selects the pending head-office bookings.
	SourceCampgroundID int64

	// PDFDir is where generated documents are written. Defaults to "pdfs".
	PDFDir string

	// MatchCampsiteSize restricts allocation to sites of the requested size.
	MatchCampsiteSize bool

	// RetryAttempts and RetryDelay configure the retry policy around every
	// store call.
	RetryAttempts int
	RetryDelay    time.Duration

	// MaxBodyBytes caps HTTP request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Load reads DefaultEnvFile when present, then the environment.
func Load() (Config, error) {
	return LoadFrom(DefaultEnvFile)
}

// LoadFrom seeds the environment from envFile when it exists (variables
// already set are not overridden) and returns the resulting Config.
// The error lists every required variable that is missing and every value
// that does not parse.
func LoadFrom(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   splitCSV(os.Getenv("CORS_ORIGINS")),
		MongoDatabase: getEnv("MONGO_DATABASE", "CampsiteBookingsDB"),
		PDFDir:        getEnv("PDF_DIR", "pdfs"),

		LocalDatabaseURL: os.Getenv("LOCAL_DATABASE_URL"),
	}

	var missing, invalid []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.MongoURI = os.Getenv("MONGO_URI")
	if cfg.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}

	p := parser{invalid: &invalid}
	cfg.CampgroundID = p.int64("CAMPGROUND_ID", 1159010)
	cfg.SourceCampgroundID = p.int64("SOURCE_CAMPGROUND_ID", 1)
	cfg.MatchCampsiteSize = p.bool("MATCH_CAMPSITE_SIZE", false)
	cfg.RetryAttempts = int(p.int64("RETRY_ATTEMPTS", 3))
	cfg.RetryDelay = p.duration("RETRY_DELAY", 2*time.Second)
	cfg.MaxBodyBytes = p.int64("MAX_BODY_BYTES", 1<<20)

	if cfg.RetryAttempts < 1 {
		invalid = append(invalid, "RETRY_ATTEMPTS (must be at least 1)")
	}
	if cfg.MaxBodyBytes < 1 {
		invalid = append(invalid, "MAX_BODY_BYTES (must be positive)")
	}

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "required environment variables not set: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		problems = append(problems, "invalid environment variables: "+strings.Join(invalid, ", "))
	}
	if len(problems) > 0 {
		return Config{}, errors.New(strings.Join(problems, "; "))
	}

	return cfg, nil
}

// LoadDatabaseURL returns the connection string held in key (DATABASE_URL or
// LOCAL_DATABASE_URL) after seeding the environment from envFile.
// Migrations need nothing else.
func LoadDatabaseURL(envFile, key string) (string, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("read %s: %w", envFile, err)
		}
	}
	url := os.Getenv(key)
	if url == "" {
		return "", errors.New("required environment variables not set: " + key)
	}
	return url, nil
}

// parser reads typed optional variables, collecting the names of those that
// do not parse.
type parser struct {
	invalid *[]string
}

func (p parser) int64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		*p.invalid = append(*p.invalid, key)
		return fallback
	}
	return n
}

func (p parser) bool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		*p.invalid = append(*p.invalid, key)
		return fallback
	}
	return b
}

func (p parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d < 0 {
		*p.invalid = append(*p.invalid, key)
		return fallback
	}
	return d
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
