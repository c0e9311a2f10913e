// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

type StoreKind string

const (
	StorePostgres StoreKind = "postgres"
	StoreMemory   StoreKind = "memory"
)

type Config struct {
	HTTPAddr          string
	Store             StoreKind
	OffersFile        string // seeds the memory store
	Workers           int
	CodeIssueAttempts int
	Migrate           bool
	ShutdownTimeout   time.Duration
}

// Load reads the optional env files (".env" when none are given) and then the
// process environment. Variables already set in the environment win.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "load %s", f)
		}
	}

	cfg := Config{
		HTTPAddr:   getenv("HTTP_ADDR", ":8080"),
		Store:      StoreKind(getenv("STORE", string(StorePostgres))),
		OffersFile: os.Getenv("OFFERS_FILE"),
	}

	var err error
	if cfg.Workers, err = intEnv("EVAL_WORKERS", 4); err != nil {
		return cfg, err
	}
	if cfg.CodeIssueAttempts, err = intEnv("CODE_ISSUE_ATTEMPTS", 5); err != nil {
		return cfg, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return cfg, err
	}
	if v := os.Getenv("DB_MIGRATE"); v != "" {
		if cfg.Migrate, err = strconv.ParseBool(v); err != nil {
			return cfg, errors.Wrapf(err, "invalid DB_MIGRATE %q", v)
		}
	}

	switch cfg.Store {
	case StorePostgres, StoreMemory:
	default:
		return cfg, errors.Errorf("unknown STORE %q", cfg.Store)
	}
	if cfg.Workers < 1 {
		return cfg, errors.New("EVAL_WORKERS must be at least 1")
	}
	if cfg.CodeIssueAttempts < 1 {
		return cfg, errors.New("CODE_ISSUE_ATTEMPTS must be at least 1")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s %q", key, v)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s %q", key, v)
	}
	return d, nil
}
