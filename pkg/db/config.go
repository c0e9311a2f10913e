package db

import (
	"os"
	"strconv"

	"github.com/go-faster/errors"
)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func LoadPostgresConfig() (PostgresConfig, error) {
	cfg := PostgresConfig{
		Host:     getenv("DB_HOST", "localhost"),
		Port:     5432,
		User:     getenv("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   getenv("DB_NAME", "offers"),
		SSLMode:  getenv("DB_SSLMODE", "disable"),
	}

	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, errors.Wrapf(err, "invalid DB_PORT %q", v)
		}
		cfg.Port = port
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
