package archive

import (
	"fmt"
	"os"
	"strconv"
)

// DBConfig holds Postgres connection settings.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// DBConfigFromEnv reads DB_* environment variables, falling back to base for
// anything unset.
func DBConfigFromEnv(base DBConfig) DBConfig {
	port := base.Port
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}
	if port == 0 {
		port = 5432
	}

	return DBConfig{
		Host:     getEnv("DB_HOST", or(base.Host, "localhost")),
		Port:     port,
		User:     getEnv("DB_USER", or(base.User, "postgres")),
		Password: getEnv("DB_PASSWORD", or(base.Password, "postgres")),
		Database: getEnv("DB_NAME", or(base.Database, "werewolf")),
		SSLMode:  getEnv("DB_SSLMODE", or(base.SSLMode, "disable")),
	}
}

// DSN returns the Postgres connection URL.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
