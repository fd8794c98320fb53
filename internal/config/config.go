// Package config loads runtime settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	HTTPAddr string
	Owner    string
	Relay    Relay
	Logger   Logger
	Database Database
}

type Relay struct {
	Enabled  bool
	Interval time.Duration
	Batch    int
}

type Logger struct {
	Mode     string
	Filename string
}

type Database struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	Schema   string
}

// DSN returns the connection string for the pgx driver.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		d.Username, d.Password, d.Host, d.Port, d.Name, d.Schema,
	)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func Load() Config {
	return Config{
		HTTPAddr: getenv("LEDGER_HTTP_ADDR", ":8080"),
		Owner:    getenv("LEDGER_OWNER", "owner"),
		Relay: Relay{
			Enabled:  boolenv("LEDGER_JOURNAL_ENABLED", false),
			Interval: time.Duration(atoienv("LEDGER_RELAY_INTERVAL_MS", 1000)) * time.Millisecond,
			Batch:    atoienv("LEDGER_RELAY_BATCH", 100),
		},
		Logger: Logger{
			Mode:     getenv("LEDGER_LOG_MODE", "development"),
			Filename: getenv("LEDGER_LOG_FILE", ""),
		},
		Database: Database{
			Host:     getenv("BLUEPRINT_DB_HOST", "localhost"),
			Port:     getenv("BLUEPRINT_DB_PORT", "5432"),
			Username: os.Getenv("BLUEPRINT_DB_USERNAME"),
			Password: os.Getenv("BLUEPRINT_DB_PASSWORD"),
			Name:     os.Getenv("BLUEPRINT_DB_DATABASE"),
			Schema:   getenv("BLUEPRINT_DB_SCHEMA", "public"),
		},
	}
}
