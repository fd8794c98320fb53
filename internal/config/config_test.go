package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"LEDGER_HTTP_ADDR", "LEDGER_OWNER", "LEDGER_JOURNAL_ENABLED",
		"LEDGER_RELAY_INTERVAL_MS", "LEDGER_RELAY_BATCH", "LEDGER_LOG_MODE", "LEDGER_LOG_FILE",
		"BLUEPRINT_DB_HOST", "BLUEPRINT_DB_PORT", "BLUEPRINT_DB_USERNAME",
		"BLUEPRINT_DB_PASSWORD", "BLUEPRINT_DB_DATABASE", "BLUEPRINT_DB_SCHEMA",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c := Load()
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "owner", c.Owner)
	assert.False(t, c.Relay.Enabled)
	assert.Equal(t, time.Second, c.Relay.Interval)
	assert.Equal(t, 100, c.Relay.Batch)
	assert.Equal(t, "development", c.Logger.Mode)
	assert.Empty(t, c.Logger.Filename)
	assert.Equal(t, "localhost", c.Database.Host)
	assert.Equal(t, "public", c.Database.Schema)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEDGER_HTTP_ADDR", ":9090")
	t.Setenv("LEDGER_OWNER", "0.0.1001")
	t.Setenv("LEDGER_JOURNAL_ENABLED", "true")
	t.Setenv("LEDGER_RELAY_INTERVAL_MS", "250")
	t.Setenv("LEDGER_RELAY_BATCH", "7")
	t.Setenv("LEDGER_LOG_MODE", "production")
	t.Setenv("BLUEPRINT_DB_USERNAME", "u")
	t.Setenv("BLUEPRINT_DB_PASSWORD", "p")
	t.Setenv("BLUEPRINT_DB_DATABASE", "ledger")

	c := Load()
	assert.Equal(t, ":9090", c.HTTPAddr)
	assert.Equal(t, "0.0.1001", c.Owner)
	assert.True(t, c.Relay.Enabled)
	assert.Equal(t, 250*time.Millisecond, c.Relay.Interval)
	assert.Equal(t, 7, c.Relay.Batch)
	assert.Equal(t, "production", c.Logger.Mode)
	assert.Equal(t, "postgres://u:p@localhost:5432/ledger?sslmode=disable&search_path=public", c.Database.DSN())
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEDGER_RELAY_BATCH", "many")
	t.Setenv("LEDGER_JOURNAL_ENABLED", "perhaps")
	c := Load()
	assert.Equal(t, 100, c.Relay.Batch)
	assert.False(t, c.Relay.Enabled)
}
