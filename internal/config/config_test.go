package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToml = `
[development]
host = "localhost"
port = 9100
log_level = "debug"
store = "memory"
token_ttl = "2h"
allowed_origins = ["http://localhost:3000"]

[production]
host = "0.0.0.0"
log_level = "info"
postgres_host = "db"
redis_host = "redis"
kafka_enabled = true
kafka_brokers = ["kafka:9092"]
exercises_cache_ttl = "30s"
`

func TestParse_Development(t *testing.T) {
	cfg, err := Parse("dev", testToml)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL.Duration)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	// defaults
	assert.Equal(t, "gymrpg", cfg.PostgresDBName)
	assert.Equal(t, "6379", cfg.RedisPort)
	assert.Equal(t, 5*time.Minute, cfg.ExercisesCacheTTL.Duration)
	assert.Equal(t, 30, cfg.SyncRateLimitPerMin)
}

func TestParse_Production(t *testing.T) {
	cfg, err := Parse("production", testToml)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "postgres", cfg.Store)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "gymrpg.progression", cfg.KafkaTopic)
	assert.Equal(t, 30*time.Second, cfg.ExercisesCacheTTL.Duration)
	assert.Equal(t, 30*24*time.Hour, cfg.TokenTTL.Duration)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("staging", testToml)
	assert.Error(t, err)

	_, err = Parse("dockerdev", testToml)
	assert.ErrorContains(t, err, "no config section")

	_, err = Parse("dev", "[development]\nstore = \"mongo\"\n")
	assert.ErrorContains(t, err, "unknown store")

	_, err = Parse("dev", "[development]\nkafka_enabled = true\n")
	assert.ErrorContains(t, err, "no brokers")

	_, err = Parse("dev", "[development]\ntoken_ttl = \"forever\"\n")
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testToml), 0o600))

	cfg, err := Load("development", path)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Host)

	_, err = Load("development", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
