package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Verification.TokenTTL)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, "altguard.enforcement", cfg.Kafka.EnforcementTopic)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, time.Hour, cfg.Redis.Retention)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ALTGUARD_ADDR", ":9090")
	t.Setenv("VERIFY_TOKEN_TTL", "5m")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://altguard@localhost/altguard")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Verification.TokenTTL)
	assert.Equal(t, StoragePostgres, cfg.Storage.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestValidate(t *testing.T) {
	t.Run("postgres requires a database url", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "postgres")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})

	t.Run("unknown backend rejected", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "json-file")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "json-file")
	})

	t.Run("non-positive ttl rejected", func(t *testing.T) {
		t.Setenv("VERIFY_TOKEN_TTL", "0s")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "VERIFY_TOKEN_TTL")
	})
}
