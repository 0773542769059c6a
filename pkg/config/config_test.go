package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("requires a master key", func(t *testing.T) {
		t.Setenv("MASTER_API_KEY", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("requires an LLM key outside mock mode", func(t *testing.T) {
		t.Setenv("MASTER_API_KEY", "master")
		t.Setenv("LLM_MODE", "")
		t.Setenv("LLM_API_KEY", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("mock mode needs no credentials", func(t *testing.T) {
		t.Setenv("MASTER_API_KEY", "master")
		t.Setenv("LLM_MODE", "mock")
		t.Setenv("LLM_API_KEY", "")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, LLMModeMock, cfg.LLM.Mode)
	})

	t.Run("rejects an unknown mode", func(t *testing.T) {
		t.Setenv("MASTER_API_KEY", "master")
		t.Setenv("LLM_MODE", "oracle")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("MASTER_API_KEY", "master")
		t.Setenv("LLM_MODE", "mock")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.HTTPPort)
		assert.Equal(t, 10, cfg.Limits.WritesPerMinute)
		assert.Equal(t, 30, cfg.Limits.IngressPerMinute)
		assert.Equal(t, 100, cfg.Limits.MessagesPerDay)
		assert.Equal(t, 30*time.Second, cfg.Pipeline.LeaseTimeout)
		assert.Equal(t, 5, cfg.Pipeline.BreakerThreshold)
		assert.Equal(t, 90, cfg.Retention.LLMCallRetentionDays)
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("MASTER_API_KEY", "master")
		t.Setenv("LLM_MODE", "mock")
		t.Setenv("HTTP_PORT", "9090")
		t.Setenv("RATE_LIMIT_MESSAGES_PER_MINUTE", "5")
		t.Setenv("CONVERSATION_LEASE_TIMEOUT", "10s")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.HTTPPort)
		assert.Equal(t, 5, cfg.Limits.IngressPerMinute)
		assert.Equal(t, 10*time.Second, cfg.Pipeline.LeaseTimeout)
	})

	t.Run("malformed numbers fall back to defaults", func(t *testing.T) {
		t.Setenv("MASTER_API_KEY", "master")
		t.Setenv("LLM_MODE", "mock")
		t.Setenv("RATE_LIMIT_MESSAGES_PER_DAY", "many")
		t.Setenv("CLEANUP_INTERVAL", "sometimes")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 100, cfg.Limits.MessagesPerDay)
		assert.Equal(t, 12*time.Hour, cfg.Retention.CleanupInterval)
	})
}
