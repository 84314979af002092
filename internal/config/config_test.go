package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ADMIN_KEY", "secret")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 100, cfg.RateLimit)
	assert.Equal(t, 60*time.Second, cfg.RateWindow)
	assert.Equal(t, 900*time.Second, cfg.RateBlockDuration)
	assert.Equal(t, 1000, cfg.LogCap)
	assert.Equal(t, 50, cfg.LogListLimit)
	assert.Equal(t, "file", cfg.QueueBackend)
	assert.Equal(t, filepath.Join("./data", "archives"), cfg.ArchiveDir)
	assert.False(t, cfg.NeedsRedis())
	assert.Empty(t, cfg.Origins())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ADMIN_KEY", "secret")
	t.Setenv("RATE_LIMIT", "5")
	t.Setenv("RATE_WINDOW", "10s")
	t.Setenv("QUEUE_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, https://b.test,,")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.RateLimit)
	assert.Equal(t, 10*time.Second, cfg.RateWindow)
	assert.Equal(t, "redis", cfg.QueueBackend)
	assert.True(t, cfg.NeedsRedis())
	assert.Equal(t, []string{"http://a.test", "https://b.test"}, cfg.Origins())
}

func TestLoad_YAMLFileBelowEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "admin_key: from-file\nlog_cap: 20\nlisten_addr: \":9000\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "relay.yaml"), []byte(yaml), 0o644))
	t.Setenv("LOG_CAP", "30")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.AdminKey)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, 30, cfg.LogCap)
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing admin key", map[string]string{}, "ADMIN_KEY is required"},
		{"bad limit", map[string]string{"ADMIN_KEY": "x", "RATE_LIMIT": "0"}, "RATE_LIMIT must be > 0"},
		{"redis without addr", map[string]string{"ADMIN_KEY": "x", "QUEUE_BACKEND": "redis"}, "REDIS_ADDR is required when QUEUE_BACKEND=redis"},
		{"unknown backend", map[string]string{"ADMIN_KEY": "x", "QUEUE_BACKEND": "kafka"}, `QUEUE_BACKEND must be file or redis, got "kafka"`},
		{"stats without addr", map[string]string{"ADMIN_KEY": "x", "RATE_STATS_ENABLED": "true"}, "REDIS_ADDR is required when RATE_STATS_ENABLED=true"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("ADMIN_KEY", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(t.TempDir())
			require.Error(t, err)
			assert.EqualError(t, err, tc.want)
		})
	}
}
