package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api", cfg.BaseURL)
	assert.Equal(t, BackendBbolt, cfg.SessionBackend)
	assert.Equal(t, filepath.Join(dir, "session.db"), cfg.SessionFile)
	assert.Equal(t, "examflow:", cfg.RedisPrefix)
	assert.False(t, cfg.Debug)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(
		"base_url: https://exams.example.edu/api\nsession_backend: memory\nredis_prefix: file:\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"EXAMFLOW_REDIS_PREFIX=dotenv:\nEXAMFLOW_DEBUG=true\n"), 0o600))
	t.Setenv("EXAMFLOW_SESSION_BACKEND", "redis")
	t.Setenv("EXAMFLOW_REDIS_ADDR", "cache:6380")
	t.Cleanup(func() {
		os.Unsetenv("EXAMFLOW_REDIS_PREFIX")
		os.Unsetenv("EXAMFLOW_DEBUG")
	})

	v, err := New(dir)
	require.NoError(t, err)
	v.Set("redis_password", "from-flag")

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "https://exams.example.edu/api", cfg.BaseURL, "config file over default")
	assert.Equal(t, "redis", cfg.SessionBackend, "env over config file")
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, "dotenv:", cfg.RedisPrefix, ".env over config file")
	assert.True(t, cfg.Debug)
	assert.Equal(t, "from-flag", cfg.RedisPassword)
}

func TestLoadValidation(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	t.Setenv("EXAMFLOW_SESSION_BACKEND", "sqlite")
	_, err := Load(dir)
	assert.ErrorContains(t, err, "session_backend")

	t.Setenv("EXAMFLOW_SESSION_BACKEND", "memory")
	t.Setenv("EXAMFLOW_BASE_URL", "exams.example.edu")
	_, err = Load(dir)
	assert.ErrorContains(t, err, "base_url")
}

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
