package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"estatemetrics/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLocal(t *testing.T) {
	cfg, err := config.Load("local.yaml")
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "sqlite", cfg.Credentials.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Credentials.AccessTTL)
	assert.Equal(t, 168*time.Hour, cfg.Credentials.RefreshTTL)
	assert.Equal(t, 5*time.Minute, cfg.Session.RefreshThreshold)
	assert.Equal(t, 44044, cfg.GRPC.Port)
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "min.yaml")
	require.NoError(t, os.WriteFile(path, []byte("env: prod\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "estatemetrics", cfg.Credentials.Namespace)
	assert.Equal(t, 10*time.Second, cfg.Session.RefreshTimeout)
	assert.Equal(t, 7*24*time.Hour, cfg.Credentials.ExpiresTTL)
}

func TestLoadMissing(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
