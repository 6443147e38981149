package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Registry, cfg.Registry)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, time.Hour, cfg.Cleanup.Interval)
	assert.True(t, cfg.Cleanup.Policy().IsEmpty())
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
registry:
  root: /srv/models
  index_backend: badger
  lock_timeout: 3s
log:
  level: debug
cleanup:
  keep_last_n: 5
  max_age: 720h
  min_metric: R2
  min_value: 0.5
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/models", cfg.Registry.Root)
	assert.Equal(t, IndexBackendBadger, cfg.Registry.IndexBackend)
	assert.Equal(t, 3*time.Second, cfg.Registry.LockTimeout)
	assert.Equal(t, "model.bin", cfg.Registry.ArtifactName)
	assert.Equal(t, "debug", cfg.Log.Level)

	policy := cfg.Cleanup.Policy()
	require.NotNil(t, policy.KeepLastN)
	assert.Equal(t, 5, *policy.KeepLastN)
	assert.Equal(t, 720*time.Hour, policy.MaxAge)
	require.NotNil(t, policy.MinMetric)
	assert.Equal(t, "R2", policy.MinMetric.Name)
	assert.Equal(t, 0.5, policy.MinMetric.Min)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("MODELREG_REGISTRY_ROOT", "/tmp/env-root")
	t.Setenv("MODELREG_REGISTRY_LOCK__TIMEOUT", "250ms")
	t.Setenv("MODELREG_CLEANUP_KEEP__LAST__N", "7")

	path := writeConfig(t, "registry:\n  root: /from/file\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env-root", cfg.Registry.Root)
	assert.Equal(t, 250*time.Millisecond, cfg.Registry.LockTimeout)
	assert.Equal(t, 7, cfg.Cleanup.KeepLastN)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", "registry:\n  index_backend: sqlite\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"negative keep", "cleanup:\n  keep_last_n: -1\n"},
		{"unknown key", "registry:\n  colour: red\n"},
		{"artifact in subdir", "registry:\n  artifact_name: a/b.bin\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "registry.root", envKey("MODELREG_REGISTRY_ROOT"))
	assert.Equal(t, "registry.index_backend", envKey("MODELREG_REGISTRY_INDEX__BACKEND"))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".modelreg"), ExpandHome("~/.modelreg"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
}

func TestLoadOverrides(t *testing.T) {
	oldPath, oldRoot, oldLevel := ConfigPath, RootOverride, LogLevelOverride
	defer func() {
		ConfigPath, RootOverride, LogLevelOverride = oldPath, oldRoot, oldLevel
	}()

	ConfigPath = writeConfig(t, "registry:\n  root: /from/file\n")
	RootOverride = "/from/flag"
	LogLevelOverride = "warn"

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.Registry.Root)
	assert.Equal(t, "warn", cfg.Log.Level)
}
