package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("FLOWCANVAS_LOG_LEVEL", "")
	t.Setenv("FLOWCANVAS_STEP_DELAY_MS", "")
	t.Setenv("FLOWCANVAS_SCHEDULER_TICK", "")
	return home
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolateHome(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.StepDelay())
	assert.Equal(t, 60*time.Second, cfg.SchedulerInterval())
}

func TestLoadConfig_SettingsFile(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".flowcanvas")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"),
		[]byte(`{"log_level":"debug","step_delay_ms":250}`), 0o644))

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.StepDelay())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".flowcanvas")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"),
		[]byte(`{"log_level":"debug"}`), 0o644))
	t.Setenv("FLOWCANVAS_LOG_LEVEL", "warn")
	t.Setenv("FLOWCANVAS_STEP_DELAY_MS", "50")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 50*time.Millisecond, cfg.StepDelay())
}

func TestLoadConfig_RejectsBadLogLevel(t *testing.T) {
	isolateHome(t)
	t.Setenv("FLOWCANVAS_LOG_LEVEL", "verbose")

	_, err := loadConfig()
	require.Error(t, err)
}
