package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "deskprefs", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/usr/share/ukui-background-properties", cfg.Wallpaper.SystemDir)
	assert.Equal(t, 128, cfg.Wallpaper.ThumbnailSize)
	assert.Equal(t, 2*time.Second, cfg.StopTimeout())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[Wallpaper]")
	assert.Contains(t, string(content), "# Directory of screensaver theme .desktop files")
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[Wallpaper]
system_dir = "/opt/backgrounds"
parse_colors = true

[Screensaver]
stop_timeout = "500ms"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/opt/backgrounds", cfg.Wallpaper.SystemDir)
	assert.True(t, cfg.Wallpaper.ParseColors)
	assert.Equal(t, 500*time.Millisecond, cfg.StopTimeout())
	assert.NotEmpty(t, cfg.Screensaver.Binary, "unset keys keep defaults")
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("log_level = ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DESKPREFS_USER_CATALOG":         "/tmp/bg.xml",
		"DESKPREFS_SYSTEM_WALLPAPER_DIR": "/tmp/sys",
		"DESKPREFS_THEME_DIR":            "/tmp/themes",
		"DESKPREFS_SETTINGS_FILE":        "/tmp/settings.toml",
	}
	cfg := NewDefaultConfig()
	legacy := cfg.Wallpaper.LegacyList
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "/tmp/bg.xml", cfg.Wallpaper.UserCatalog)
	assert.Equal(t, "/tmp/sys", cfg.Wallpaper.SystemDir)
	assert.Equal(t, "/tmp/themes", cfg.Screensaver.ThemeDir)
	assert.Equal(t, "/tmp/settings.toml", cfg.Settings.File)
	assert.Equal(t, legacy, cfg.Wallpaper.LegacyList)
}

func TestStopTimeoutFallback(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Screensaver.StopTimeout = "soon"
	assert.Equal(t, 2*time.Second, cfg.StopTimeout())
}
