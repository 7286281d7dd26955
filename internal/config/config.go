// Package config loads the deskprefs configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ukui/deskprefs/internal/screensaver"
	"github.com/ukui/deskprefs/internal/thumbnail"
)

// WallpaperConfig locates the wallpaper catalog sources.
type WallpaperConfig struct {
	UserCatalog    string `toml:"user_catalog"    comment:"Per-user wallpaper database; read exclusively when present and written by 'wallpaper save'"`
	SystemDir      string `toml:"system_dir"      comment:"Directory of system wallpaper lists (*.xml, optionally .gz, .xz or .bz2 compressed)"`
	LegacyList     string `toml:"legacy_list"     comment:"Legacy flat list, one wallpaper path per line"`
	ParseColors    bool   `toml:"parse_colors"    comment:"Keep pcolor/scolor values from catalog files instead of writing the black placeholder"`
	Thumbnails     bool   `toml:"thumbnails"      comment:"Look up freedesktop thumbnails for listed wallpapers"`
	RunThumbnailer bool   `toml:"run_thumbnailer" comment:"Run external thumbnailers to create missing thumbnails"`
	ThumbnailSize  int    `toml:"thumbnail_size"  comment:"Thumbnail height in pixels"`
}

// ScreensaverConfig locates the screensaver programs.
type ScreensaverConfig struct {
	ThemeDir    string `toml:"theme_dir"    comment:"Directory of screensaver theme .desktop files"`
	Binary      string `toml:"binary"       comment:"Default screensaver used for the UKUI and Customize previews"`
	Dialog      string `toml:"dialog"       comment:"Full-screen screensaver started when the preview is clicked"`
	StopTimeout string `toml:"stop_timeout" comment:"How long to wait for a preview to exit, e.g. '2s'"`
}

// SettingsConfig locates the key/value store.
type SettingsConfig struct {
	File string `toml:"file" comment:"TOML file backing the screensaver and background settings"`
}

// Config is the whole configuration document.
type Config struct {
	LogLevel    string            `toml:"log_level" comment:"trace, debug, info, warn or error"`
	Wallpaper   WallpaperConfig   `toml:"Wallpaper"`
	Screensaver ScreensaverConfig `toml:"Screensaver"`
	Settings    SettingsConfig    `toml:"Settings"`
}

// Dir returns the deskprefs configuration directory.
func Dir() string {
	return filepath.Join(configHome(), "deskprefs")
}

// DefaultPath returns the default location of the configuration file.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}

// NewDefaultConfig returns the configuration used when no file exists.
func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: "warn",
		Wallpaper: WallpaperConfig{
			UserCatalog:    filepath.Join(configHome(), "ukui", "backgrounds.xml"),
			SystemDir:      "/usr/share/ukui-background-properties",
			LegacyList:     filepath.Join(os.Getenv("HOME"), ".gnome2", "wallpapers.list"),
			ParseColors:    false,
			Thumbnails:     false,
			RunThumbnailer: false,
			ThumbnailSize:  thumbnail.DefaultSize,
		},
		Screensaver: ScreensaverConfig{
			ThemeDir:    screensaver.DefaultThemeDir,
			Binary:      screensaver.DefaultBinary,
			Dialog:      screensaver.DialogBinary,
			StopTimeout: screensaver.DefaultStopTimeout.String(),
		},
		Settings: SettingsConfig{
			File: filepath.Join(Dir(), "settings.toml"),
		},
	}
}

// Load reads path, creating it with defaults when it does not exist, and
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	content, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := Write(path, cfg); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := toml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// Write stores cfg at path.
func Write(path string, cfg *Config) error {
	content, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { // #nosec G301 - config directory needs standard permissions
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil { // #nosec G306 - config file is not secret
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides locations from DESKPREFS_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	overrides := []struct {
		name   string
		target *string
	}{
		{"DESKPREFS_USER_CATALOG", &c.Wallpaper.UserCatalog},
		{"DESKPREFS_SYSTEM_WALLPAPER_DIR", &c.Wallpaper.SystemDir},
		{"DESKPREFS_LEGACY_LIST", &c.Wallpaper.LegacyList},
		{"DESKPREFS_THEME_DIR", &c.Screensaver.ThemeDir},
		{"DESKPREFS_SCREENSAVER_BIN", &c.Screensaver.Binary},
		{"DESKPREFS_SETTINGS_FILE", &c.Settings.File},
		{"DESKPREFS_LOG_LEVEL", &c.LogLevel},
	}
	for _, o := range overrides {
		if v := getenv(o.name); v != "" {
			*o.target = v
		}
	}
}

// StopTimeout parses the preview stop timeout, falling back to the default.
func (c *Config) StopTimeout() time.Duration {
	d, err := time.ParseDuration(c.Screensaver.StopTimeout)
	if err != nil || d <= 0 {
		return screensaver.DefaultStopTimeout
	}
	return d
}
