// Package screensaver implements the screensaver settings panel: theme
// discovery, the mode and idle-time controls, the custom-mode frame and the
// live preview process.
package screensaver

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/rkoesters/xdg/desktop"
	"github.com/rkoesters/xdg/keyfile"
)

// ThemeIDPrefix starts the id of every discovered theme.
const ThemeIDPrefix = "screensavers-ukui-"

// ThemeInfo describes one installed screensaver.
type ThemeInfo struct {
	ID   string
	Name string
	Exec string
}

// LoadThemes reads every .desktop file in dir. Names are localized for
// locale. Files that cannot be parsed are skipped.
func LoadThemes(dir string, locale keyfile.Locale, logger hclog.Logger) map[string]ThemeInfo {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	themes := make(map[string]ThemeInfo)

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Debug("no screensaver themes", "dir", dir, "error", err)
		return themes
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".desktop") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		info, err := readTheme(path, locale)
		if err != nil {
			logger.Warn("skipping screensaver theme", "path", path, "error", err)
			continue
		}
		themes[info.ID] = info
	}
	return themes
}

func readTheme(path string, locale keyfile.Locale) (ThemeInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ThemeInfo{}, err
	}
	defer f.Close()

	entry, err := desktop.NewWithLocale(f, locale)
	if err != nil {
		return ThemeInfo{}, err
	}

	exec := entry.TryExec
	if exec == "" {
		if fields := strings.Fields(entry.Exec); len(fields) > 0 {
			exec = fields[0]
		}
	}
	return ThemeInfo{
		ID:   ThemeIDPrefix + strings.ToLower(entry.Name),
		Name: entry.Name,
		Exec: exec,
	}, nil
}

// SortedIDs returns the theme ids in order.
func SortedIDs(themes map[string]ThemeInfo) []string {
	return slices.Sorted(maps.Keys(themes))
}
