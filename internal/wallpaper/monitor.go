package wallpaper

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"

	"github.com/ukui/deskprefs/internal/compression"
)

// Monitor reports catalog files created or modified in registered
// directories.
type Monitor struct {
	watcher *fsnotify.Watcher
	dirs    []string
	logger  hclog.Logger
}

// NewMonitor creates a monitor with no directories registered.
func NewMonitor(logger hclog.Logger) (*Monitor, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create directory monitor: %w", err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Monitor{watcher: w, logger: logger}, nil
}

// Add registers dir. Registering the same directory twice is a no-op.
func (m *Monitor) Add(dir string) error {
	dir = filepath.Clean(dir)
	if slices.Contains(m.dirs, dir) {
		return nil
	}
	if err := m.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	m.dirs = append(m.dirs, dir)
	return nil
}

// Dirs returns the registered directories in registration order.
func (m *Monitor) Dirs() []string {
	return slices.Clone(m.dirs)
}

// Run delivers the path of every created or written catalog file to handle,
// through post. It blocks until ctx is done or the monitor is closed.
func (m *Monitor) Run(ctx context.Context, post func(func()) bool, handle func(path string)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			base := filepath.Base(ev.Name)
			if strings.HasPrefix(base, ".") || !compression.IsCatalogFile(base) {
				continue
			}
			path := ev.Name
			m.logger.Debug("catalog file changed", "path", path, "op", ev.Op.String())
			post(func() { handle(path) })
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Warn("directory monitor error", "error", err)
		}
	}
}

// Close stops watching every directory.
func (m *Monitor) Close() error {
	return m.watcher.Close()
}

// Watch reloads changed catalog files into cat until ctx is done. It needs a
// monitor set with WithMonitor. onLoad, if not nil, is called after each
// reload with the number of entries added.
func (m *Manager) Watch(ctx context.Context, cat *Catalog, post func(func()) bool, onLoad func(path string, added int)) error {
	if m.monitor == nil {
		return fmt.Errorf("wallpaper manager has no monitor")
	}
	return m.monitor.Run(ctx, post, func(path string) {
		n := m.LoadXML(cat, path)
		m.logger.Debug("reloaded catalog file", "path", path, "added", n)
		if onLoad != nil {
			onLoad(path, n)
		}
	})
}
