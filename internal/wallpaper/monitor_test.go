package wallpaper

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorReloadsChangedCatalog(t *testing.T) {
	dir := t.TempDir()
	imgs := touchImages(t, dir, "new.png")

	mon, err := NewMonitor(nil)
	require.NoError(t, err)
	t.Cleanup(func() { mon.Close() })

	m := newTestManager(t, dir, WithMonitor(mon))
	sys := m.Paths().SystemDir
	require.NoError(t, os.MkdirAll(sys, 0o755))

	cat := NewCatalog()
	m.LoadList(cat)
	require.Zero(t, cat.Len())
	require.Equal(t, []string{sys}, mon.Dirs())

	posted := make(chan func(), 16)
	post := func(fn func()) bool {
		posted <- fn
		return true
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx, cat, post, nil) }()

	writeFile(t, filepath.Join(sys, "README"), "ignored")
	writeFile(t, filepath.Join(sys, "extra.xml"), catalogXML(entry(imgs[0], "New")))

	deadline := time.After(5 * time.Second)
	for !cat.Contains(imgs[0]) {
		select {
		case fn := <-posted:
			fn()
		case <-deadline:
			t.Fatal("catalog change was not delivered")
		}
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestMonitorAddTwice(t *testing.T) {
	dir := t.TempDir()
	mon, err := NewMonitor(nil)
	require.NoError(t, err)
	defer mon.Close()

	require.NoError(t, mon.Add(dir))
	require.NoError(t, mon.Add(dir+"/"))
	assert.Len(t, mon.Dirs(), 1)
	assert.Error(t, mon.Add(filepath.Join(dir, "missing")))
}

func TestWatchWithoutMonitor(t *testing.T) {
	m := NewManager(Paths{}, failingResolver{}, WithLanguages([]string{"C"}))
	assert.Error(t, m.Watch(context.Background(), NewCatalog(), func(func()) bool { return true }, nil))
}
