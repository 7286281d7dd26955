package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukui/deskprefs/internal/ui"
)

// replaceFile writes content next to path and renames it into place, the
// way other settings writers save.
func replaceFile(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".new"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		t.Errorf("failed to write %s: %v", tmp, err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Errorf("failed to rename %s: %v", tmp, err)
	}
}

func TestWatchReloadsExternalChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	store, err := Open(path, Builtin())
	require.NoError(t, err)
	ss, err := store.Settings(ScreensaverSchema)
	require.NoError(t, err)
	require.NoError(t, ss.SetBool("lock-enabled", false))

	var changed []string
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ss.Connect(func(key string) {
		changed = append(changed, key)
		cancel()
	})

	loop := ui.NewLoop()
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx, loop.Post) }()

	content := `
["org.ukui.screensaver"]
lock-enabled = false
idle-activation-enabled = false
`
	// The watcher may not be registered yet; keep saving until the change
	// arrives.
	writer := make(chan struct{})
	go func() {
		defer close(writer)
		tick := time.NewTicker(50 * time.Millisecond)
		defer tick.Stop()
		for {
			replaceFile(t, path, content)
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
			}
		}
	}()

	err = loop.Run(ctx)
	<-writer
	require.False(t, errors.Is(err, context.DeadlineExceeded), "external change was not delivered")

	assert.NoError(t, <-done)
	assert.Equal(t, []string{"idle-activation-enabled"}, changed)
	assert.False(t, ss.Bool("idle-activation-enabled"))
	assert.False(t, ss.Bool("lock-enabled"))
}

func TestWatchNeedsBackingFile(t *testing.T) {
	store := NewStore(Builtin())
	assert.Error(t, store.Watch(context.Background(), func(func()) bool { return true }))
}
