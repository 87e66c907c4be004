package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detax-ai/detax/internal/watcher"
)

func startWatcher(t *testing.T, path string) (*watcher.Watcher, <-chan struct{}) {
	t.Helper()
	w, err := watcher.New(watcher.Config{Path: path, Debounce: 50 * time.Millisecond})
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")
	return w, onChange
}

func TestConfig_Validate(t *testing.T) {
	require.Error(t, watcher.Config{}.Validate())
	require.Error(t, watcher.Config{Path: "x.yaml", Debounce: -time.Second}.Validate())
	require.NoError(t, watcher.Config{Path: "x.yaml"}.Validate())
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: {}"), 0o644))
	_, onChange := startWatcher(t, path)

	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("# %d", i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-onChange:
	case <-time.After(300 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	other := filepath.Join(dir, "history.db")
	require.NoError(t, os.WriteFile(path, []byte("api: {}"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("initial"), 0o644))
	_, onChange := startWatcher(t, path)

	require.NoError(t, os.WriteFile(other, []byte("other content"), 0o644))

	select {
	case <-onChange:
		t.Fatal("should not notify for unrelated files")
	case <-time.After(150 * time.Millisecond):
	}
}

// Editors often save by writing a temp file and renaming it over the
// original.
func TestWatcher_SeesReplacedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: {}"), 0o644))
	_, onChange := startWatcher(t, path)

	tmp := filepath.Join(dir, ".config.yaml.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("ui: {}"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case <-onChange:
	case <-time.After(300 * time.Millisecond):
		t.Fatal("expected notification for replaced file")
	}
}

func TestWatcher_Stop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: {}"), 0o644))

	w, err := watcher.New(watcher.Config{Path: path})
	require.NoError(t, err)
	_, err = w.Start()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop(), "Stop returned error")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestWait(t *testing.T) {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	require.Equal(t, watcher.ChangedMsg{Path: "c.yaml"}, watcher.Wait("c.yaml", ch)())

	close(ch)
	require.Nil(t, watcher.Wait("c.yaml", ch)())
}
