package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyllinesoft/valknut/internal/config"
)

func TestAddWatchDirsSkipsExcludedSubtrees(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor", "dep"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	cfg := config.Analysis{ExcludePatterns: []string{"**/vendor/**"}}
	require.NoError(t, addWatchDirs(watcher, root, cfg))

	watched := watcher.WatchList()
	assert.Contains(t, watched, root)
	assert.Contains(t, watched, filepath.Join(root, "src"))
	assert.NotContains(t, watched, filepath.Join(root, "vendor"))
	assert.NotContains(t, watched, filepath.Join(root, "vendor", "dep"))
}

func TestWatchRunsImmediatelyAndOnChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.unknownlang"), []byte("x\n"), 0o644))

	cfg := config.Default()
	cfg.Analysis.Modules = nil

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := make(chan *Run, 8)
	go func() {
		_ = Watch(ctx, WatchOptions{
			Options:  Options{Root: root, Config: cfg},
			Debounce: 10 * time.Millisecond,
		}, func(run *Run, err error) {
			if err == nil {
				runs <- run
			}
		})
	}()

	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("expected an initial run before any filesystem change")
	}

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.unknownlang"), []byte("y\n"), 0o644))

	select {
	case run := <-runs:
		assert.Equal(t, 2, run.Index.Len(), "the debounced re-run sees the new file")
	case <-time.After(5 * time.Second):
		t.Fatal("expected a re-run after the filesystem change debounced")
	}
}
