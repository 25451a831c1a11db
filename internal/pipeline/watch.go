package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sibyllinesoft/valknut/internal/config"
)

// defaultWatchDebounce batches a burst of filesystem events (an editor
// save often fires write+chmod+rename in quick succession) into one
// re-analysis run instead of one per event.
const defaultWatchDebounce = 300 * time.Millisecond

// WatchOptions configures Watch. Root/Config/Concurrency/SoftFileTimeout
// are forwarded to Execute on every re-run; Debounce defaults to
// defaultWatchDebounce when zero.
type WatchOptions struct {
	Options
	Debounce time.Duration
}

// Watch recursively watches Root for filesystem changes and invokes
// onRun with a fresh Execute result after each debounced batch of
// changes, until ctx is cancelled. Unlike the teacher's incremental
// FileWatcher (which patches a long-lived index symbol-by-symbol),
// valknut re-runs the whole snapshot pipeline per batch: a project a
// quality pipeline watches is small enough that a full re-run is
// simpler and can't drift from Execute's own invariants.
func Watch(ctx context.Context, opts WatchOptions, onRun func(*Run, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, opts.Root, opts.Config.Analysis); err != nil {
		return fmt.Errorf("failed to watch %s: %w", opts.Root, err)
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}

	var mu sync.Mutex
	var timer *time.Timer
	trigger := func() {
		run, err := Execute(ctx, opts.Options)
		onRun(run, err)
	}

	// Run once immediately so callers see an initial result before the
	// first change.
	trigger()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, trigger)
			mu.Unlock()
		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}

// addWatchDirs recursively registers every non-excluded directory under
// root with watcher, mirroring Discover's exclusion rules so a watch
// doesn't fire on paths the pipeline would never parse anyway.
func addWatchDirs(watcher *fsnotify.Watcher, root string, cfg config.Analysis) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root {
			rel, relErr := filepath.Rel(root, path)
			if relErr == nil {
				rel = filepath.ToSlash(rel)
				if matchesAny(cfg.ExcludePatterns, rel) || matchesAny(cfg.ExcludePatterns, rel+"/") {
					return filepath.SkipDir
				}
			}
		}
		_ = watcher.Add(path)
		return nil
	})
}
