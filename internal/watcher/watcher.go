// Package watcher monitors a project tree and re-annotates source files as
// they change. Events are debounced so editor save bursts trigger a single
// pass per file.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/puremark/internal/config"
	"github.com/standardbeagle/puremark/internal/debug"
	"github.com/standardbeagle/puremark/internal/pipeline"
	"github.com/standardbeagle/puremark/internal/rewrite"
	"github.com/standardbeagle/puremark/internal/transform"
)

// Watcher monitors the configured project root for file changes.
type Watcher struct {
	watcher   *fsnotify.Watcher
	cfg       *config.Config
	opts      transform.Options
	scanner   *pipeline.Scanner
	debouncer *eventDebouncer
	done      chan struct{}
	wg        sync.WaitGroup

	onAnnotated func(path string, stats transform.Stats)
	onError     func(path string, err error)
}

// New creates a watcher for the project described by cfg. Start must be
// called before any events are delivered.
func New(cfg *config.Config, opts transform.Options) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher: fsWatcher,
		cfg:     cfg,
		opts:    opts,
		scanner: pipeline.NewScanner(cfg),
		done:    make(chan struct{}),
	}
	w.debouncer = newEventDebouncer(time.Duration(cfg.Watch.DebounceMs)*time.Millisecond, w.annotatePath)
	return w, nil
}

// SetCallbacks registers observers for annotation results. Both are invoked
// from the debouncer goroutine.
func (w *Watcher) SetCallbacks(
	onAnnotated func(path string, stats transform.Stats),
	onError func(path string, err error),
) {
	w.onAnnotated = onAnnotated
	w.onError = onError
}

// Start adds watches for every directory under the project root and begins
// processing events.
func (w *Watcher) Start() error {
	if err := w.addWatches(w.cfg.Project.Root); err != nil {
		return fmt.Errorf("failed to add watches under %s: %w", w.cfg.Project.Root, err)
	}

	w.wg.Add(1)
	go w.processEvents()

	debug.Logf("watcher: started for %s", w.cfg.Project.Root)
	return nil
}

// Stop tears down the watcher and waits for in-flight processing. Events
// still pending in the debouncer are dropped.
func (w *Watcher) Stop() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	w.debouncer.stop()
	return err
}

// addWatches recursively watches all non-excluded directories.
func (w *Watcher) addWatches(root string) error {
	// Track visited real paths to prevent symlink cycles.
	visitedDirs := make(map[string]bool)

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}

		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visitedDirs[realPath] {
			return filepath.SkipDir
		}
		visitedDirs[realPath] = true

		if rel, err := filepath.Rel(root, path); err == nil && rel != "." {
			if w.excludedDir(rel) {
				return filepath.SkipDir
			}
		}

		if err := w.watcher.Add(path); err != nil {
			debug.Logf("watcher: failed to watch %s: %v", path, err)
		}
		return nil
	})
}

// excludedDir applies the exclusion patterns to a directory path. Patterns
// like "**/node_modules/**" match the directory itself via doublestar's
// zero-segment globstar.
func (w *Watcher) excludedDir(rel string) bool {
	return w.scanner.Excluded(rel)
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			debug.Logf("watcher: error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	path := event.Name
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	if info.IsDir() {
		// Watch newly created directories so files inside are seen.
		if event.Op&fsnotify.Create != 0 {
			if rel, err := filepath.Rel(w.cfg.Project.Root, path); err == nil && !w.excludedDir(rel) {
				if err := w.watcher.Add(path); err != nil {
					debug.Logf("watcher: failed to watch new directory %s: %v", path, err)
				}
			}
		}
		return
	}

	rel, err := filepath.Rel(w.cfg.Project.Root, path)
	if err != nil || !w.scanner.Matches(rel) {
		return
	}

	w.debouncer.addEvent(path)
}

// annotatePath runs one annotation pass over a changed file. The rewrite is
// byte-identical on already annotated input, so the write-back event the
// rewrite itself generates settles after one extra no-op pass.
func (w *Watcher) annotatePath(path string) {
	src, err := os.ReadFile(path)
	if err != nil {
		w.reportError(path, err)
		return
	}

	rel, err := filepath.Rel(w.cfg.Project.Root, path)
	if err != nil {
		rel = path
	}

	out, stats, err := transform.New().Source(rel, src, w.opts)
	if err != nil {
		w.reportError(path, err)
		return
	}

	if rewrite.Changed(src, out) {
		mode := os.FileMode(0644)
		if info, err := os.Stat(path); err == nil {
			mode = info.Mode().Perm()
		}
		if err := os.WriteFile(path, out, mode); err != nil {
			w.reportError(path, err)
			return
		}
	} else if stats.Annotated == 0 {
		// Nothing applied and nothing written, stay quiet.
		return
	}

	if w.onAnnotated != nil {
		w.onAnnotated(rel, stats)
	}
}

func (w *Watcher) reportError(path string, err error) {
	debug.Logf("watcher: %s: %v", path, err)
	if w.onError != nil {
		w.onError(path, err)
	}
}
