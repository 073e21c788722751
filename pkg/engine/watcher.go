package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchOptions configures a Watcher.
type WatchOptions struct {
	// DebounceMs groups rapid successive events for one file into a
	// single invalidation. Zero uses a 200ms default.
	DebounceMs int
	// IgnorePatterns are filepath.Match patterns applied to a path's base
	// name; matching paths are never watched or invalidated.
	IgnorePatterns []string
}

// DefaultWatchOptions returns sensible defaults.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{DebounceMs: 200}
}

// Watcher invalidates an Engine's cached views and Type Store results as
// the files backing them change on disk. This lives outside pkg/infer
// deliberately: the inference core never invalidates its own caches, only
// a collaborator-side driver like this one does.
type Watcher struct {
	engine  *Engine
	fsw     *fsnotify.Watcher
	options WatchOptions

	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	mu       sync.Mutex
	stopped  bool
	stopChan chan struct{}
}

// NewWatcher creates a Watcher over engine. It does not start watching
// until Start is called.
func NewWatcher(e *Engine, options WatchOptions) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("engine: creating file watcher: %w", err)
	}
	if options.DebounceMs == 0 {
		options.DebounceMs = 200
	}
	return &Watcher{
		engine:         e,
		fsw:            fsw,
		options:        options,
		debounceTimers: make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
	}, nil
}

// Start watches root and every subdirectory, invalidating the engine's
// cached view of a file each time it changes. Returns once the initial
// watch set is installed; event handling runs in a background goroutine.
func (w *Watcher) Start(root string) error {
	if err := w.fsw.Add(root); err != nil {
		return fmt.Errorf("engine: watching %s: %w", root, err)
	}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
	if err != nil {
		return fmt.Errorf("engine: setting up watches under %s: %w", root, err)
	}

	go w.eventLoop()
	return nil
}

// Stop ends the watch and cancels every pending debounce timer. Safe to
// call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = make(map[string]*time.Timer)
	w.debounceMu.Unlock()

	return w.fsw.Close()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.engine.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.shouldIgnore(event.Name) {
		return
	}
	if !strings.HasSuffix(event.Name, ".py") {
		return
	}

	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		w.debounceInvalidate(event.Name)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.invalidateNow(event.Name)
	}
}

func (w *Watcher) debounceInvalidate(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounceTimers[path]; ok {
		timer.Stop()
	}
	w.debounceTimers[path] = time.AfterFunc(
		time.Duration(w.options.DebounceMs)*time.Millisecond,
		func() {
			w.invalidateNow(path)
			w.debounceMu.Lock()
			delete(w.debounceTimers, path)
			w.debounceMu.Unlock()
		},
	)
}

// invalidateNow clears every cache entry derived from path. Invalidation
// is deliberately conservative: a symbol whose public_type
// depended on path through an arbitrarily long import chain loses its
// cached result too, since the Type Store has no reverse dependency edges
// to invalidate more precisely.
func (w *Watcher) invalidateNow(path string) {
	file, ok := w.engine.resolver.FileIDForPath(path)
	if !ok {
		return
	}
	w.engine.invalidate(path, file)
	w.engine.logger.Debug("invalidated file", "path", path)
}

func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.options.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	switch base {
	case ".git", "__pycache__", ".venv", "venv", "node_modules":
		return true
	}
	return false
}
