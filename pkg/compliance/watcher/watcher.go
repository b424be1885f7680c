// Package watcher hot-reloads DecisionBundle files from a directory,
// debouncing rapid filesystem events so a burst of writes (an editor's
// save-as-temp-then-rename, a git checkout touching many files at once)
// triggers one reload instead of one per event.
package watcher

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/glassbox-labs/compliance-engine/pkg/compliance/bundle"
)

// Config controls which directory is watched and how reloads are debounced.
type Config struct {
	// Dir is the directory scanned and watched for DecisionBundle files.
	Dir string

	// DebounceInterval is how long to wait after the last filesystem event
	// before reloading. Zero or negative means the default of 100ms.
	DebounceInterval time.Duration

	// ValidateOnLoad sets how a bundle file that fails to load is logged:
	// at warn level when true, at debug level when false. Such a file is
	// skipped either way.
	ValidateOnLoad bool
}

func (c *Config) debounce() time.Duration {
	if c.DebounceInterval <= 0 {
		return 100 * time.Millisecond
	}
	return c.DebounceInterval
}

var bundleExtensions = map[string]bool{".json": true, ".yaml": true, ".yml": true}

// Watcher loads every DecisionBundle file from a directory and keeps the
// set current by reloading on filesystem change, debounced.
type Watcher struct {
	config  Config
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	debounce *debouncer

	mu      sync.RWMutex
	bundles map[string]*bundle.Bundle // keyed by file path

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a bundle watcher over config.Dir. Call Load to populate the
// initial bundle set, then Start to begin watching for changes.
func New(config Config, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		config:   config,
		logger:   logger.With("component", "compliance.watcher"),
		watcher:  fsw,
		debounce: newDebouncer(config.debounce()),
		bundles:  make(map[string]*bundle.Bundle),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	return w, nil
}

// Load scans config.Dir once, parsing every bundle file found. A file that
// fails to parse is logged and skipped rather than failing the whole load,
// unless config.ValidateOnLoad is false, in which case it's skipped
// silently at debug level.
func (w *Watcher) Load() error {
	matches, err := filepath.Glob(filepath.Join(w.config.Dir, "*"))
	if err != nil {
		return fmt.Errorf("failed to list bundle directory %q: %w", w.config.Dir, err)
	}

	loaded := make(map[string]*bundle.Bundle, len(matches))
	for _, path := range matches {
		if !bundleExtensions[strings.ToLower(filepath.Ext(path))] {
			continue
		}
		b, err := w.loadFile(path)
		if err != nil {
			if w.config.ValidateOnLoad {
				w.logger.Warn("skipping invalid bundle file", "path", path, "error", err)
			} else {
				w.logger.Debug("skipping unparseable bundle file", "path", path, "error", err)
			}
			continue
		}
		loaded[path] = b
	}

	w.mu.Lock()
	w.bundles = loaded
	w.mu.Unlock()

	w.logger.Info("loaded decision bundles", "dir", w.config.Dir, "count", len(loaded))
	return nil
}

func (w *Watcher) loadFile(path string) (*bundle.Bundle, error) {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return bundle.FromFile(path)
	}
	return bundle.FromYAMLFile(path)
}

// Bundles returns every currently loaded bundle, keyed by source file path.
func (w *Watcher) Bundles() map[string]*bundle.Bundle {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[string]*bundle.Bundle, len(w.bundles))
	for path, b := range w.bundles {
		out[path] = b
	}
	return out
}

// Start begins watching config.Dir for changes, reloading that single file
// (debounced) whenever it's created, written, or removed. Start returns
// once watching has begun; call Stop to end it.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.config.Dir); err != nil {
		return fmt.Errorf("failed to watch directory %q: %w", w.config.Dir, err)
	}

	go w.run()
	w.logger.Info("bundle watcher started", "dir", w.config.Dir)
	return nil
}

func (w *Watcher) run() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.shouldProcess(event) {
				continue
			}
			path := event.Name
			w.debounce.trigger(func() { w.reloadOne(path, event.Op) })
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("bundle watcher error", "error", err)
		}
	}
}

func (w *Watcher) shouldProcess(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	return bundleExtensions[strings.ToLower(filepath.Ext(event.Name))]
}

func (w *Watcher) reloadOne(path string, op fsnotify.Op) {
	if op&fsnotify.Remove == fsnotify.Remove || op&fsnotify.Rename == fsnotify.Rename {
		w.mu.Lock()
		delete(w.bundles, path)
		w.mu.Unlock()
		w.logger.Info("bundle removed", "path", path)
		return
	}

	b, err := w.loadFile(path)
	if err != nil {
		w.logger.Warn("bundle reload failed, keeping previous version", "path", path, "error", err)
		return
	}

	w.mu.Lock()
	w.bundles[path] = b
	w.mu.Unlock()
	w.logger.Info("bundle reloaded", "path", path, "bundle_id", b.Metadata.ID)
}

// Stop stops the watcher and waits for its run loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.debounce.stop()
	return w.watcher.Close()
}
