// Package watcher re-ingests local playlist files when they change.
// It watches a directory (or a single file's directory), filters for
// M3U files, and debounces bursts of writes so one save triggers one
// ingestion run.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 2 * time.Second

// ChangeFunc is invoked with the changed playlist path after the
// debounce window closes. Errors are logged, never fatal to the watch.
type ChangeFunc func(ctx context.Context, path string) error

// Watcher monitors playlist files for changes.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange ChangeFunc
	logger   *slog.Logger

	fs *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher for path, which may be a playlist file or a
// directory of playlists. A zero debounce falls back to the default.
func New(path string, debounce time.Duration, onChange ChangeFunc, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	// Watch the directory so editors that replace the file (write to a
	// temp name, then rename) are still observed.
	info, err := os.Stat(path)
	if err != nil {
		fs.Close()
		return nil, fmt.Errorf("stat watch path: %w", err)
	}
	dir := path
	if !info.IsDir() {
		dir = filepath.Dir(path)
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		path:     path,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		fs:       fs,
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Start blocks consuming file system events until the context is
// canceled or the underlying watcher closes.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("watching playlist path", "path", w.path, "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

// Stop closes the watcher and cancels pending debounce timers.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	return w.fs.Close()
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	if !w.matches(event.Name) {
		return
	}

	w.logger.Debug("playlist change detected", "path", event.Name, "op", event.Op.String())
	w.schedule(ctx, event.Name)
}

// matches reports whether the changed path is one we care about: the
// configured file itself, or any M3U file when watching a directory.
func (w *Watcher) matches(changed string) bool {
	if filepath.Clean(changed) == filepath.Clean(w.path) {
		return true
	}

	info, err := os.Stat(w.path)
	if err != nil || !info.IsDir() {
		return false
	}

	switch strings.ToLower(filepath.Ext(changed)) {
	case ".m3u", ".m3u8":
		return true
	default:
		return false
	}
}

// schedule arms (or re-arms) the debounce timer for one path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}

	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}

		w.logger.Info("re-ingesting changed playlist", "path", path)
		if err := w.onChange(ctx, path); err != nil {
			w.logger.Error("playlist re-ingest failed", "path", path, "error", err)
		}
	})
}
