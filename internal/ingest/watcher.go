package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce coalesces bursts of write events into one callback.
const defaultDebounce = 250 * time.Millisecond

// FileWatcher watches the draw history CSV for external edits and invokes
// a callback when the file settles after a change.
type FileWatcher struct {
	path     string
	debounce time.Duration
	onChange func()
	logger   *slog.Logger
	stopChan chan struct{}
}

// NewFileWatcher creates a watcher for the given file. onChange runs after
// each debounced modification.
func NewFileWatcher(path string, onChange func(), logger *slog.Logger) *FileWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWatcher{
		path:     path,
		debounce: defaultDebounce,
		onChange: onChange,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start blocks watching the file until the context is cancelled or Stop is
// called.
func (w *FileWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.path); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	w.logger.Info("watching draw file", "path", w.path)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopChan:
			return nil
		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Restart the debounce window on every event in a burst.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			w.logger.Debug("draw file changed", "path", w.path)
			w.onChange()
		case err := <-watcher.Errors:
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// Stop halts the watcher.
func (w *FileWatcher) Stop() {
	close(w.stopChan)
}
