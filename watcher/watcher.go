package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultInterval is the quiet period before a batch is emitted.
const DefaultInterval = 100 * time.Millisecond

// SkipChecker decides which paths the watcher ignores.
// *ignore.Matcher satisfies it.
type SkipChecker interface {
	ShouldSkip(path string, isDir bool) bool
}

// Watcher provides recursive file system watching with debouncing.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	skip      SkipChecker
	rootDir   string
	logger    *slog.Logger
}

// NewWatcher creates a recursive watcher on rootDir, registering every
// directory the checker does not skip.
func NewWatcher(rootDir string, skip SkipChecker, interval time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		debouncer: NewDebouncer(interval),
		skip:      skip,
		rootDir:   rootDir,
		logger:    logger,
	}
	if err := w.addTree(rootDir, false); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// Events returns the channel that receives debounced batches.
func (w *Watcher) Events() <-chan Batch {
	return w.debouncer.Output()
}

// Start listens for file system events until ctx is done or the watcher is
// closed. Call this in a goroutine.
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// fsnotify drops watches on removed directories itself
		w.debouncer.Add(path, OpRemove)

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Lstat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if event.Has(fsnotify.Create) && !w.skip.ShouldSkip(path, true) {
				// Files may land before the watch is in place
				if err := w.addTree(path, true); err != nil {
					w.logger.Warn("failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
		if w.skip.ShouldSkip(path, false) {
			return
		}
		w.debouncer.Add(path, OpChange)
	}
}

// addTree watches dir and every non-skipped directory below it. With
// emitFiles set, files found on the way are reported as changed.
func (w *Watcher) addTree(dir string, emitFiles bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if emitFiles && !w.skip.ShouldSkip(path, false) {
				w.debouncer.Add(path, OpChange)
			}
			return nil
		}
		if path != w.rootDir && w.skip.ShouldSkip(path, true) {
			return filepath.SkipDir
		}
		if watchErr := w.fsWatcher.Add(path); watchErr != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", watchErr)
		}
		return nil
	})
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.debouncer.Stop()
	return w.fsWatcher.Close()
}
