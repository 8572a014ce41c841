package ingest

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/docqa-dev/docqa/internal/errors"
)

// DefaultDebounce is the window for coalescing rapid file events.
// Editors fire bursts of writes per save; re-ingesting per event would
// thrash the indexes.
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-ingests files as they change on disk.
type Watcher struct {
	pipeline *Pipeline
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]fsnotify.Op
	timer   *time.Timer
	flushCh chan map[string]fsnotify.Op
}

// NewWatcher creates a watcher driving the given pipeline.
func NewWatcher(pipeline *Pipeline, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		pipeline: pipeline,
		debounce: debounce,
		logger:   logger,
		pending:  make(map[string]fsnotify.Op),
		flushCh:  make(chan map[string]fsnotify.Op, 8),
	}
}

// Watch blocks watching the directory tree until the context is
// cancelled. Subdirectories existing at start are watched; newly
// created ones are added as they appear.
func (w *Watcher) Watch(ctx context.Context, root string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New(errors.ErrCodeIngestFailed, "failed to create file watcher", err)
	}
	defer fsw.Close()

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		return errors.New(errors.ErrCodeIngestFailed, "failed to watch directory tree", err)
	}

	w.logger.Info("watching", slog.String("root", root))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch_error", slog.String("error", err.Error()))

		case batch := <-w.flushCh:
			w.apply(ctx, batch)
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		// New directories need their own watch.
		if isDir(event.Name) {
			if err := fsw.Add(event.Name); err != nil {
				w.logger.Warn("watch_add_failed", slog.String("path", event.Name))
			}
			return
		}
	}

	if !ingestibleExtensions[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[event.Name] = coalesce(w.pending[event.Name], event.Op)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

// coalesce merges operations on one path within the debounce window.
// A create followed by a remove cancels out; anything followed by a
// remove is a remove; otherwise the path just needs re-ingesting.
func coalesce(existing, next fsnotify.Op) fsnotify.Op {
	if existing == 0 {
		return next
	}
	if next.Has(fsnotify.Remove) || next.Has(fsnotify.Rename) {
		if existing.Has(fsnotify.Create) {
			return 0
		}
		return next
	}
	return existing | next
}

func (w *Watcher) flush() {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	select {
	case w.flushCh <- batch:
	default:
		w.logger.Warn("watch_batch_dropped", slog.Int("size", len(batch)))
	}
}

func (w *Watcher) apply(ctx context.Context, batch map[string]fsnotify.Op) {
	for path, op := range batch {
		if op == 0 {
			continue
		}

		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			removed, err := w.pipeline.Remove(ctx, path)
			if err != nil {
				w.logger.Warn("remove_failed", slog.String("path", path), slog.String("error", err.Error()))
				continue
			}
			w.logger.Info("source_removed", slog.String("path", path), slog.Int("chunks", removed))
			continue
		}

		if _, err := w.pipeline.IngestPath(ctx, path); err != nil {
			w.logger.Warn("reingest_failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
