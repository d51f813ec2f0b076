// ABOUTME: Directory watcher that keeps the library in step with files on disk
// ABOUTME: Batches fsnotify events and rebuilds the index once changes settle
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/harper/docqa/internal/extract"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/util"
)

// DefaultDebounce is how long the watcher waits for events to settle
const DefaultDebounce = 2 * time.Second

// Library is where ingested files are stored
type Library interface {
	Save(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id string) error
}

// RebuildFunc rebuilds the index from the library
type RebuildFunc func(ctx context.Context) (models.RebuildResult, error)

type change int

const (
	changeUpsert change = iota
	changeRemove
)

// Watcher ingests files from one directory (not recursive)
type Watcher struct {
	dir      string
	library  Library
	rebuild  RebuildFunc
	debounce time.Duration
	logger   *log.Logger

	pending     map[string]change
	needRebuild bool

	// OnRebuild, when set, is called after each successful rebuild
	OnRebuild func(models.RebuildResult)
}

// New creates a Watcher for dir
func New(dir string, library Library, rebuild RebuildFunc, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, models.NewInvalidArgument("%s is not a directory", abs)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      abs,
		library:  library,
		rebuild:  rebuild,
		debounce: debounce,
		logger:   log.WithPrefix("watch"),
		pending:  make(map[string]change),
	}, nil
}

// Dir returns the absolute watched directory
func (w *Watcher) Dir() string {
	return w.dir
}

// DocumentID is the stable library ID for a watched file, so re-ingesting
// a file replaces its previous version.
func DocumentID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(path))).String()
}

// Record queues a filesystem event. It reports whether the event matters.
func (w *Watcher) Record(ev fsnotify.Event) bool {
	path := filepath.Clean(ev.Name)
	if !eligible(path) {
		return false
	}

	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.pending[path] = changeRemove
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return false
		}
		w.pending[path] = changeUpsert
	default:
		return false
	}
	return true
}

// Scan queues every eligible file already in the directory
func (w *Watcher) Scan() (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", w.dir, err)
	}
	queued := 0
	for _, entry := range entries {
		path := filepath.Join(w.dir, entry.Name())
		if entry.IsDir() || !eligible(path) {
			continue
		}
		w.pending[path] = changeUpsert
		queued++
	}
	return queued, nil
}

// Pending returns the number of queued paths
func (w *Watcher) Pending() int {
	return len(w.pending)
}

// Flush applies queued changes to the library and rebuilds if anything
// changed. A failed rebuild, including ErrBuildInProgress, stays owed for the next flush.
func (w *Watcher) Flush(ctx context.Context) error {
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		var err error
		if w.pending[path] == changeUpsert {
			err = w.ingest(ctx, path)
		} else {
			err = w.forget(ctx, path)
		}
		delete(w.pending, path)
		if err != nil {
			w.logger.Warn("skipping file", "path", path, "err", err)
			continue
		}
		w.needRebuild = true
	}

	if !w.needRebuild {
		return nil
	}

	res, err := w.rebuild(ctx)
	if err != nil {
		return err
	}
	w.needRebuild = false
	w.logger.Info("index rebuilt", "version", res.Version, "chunks", res.ChunkCount, "warnings", res.WarningCount)
	if w.OnRebuild != nil {
		w.OnRebuild(res)
	}
	return nil
}

func (w *Watcher) ingest(ctx context.Context, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return w.forget(ctx, path)
	}
	doc, err := extract.FromFile(path)
	if err != nil {
		return err
	}
	doc.DocumentID = DocumentID(path)
	if err := w.library.Save(ctx, &doc); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	w.logger.Debug("ingested", "path", path, "id", doc.DocumentID, "chars", len(doc.FullText))
	return nil
}

func (w *Watcher) forget(ctx context.Context, path string) error {
	err := w.library.Delete(ctx, DocumentID(path))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to delete: %w", err)
	}
	w.logger.Debug("removed", "path", path)
	return nil
}

// Run watches the directory until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	return w.loop(ctx, fw.Events, fw.Errors)
}

func (w *Watcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	timer := time.NewTimer(w.debounce)
	if len(w.pending) == 0 {
		timer.Stop()
	}
	defer timer.Stop()

	// consecutive failed rebuilds, used to back off retries
	failures := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if w.Record(ev) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		case <-timer.C:
			err := w.Flush(ctx)
			switch {
			case err == nil:
				failures = 0
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, models.ErrBuildInProgress):
				w.logger.Debug("rebuild busy, retrying", "after", w.debounce)
				timer.Reset(w.debounce)
			default:
				failures++
				delay := util.CalculateBackoff(w.debounce, failures)
				w.logger.Error("rebuild failed", "err", err, "attempt", failures, "retry_in", delay)
				timer.Reset(delay)
			}
		}
	}
}

// eligible skips hidden and editor temp files and unsupported formats
func eligible(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return extract.IsSupported(path)
}
