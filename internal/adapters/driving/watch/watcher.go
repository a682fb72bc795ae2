// Package watch ingests files into a collection as they appear or change in
// a directory tree.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driving"
	"github.com/custodia-labs/ragbox/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is ingested.
const DefaultDebounce = 500 * time.Millisecond

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("watch: watcher is closed")

// Config holds watcher settings.
type Config struct {
	// Collection receives the files.
	Collection string

	// Dir is the root of the watched tree.
	Dir string

	// Debounce delays ingestion until writes settle (default: 500ms).
	Debounce time.Duration

	// AutoConfirm overwrites changed files without staging them.
	AutoConfirm bool

	// InitialScan ingests every existing file before watching.
	InitialScan bool

	// OnResult, when set, is called after each ingestion attempt.
	OnResult func(path string, result *domain.IngestResult, err error)
}

// Watcher feeds file changes under Config.Dir into an IngestService.
type Watcher struct {
	ingest driving.IngestService
	cfg    Config
	fsw    *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool

	ready chan string
}

// New creates a watcher over cfg.Dir. The directory must exist.
func New(ingest driving.IngestService, cfg Config) (*Watcher, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: collection is required", domain.ErrInvalidInput)
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, cfg.Dir)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}

	return &Watcher{
		ingest: ingest,
		cfg:    cfg,
		fsw:    fsw,
		timers: make(map[string]*time.Timer),
		ready:  make(chan string, 64),
	}, nil
}

// Run watches until ctx is cancelled. Files are ingested one at a time.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if err := w.addTree(w.cfg.Dir); err != nil {
		return err
	}
	if w.cfg.InitialScan {
		w.scan(ctx)
	}
	logger.Info("Watching %s for collection %q", w.cfg.Dir, w.cfg.Collection)

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.handleFsEvent(event); ok {
				w.schedule(path)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case path := <-w.ready:
			w.ingestFile(ctx, path)
		}
	}
}

// Close stops the underlying fs watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	for _, t := range w.timers {
		t.Stop()
	}
	return w.fsw.Close()
}

// handleFsEvent decides whether event names a file to ingest. New
// directories are added to the watch list instead.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if w.hidden(event.Name) {
		return "", false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			logger.Debug("%s removed; its chunks stay until deleted explicitly", event.Name)
		}
		return "", false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.addTree(event.Name); err != nil {
				logger.Warn("watch %s: %v", event.Name, err)
			}
		}
		return "", false
	}
	if !info.Mode().IsRegular() {
		return "", false
	}
	return event.Name, true
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.ready <- path
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

// addTree watches root and every non-hidden directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// scan ingests every regular, non-hidden file under the root.
func (w *Watcher) scan(ctx context.Context) {
	root := w.cfg.Dir
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			w.ingestFile(ctx, path)
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		logger.Warn("initial scan of %s: %v", root, err)
	}
}

// ingestFile reads path and hands it to the ingest service.
func (w *Watcher) ingestFile(ctx context.Context, path string) {
	file, err := w.readFile(path)
	if err != nil {
		logger.Warn("read %s: %v", path, err)
		w.report(path, nil, err)
		return
	}

	var opts domain.IngestOptions
	if w.cfg.AutoConfirm {
		opts.Confirm = []string{file.FileName}
	}

	result, err := w.ingest.Ingest(ctx, w.cfg.Collection, []domain.UploadFile{file}, opts)
	if err != nil {
		logger.Error("ingest %s into %q: %v", file.FileName, w.cfg.Collection, err)
		w.report(path, nil, err)
		return
	}

	for _, fr := range result.Files {
		switch fr.Outcome {
		case domain.OutcomeNeedsConfirmation:
			logger.Warn("%s changed; run 'ragbox update %s %s' to replace it",
				fr.FileName, w.cfg.Collection, fr.FileName)
		case domain.OutcomeFailed:
			logger.Warn("%s failed: %s", fr.FileName, fr.Reason)
		default:
			logger.Info("%s: %s", fr.FileName, fr.Outcome)
		}
	}
	w.report(path, result, nil)
}

func (w *Watcher) report(path string, result *domain.IngestResult, err error) {
	if w.cfg.OnResult != nil {
		w.cfg.OnResult(path, result, err)
	}
}

// readFile builds an upload named by the path relative to the root, so
// files with the same base name in different directories stay distinct.
func (w *Watcher) readFile(path string) (domain.UploadFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.UploadFile{}, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.UploadFile{}, err
	}

	name, err := filepath.Rel(w.cfg.Dir, path)
	if err != nil || strings.HasPrefix(name, "..") {
		name = filepath.Base(path)
	}

	return domain.UploadFile{
		FileName:   filepath.ToSlash(name),
		Path:       path,
		Content:    content,
		ModifiedAt: info.ModTime(),
	}, nil
}

// hidden checks path relative to the root, so a root inside a dot
// directory still works.
func (w *Watcher) hidden(path string) bool {
	rel, err := filepath.Rel(w.cfg.Dir, path)
	if err != nil {
		return isHidden(path)
	}
	return isHidden(rel)
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}
