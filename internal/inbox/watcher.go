// Package inbox ingests manuals dropped into a directory.
//
// Create and Write events for *.pdf and *.md files are debounced per path,
// so a file that is still being copied is ingested once, after it settles.
// Ingests run one at a time in arrival order.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// DefaultDebounce is the quiet period before a changed file is ingested.
const DefaultDebounce = time.Second

// queueSize bounds the number of settled files waiting for the worker.
const queueSize = 64

// ResultFunc receives the outcome of each ingest.
type ResultFunc func(path string, manual *domain.Manual, err error)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExisting queues the manuals already in the directory at start.
func WithExisting(on bool) Option {
	return func(w *Watcher) {
		w.existing = on
	}
}

// WithIngestOptions sets the options every ingest runs with.
func WithIngestOptions(opts domain.IngestOptions) Option {
	return func(w *Watcher) {
		w.opts = opts
	}
}

// WithResultFunc reports each ingest outcome to fn.
func WithResultFunc(fn ResultFunc) Option {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// Watcher feeds manuals appearing in a directory to the ingest service.
type Watcher struct {
	dir      string
	ingest   driving.IngestService
	debounce time.Duration
	existing bool
	opts     domain.IngestOptions
	onResult ResultFunc

	mu      sync.Mutex
	pending map[string]*time.Timer
	queue   chan string
	done    chan struct{}
}

// New creates a watcher for dir. The directory must exist.
func New(dir string, ingest driving.IngestService, opts ...Option) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch %s: not a directory", dir)
	}

	w := &Watcher{
		dir:      dir,
		ingest:   ingest,
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
		queue:    make(chan string, queueSize),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.work(ctx)
	}()
	defer func() {
		w.stop()
		wg.Wait()
	}()

	if w.existing {
		w.queueExisting()
	}
	logger.Info("Watching %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && IsManual(event.Name) {
				w.schedule(event.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.enqueue(path)
	})
}

func (w *Watcher) enqueue(path string) {
	select {
	case w.queue <- path:
	case <-w.done:
	}
}

func (w *Watcher) queueExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logger.Warn("Could not list %s: %v", w.dir, err)
		return
	}
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if !e.IsDir() && IsManual(path) {
			w.enqueue(path)
		}
	}
}

// work ingests queued files sequentially.
func (w *Watcher) work(ctx context.Context) {
	for {
		select {
		case <-w.done:
			return
		case path := <-w.queue:
			if ctx.Err() != nil {
				return
			}
			w.process(ctx, path)
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		logger.Debug("Skipping %s: %v", path, err)
		return
	}

	logger.Info("Ingesting %s", filepath.Base(path))
	manual, err := w.ingest.Ingest(ctx, path, w.opts)
	if err != nil {
		logger.Error("Ingest of %s failed: %v", filepath.Base(path), err)
	}
	if w.onResult != nil {
		w.onResult(path, manual, err)
	}
}

// stop cancels pending timers and releases the worker.
func (w *Watcher) stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	close(w.done)
}

// IsManual reports whether path names an ingestible manual. Hidden files
// and editor or download temporaries are ignored.
func IsManual(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return false
	}
	_, ok := domain.ManualKindFromPath(path)
	return ok
}
