package config

import (
	"context"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/smazurov/padnode/internal/logging"
)

const defaultDebounce = 1500 * time.Millisecond

// Watcher reloads a file through loader whenever it changes on disk and
// hands each fresh value to the registered handlers. The parent directory
// is watched so editors that save by rename are picked up.
type Watcher[T any] struct {
	path     string
	debounce time.Duration
	loader   func(path string) (T, error)
	onError  func(error)
	logger   logging.Logger

	mu       sync.Mutex
	nextID   int
	handlers map[int]func(T)

	fs     *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption[T any] func(*Watcher[T])

// WithDebounce sets how long the file must stay quiet before a reload.
func WithDebounce[T any](d time.Duration) WatcherOption[T] {
	return func(w *Watcher[T]) { w.debounce = d }
}

// WithErrorHandler is called when a changed file fails to load.
func WithErrorHandler[T any](fn func(error)) WatcherOption[T] {
	return func(w *Watcher[T]) { w.onError = fn }
}

// NewConfigWatcher returns a stopped watcher for path.
func NewConfigWatcher[T any](path string, loader func(string) (T, error), logger logging.Logger, opts ...WatcherOption[T]) *Watcher[T] {
	w := &Watcher[T]{
		path:     filepath.Clean(path),
		debounce: defaultDebounce,
		loader:   loader,
		logger:   logger,
		handlers: make(map[int]func(T)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// OnReload registers fn and returns a func that removes it.
func (w *Watcher[T]) OnReload(fn func(T)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.handlers[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.handlers, id)
		w.mu.Unlock()
	}
}

// Start begins watching. It fails if the directory cannot be watched.
func (w *Watcher[T]) Start() error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fs.Add(filepath.Dir(w.path)); err != nil {
		_ = fs.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.fs = fs
	w.cancel = cancel
	w.done = make(chan struct{})
	w.logger.Info("Watching file", "path", w.path, "debounce", w.debounce)
	go w.loop(ctx)
	return nil
}

// Stop ends watching and waits for the loop to exit.
func (w *Watcher[T]) Stop() error {
	if w.fs == nil {
		return nil
	}
	w.cancel()
	err := w.fs.Close()
	<-w.done
	return err
}

func (w *Watcher[T]) touches(ev fsnotify.Event) bool {
	return filepath.Clean(ev.Name) == w.path && ev.Op&(fsnotify.Write|fsnotify.Create) != 0
}

func (w *Watcher[T]) loop(ctx context.Context) {
	defer close(w.done)

	quiet := time.NewTimer(w.debounce)
	quiet.Stop()
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.touches(ev) {
				w.logger.Debug("File touched", "op", ev.Op.String())
				quiet.Reset(w.debounce)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watch error", "error", err)
		case <-quiet.C:
			w.reload()
		}
	}
}

func (w *Watcher[T]) reload() {
	value, err := w.loader(w.path)
	if err != nil {
		w.logger.Warn("Reload failed, keeping previous", "path", w.path, "error", err)
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	w.logger.Info("Reloaded", "path", w.path)

	w.mu.Lock()
	ids := make([]int, 0, len(w.handlers))
	for id := range w.handlers {
		ids = append(ids, id)
	}
	fns := make([]func(T), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, w.handlers[id])
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}
