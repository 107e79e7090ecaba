// Package watcher reloads the corpus/index artifact pair when the files change.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 2 * time.Second

// Watcher watches the corpus and index artifact files and invokes a single
// reload callback after changes settle. The two artifacts are typically
// rewritten together by an offline build step; debouncing collapses the pair
// of writes into one reload so the positional alignment check never sees a
// half-updated pair.
type Watcher struct {
	corpusPath string
	indexPath  string
	onReload   func()
	debounce   time.Duration
	watcher    *fsnotify.Watcher
	mu         sync.Mutex
	timer      *time.Timer
	started    bool
	stopOnce   sync.Once
	done       chan struct{}
	logger     *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the reload debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher for the given artifact paths. onReload is called
// after either file changes and the debounce interval passes quietly.
func New(corpusPath, indexPath string, onReload func(), logger *zap.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		corpusPath: corpusPath,
		indexPath:  indexPath,
		onReload:   onReload,
		debounce:   defaultDebounce,
		done:       make(chan struct{}),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
// The parent directories are watched rather than the files themselves so
// rename-over-replace (the usual atomic update pattern) is observed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	dirs := map[string]struct{}{
		filepath.Dir(w.corpusPath): {},
		filepath.Dir(w.indexPath):  {},
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			w.mu.Unlock()
			return err
		}
	}
	w.watcher = watcher
	w.started = true
	w.mu.Unlock()

	w.logger.Info("watching artifacts for hot reload",
		zap.String("corpus", w.corpusPath),
		zap.String("index", w.indexPath),
	)
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("artifact changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("artifact watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == filepath.Clean(w.corpusPath) || name == filepath.Clean(w.indexPath)
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onReload)
}

// Stop stops watching. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
		w.mu.Unlock()
	})
}
