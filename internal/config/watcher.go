package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"flowsheet/internal/logger"
)

const (
	watcherComponent = "ConfigWatcher"
	defaultDebounce  = 100 * time.Millisecond
)

// ReloadFunc receives each successfully reloaded config.
type ReloadFunc func(Config)

// Watcher reloads a config file whenever it changes on disk. The parent
// directory is watched so editors that replace the file are seen too.
type Watcher struct {
	path     string
	onReload ReloadFunc
	logger   logger.Logger
	debounce time.Duration
	ctx      context.Context

	fsw  *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

func WithWatcherLogger(l logger.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger.OrNoOp(l)
	}
}

// WithDebounce coalesces bursts of file events into one reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithContext closes the watcher once ctx is done.
func WithContext(ctx context.Context) WatcherOption {
	return func(w *Watcher) {
		w.ctx = ctx
	}
}

// Watch starts watching path and calls onReload after every change that
// loads and validates. Invalid edits are logged and skipped.
func Watch(path string, onReload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		onReload: onReload,
		logger:   logger.NoOpLogger{},
		debounce: defaultDebounce,
		fsw:      fsw,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()
	if w.ctx != nil {
		go func() {
			select {
			case <-w.ctx.Done():
				_ = w.Close()
			case <-w.done:
			}
		}()
	}
	return w, nil
}

// Path is the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops the watcher and waits for its goroutine. Safe to call more
// than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error(watcherComponent, err, map[string]interface{}{"path": w.path})
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error(watcherComponent, err, map[string]interface{}{"path": w.path})
		return
	}
	w.logger.Info(watcherComponent, "config reloaded", map[string]interface{}{"path": w.path})
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
