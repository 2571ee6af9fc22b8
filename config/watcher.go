package config

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/wippyai/worker-host/errors"
	"github.com/wippyai/worker-host/worker"
)

// debounce coalesces the bursts of write events editors produce on save.
const debounce = 500 * time.Millisecond

// ChangeCallback is invoked after a successful reload with the old and new
// configurations. Callbacks run on the watcher's goroutine.
type ChangeCallback func(old, updated *Config)

// Watcher watches a configuration file and hot-reloads it on change. A
// reload that fails validation keeps the previous configuration in place.
type Watcher struct {
	path string
	fsw  *fsnotify.Watcher

	mu  sync.RWMutex
	cfg *Config

	callbacksMu sync.Mutex
	callbacks   []ChangeCallback

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher loads the initial configuration from path and prepares a
// watcher for it. Watching does not begin until Start.
func NewWatcher(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "create filesystem watcher")
	}

	return &Watcher{path: path, fsw: fsw, cfg: cfg}, nil
}

// Config returns the most recently loaded valid configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

// OnChange registers a callback for successful reloads.
func (w *Watcher) OnChange(cb ChangeCallback) {
	w.callbacksMu.Lock()
	defer w.callbacksMu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins watching the configuration file.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(w.path); err != nil {
		return errors.Wrap(errors.PhaseHost, errors.KindNotFound, err, "watch config "+w.path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop stops watching and waits for the watch loop to exit.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

// Reload re-reads the configuration immediately, outside the debounce
// window.
func (w *Watcher) Reload() error {
	return w.reload()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			switch {
			case ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create):
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, func() {
					if err := w.reload(); err != nil {
						worker.Logger().Warn("config reload failed, keeping previous",
							zap.String("path", w.path), zap.Error(err))
					}
				})
			case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
				// Editors replace rather than rewrite; try to re-attach once
				// the file reappears.
				worker.Logger().Warn("config file removed or renamed", zap.String("path", w.path))
				time.AfterFunc(time.Second, func() {
					if err := w.fsw.Add(w.path); err == nil {
						_ = w.reload()
					}
				})
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			worker.Logger().Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() error {
	updated, err := Load(w.path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	old := w.cfg
	w.cfg = updated
	w.mu.Unlock()

	w.callbacksMu.Lock()
	callbacks := make([]ChangeCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.callbacksMu.Unlock()

	for _, cb := range callbacks {
		cb(old, updated)
	}

	worker.Logger().Info("configuration reloaded", zap.String("path", w.path))
	return nil
}
