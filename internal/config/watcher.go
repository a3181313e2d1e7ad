package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	Debounce time.Duration
	Logger   *zap.Logger
	// OnChange receives every successfully reloaded config.
	OnChange func(*Config)
}

// Watcher reloads a config file when it changes on disk.
// Invalid edits are logged and ignored; the last good config stays current.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	debounce *debouncer
	logger   *zap.Logger
	onChange func(*Config)

	mu      sync.RWMutex
	current *Config

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWatcher loads path and prepares to watch it.
// The parent directory is watched so atomic renames are seen.
func NewWatcher(path string, opts WatcherOptions) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		path:     path,
		fsw:      fsw,
		debounce: newDebouncer(opts.Debounce),
		logger:   logger.Named("config"),
		onChange: opts.OnChange,
		current:  cfg,
		done:     make(chan struct{}),
	}, nil
}

// Current returns the last successfully loaded config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins watching until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Close stops the watcher and waits for its goroutine.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.debounce.cancel()
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.debounce.trigger(w.reload)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload rejected", zap.String("path", w.path), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	w.logger.Info("config reloaded",
		zap.Bool("arbitrum_nova", cfg.FeatureFlags.ArbitrumNova),
		zap.Bool("solana", cfg.FeatureFlags.Solana),
	)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
