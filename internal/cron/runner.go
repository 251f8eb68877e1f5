// Package cron runs the periodic dose refresh and keeps alarms in step with
// the store when another process edits it
package cron

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gmsas95/dosekeeper-cli/internal/schedule"
	"go.uber.org/zap"
)

// Refresher is what the runner drives. Neither call may mutate the store.
type Refresher interface {
	Refresh(ctx context.Context) ([]schedule.Dose, error)
	Resync(ctx context.Context) error
}

// Config holds runner configuration
type Config struct {
	Interval  time.Duration // Between dose refreshes
	WatchPath string        // Store file to watch; empty disables watching
	Debounce  time.Duration // Quiet period before a resync after a file change

	// ResyncOnTick resyncs alarms on every tick, for stores that cannot be watched
	ResyncOnTick bool
}

// Runner refreshes the due-dose view on a ticker and resyncs alarms at
// start and whenever the watched store file changes
type Runner struct {
	config    Config
	refresher Refresher
	logger    *zap.Logger
	onRefresh func([]schedule.Dose)
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	running   bool
	mu        sync.RWMutex
}

// NewRunner creates a new refresh runner
func NewRunner(config Config, refresher Refresher, logger *zap.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())

	if config.Interval <= 0 {
		config.Interval = 60 * time.Second
	}
	if config.Debounce <= 0 {
		config.Debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		config:    config,
		refresher: refresher,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// OnRefresh registers a callback receiving every refreshed dose list
func (r *Runner) OnRefresh(fn func([]schedule.Dose)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRefresh = fn
}

// Start resyncs alarms and starts the refresh loop
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("refresh runner already running")
	}

	if err := r.refresher.Resync(r.ctx); err != nil {
		r.logger.Warn("Startup alarm resync failed", zap.Error(err))
	}

	var watcher *fsnotify.Watcher
	if r.config.WatchPath != "" {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		// The store is replaced by rename, so watch the directory
		if err := w.Add(filepath.Dir(r.config.WatchPath)); err != nil {
			w.Close()
			return fmt.Errorf("failed to watch %s: %w", r.config.WatchPath, err)
		}
		watcher = w
	}

	r.running = true
	r.wg.Add(1)
	go r.run()

	if watcher != nil {
		r.wg.Add(1)
		go r.watch(watcher)
	}

	r.logger.Info("Refresh runner started",
		zap.Duration("interval", r.config.Interval),
		zap.String("watch", r.config.WatchPath),
	)
	return nil
}

// Stop stops the runner
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
	r.logger.Info("Refresh runner stopped")
}

// IsRunning returns whether the runner is active
func (r *Runner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// run is the main loop
func (r *Runner) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	// Refresh immediately on start
	r.refresh()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			if r.config.ResyncOnTick {
				if err := r.refresher.Resync(r.ctx); err != nil {
					r.logger.Warn("Alarm resync failed", zap.Error(err))
				}
			}
			r.refresh()
		}
	}
}

func (r *Runner) refresh() {
	doses, err := r.refresher.Refresh(r.ctx)
	if err != nil {
		r.logger.Error("Failed to refresh doses", zap.Error(err))
		return
	}

	r.logger.Debug("Doses refreshed", zap.Int("due", len(doses)))
	for _, d := range doses {
		if d.Remaining < r.config.Interval {
			r.logger.Info("Dose due soon",
				zap.String("name", d.Medicine.Name),
				zap.String("time", d.NextTime),
				zap.String("remaining", d.Label),
			)
		}
	}

	r.mu.RLock()
	fn := r.onRefresh
	r.mu.RUnlock()
	if fn != nil {
		fn(doses)
	}
}

func (r *Runner) watch(w *fsnotify.Watcher) {
	defer r.wg.Done()
	defer w.Close()

	target := filepath.Clean(r.config.WatchPath)
	var debounce <-chan time.Time

	for {
		select {
		case <-r.ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				debounce = time.After(r.config.Debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			r.logger.Warn("Store watcher error", zap.Error(err))
		case <-debounce:
			debounce = nil
			r.logger.Info("Store changed, resyncing alarms")
			if err := r.refresher.Resync(r.ctx); err != nil {
				r.logger.Warn("Alarm resync failed", zap.Error(err))
			}
			r.refresh()
		}
	}
}
