package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"callwatch/internal/calls"
	"callwatch/internal/config"
	"callwatch/internal/dirwatch"
	"callwatch/internal/logging"
	"callwatch/internal/notifications"
	"callwatch/internal/schedule"
	"callwatch/internal/watch"
)

// Deps are the collaborators a daemon drives.
type Deps struct {
	Backend   watch.Backend
	Importer  calls.Importer
	Notifier  notifications.Service
	Scheduler schedule.Scheduler
}

// Daemon coordinates the watch pipeline and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	notifier   notifications.Service
	dispatcher *dirwatch.Dispatcher
	manager    *dirwatch.Manager

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	stopped bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	LockFilePath string
	Watches      []dirwatch.Entry
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) (*Daemon, error) {
	if cfg == nil || deps.Backend == nil || deps.Importer == nil {
		return nil, errors.New("daemon requires config, watch backend, and importer")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(nil)
	}

	dispatcher, err := dirwatch.NewDispatcher(dirwatch.DispatcherOptions{
		Importer:    deps.Importer,
		Scheduler:   deps.Scheduler,
		Notifier:    deps.Notifier,
		SettleDelay: cfg.SettleDelay(),
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create dispatcher: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "callwatch.lock")
	return &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		notifier:   deps.Notifier,
		dispatcher: dispatcher,
		manager:    dirwatch.NewManager(deps.Backend, dispatcher, logger),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and subscribes to every configured directory.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if d.stopped {
		return errors.New("daemon was stopped; create a new one")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another callwatch instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	active := d.manager.Start(runCtx, d.cfg.DirWatch)
	if active == 0 {
		logging.WarnWithContext(d.logger, "no directories are being watched", "no_active_watches",
			logging.Int("configured", len(d.cfg.DirWatch)),
			logging.String(logging.FieldErrorHint, "add a [[dir_watch]] entry with an existing directory"),
			logging.String(logging.FieldImpact, "no calls will be imported"),
		)
	}
	if err := d.notifier.Publish(runCtx, notifications.EventWatchStarted, notifications.Payload{"count": active}); err != nil {
		d.logger.Debug("watch started notification failed", logging.Error(err))
	}

	d.running.Store(true)
	d.logger.Info("callwatch daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("watches", active),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Stop stops the watches, cancels pending imports, and releases the daemon
// lock. A stopped daemon cannot be started again.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return
	}

	d.manager.Stop()
	d.dispatcher.Close()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_unlock_failed"),
		)
	}
	d.running.Store(false)
	d.stopped = true
	d.logger.Info("callwatch daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Status reports whether the daemon runs and which watches are active.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
		Watches:      d.manager.Entries(),
	}
}

// PendingImports reports deferred imports waiting for companion metadata.
func (d *Daemon) PendingImports() int {
	return d.dispatcher.Pending()
}
