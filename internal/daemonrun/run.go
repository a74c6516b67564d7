package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"callwatch/internal/calls"
	"callwatch/internal/callstore"
	"callwatch/internal/config"
	"callwatch/internal/daemon"
	"callwatch/internal/logging"
	"callwatch/internal/mqttpub"
	"callwatch/internal/notifications"
	"callwatch/internal/preflight"
	"callwatch/internal/schedule"
	"callwatch/internal/watch"
)

const (
	currentLogName = "callwatch.log"
	pidFileName    = "callwatch.pid"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the callwatch daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logPath := logging.RunLogPath(cfg.Paths.LogDir, time.Now())
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", currentLogName, err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: logging.RunLogPattern, Exclude: []string{logPath}},
	)
	pidPath := filepath.Join(cfg.Paths.LogDir, pidFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logPreflight(signalCtx, logger, cfg)

	sinks, closeSinks, err := openSinks(cfg, logger)
	if err != nil {
		logger.Error("open call sinks", logging.Error(err))
		return err
	}
	defer closeSinks()

	notifier := notifications.NewService(cfg)
	backend := watch.NewFSNotify(watch.Options{
		StabilityThreshold: cfg.StabilityThreshold(),
		PollInterval:       cfg.PollInterval(),
	}, logger)

	d, err := daemon.New(cfg, logger, daemon.Deps{
		Backend:   backend,
		Importer:  sinks,
		Notifier:  notifier,
		Scheduler: schedule.Real{},
	})
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	defer d.Stop()

	<-signalCtx.Done()
	logger.Info("callwatch daemon shutting down",
		logging.Int("pending_imports", d.PendingImports()),
		logging.String(logging.FieldEventType, "daemon_shutdown"),
	)
	return nil
}

// openSinks builds the importer chain from the enabled store and MQTT
// sections. The returned func releases every opened sink; on error nothing
// is left open.
func openSinks(cfg *config.Config, logger *slog.Logger) (calls.Fanout, func(), error) {
	var (
		importers []calls.Importer
		closers   []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Store.Enabled {
		store, err := callstore.Open(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open call store: %w", err)
		}
		importers = append(importers, store)
		closers = append(closers, func() { _ = store.Close() })
		logger.Info("call store opened", logging.String(logging.FieldPath, store.Path()))
	}

	if cfg.MQTT.Enabled {
		client, err := mqttpub.Connect(cfg.MQTT, logger)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		importers = append(importers, mqttpub.NewPublisher(client.Native(), mqttpub.PublisherConfig{
			Topic: cfg.MQTT.Topic,
			QoS:   byte(cfg.MQTT.QoS),
		}))
		closers = append(closers, client.Close)
	}

	if len(importers) == 0 {
		logging.WarnWithContext(logger, "no call sinks enabled", "no_call_sinks",
			logging.String(logging.FieldErrorHint, "enable [store] or [mqtt] in the config"),
			logging.String(logging.FieldImpact, "recordings are detected but not kept anywhere"),
		)
	}
	return calls.NewFanout(importers...), closeAll, nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	results := preflight.RunAll(ctx, cfg)
	for _, result := range preflight.Failed(results) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run `callwatch config validate` for details"),
			logging.String(logging.FieldImpact, "affected watches or sinks may not work"),
		)
	}
	logger.Info("preflight complete",
		logging.Int("checks", len(results)),
		logging.String(logging.FieldEventType, "preflight_complete"),
	)
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, currentLogName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
