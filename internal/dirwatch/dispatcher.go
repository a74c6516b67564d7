package dirwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"callwatch/internal/calls"
	"callwatch/internal/config"
	"callwatch/internal/fieldspec"
	"callwatch/internal/logging"
	"callwatch/internal/notifications"
	"callwatch/internal/schedule"
)

// DefaultSettleDelay is how long trunk-recorder and sdrtrunk recordings wait
// for their companion metadata file.
const DefaultSettleDelay = 2 * time.Second

// DispatcherOptions wires the dispatcher's collaborators.
type DispatcherOptions struct {
	Importer    calls.Importer
	Scheduler   schedule.Scheduler
	Notifier    notifications.Service
	Cleanup     *Cleanup
	SettleDelay time.Duration
	Logger      *slog.Logger
}

// Dispatcher routes stabilized recordings to the importer according to the
// recorder flavor of their watch.
type Dispatcher struct {
	importer  calls.Importer
	scheduler schedule.Scheduler
	notifier  notifications.Service
	cleanup   *Cleanup
	settle    time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	pending map[schedule.Task]struct{}
	closed  bool
	running sync.WaitGroup
}

// NewDispatcher builds a dispatcher. Importer is required; every other option
// has a working default.
func NewDispatcher(opts DispatcherOptions) (*Dispatcher, error) {
	if opts.Importer == nil {
		return nil, errors.New("dispatcher requires an importer")
	}
	logger := logging.NewComponentLogger(opts.Logger, "dispatcher")
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.Real{}
	}
	if opts.Notifier == nil {
		opts.Notifier = notifications.NewService(nil)
	}
	if opts.Cleanup == nil {
		opts.Cleanup = NewCleanup(opts.Logger)
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	return &Dispatcher{
		importer:  opts.Importer,
		scheduler: opts.Scheduler,
		notifier:  opts.Notifier,
		cleanup:   opts.Cleanup,
		settle:    opts.SettleDelay,
		logger:    logger,
		pending:   make(map[schedule.Task]struct{}),
	}, nil
}

// recording is everything read from a stabilized audio file.
type recording struct {
	path      string
	audio     []byte
	audioName string
	audioType string
	dateTime  time.Time
	system    int
	talkgroup int
}

// Handle processes one recording found under cfg's directory. Generic
// recordings are imported before Handle returns; trunk-recorder and sdrtrunk
// recordings are imported by a task scheduled after the settle delay.
func (d *Dispatcher) Handle(ctx context.Context, cfg WatchConfig, path string) {
	ctx = logging.WithCorrelationID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, d.logger).With(
		logging.String(logging.FieldWatchDir, cfg.Directory),
		logging.String(logging.FieldSourceType, cfg.Type),
		logging.String(logging.FieldPath, path),
	)

	rec, ok := d.load(logger, cfg, path)
	if !ok {
		return
	}

	switch cfg.Type {
	case calls.SourceTrunkRecorder, calls.SourceSdrtrunk:
		d.afterSettle(func() { d.importWithCompanion(ctx, logger, cfg, rec) })
	default:
		err := d.importer.ImportCall(ctx, calls.Call{
			Audio:      rec.audio,
			AudioName:  rec.audioName,
			AudioType:  rec.audioType,
			DateTime:   rec.dateTime,
			Frequency:  cfg.Frequency,
			System:     rec.system,
			Talkgroup:  rec.talkgroup,
			SourceType: cfg.Type,
			SourcePath: path,
		})
		d.reportImport(ctx, logger, rec, err)
		if d.shouldDelete(cfg, true, err) {
			d.cleanup.Remove(path)
		}
	}
}

func (d *Dispatcher) load(logger *slog.Logger, cfg WatchConfig, path string) (recording, bool) {
	info, err := os.Stat(path)
	if err != nil {
		logging.WarnWithContext(logger, "recording vanished before it could be read", "recording_unreadable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "another process may be moving files out of the watched directory"),
		)
		return recording{}, false
	}
	audio, err := os.ReadFile(path)
	if err != nil {
		logging.WarnWithContext(logger, "unable to read recording", "recording_unreadable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check file permissions in the watched directory"),
		)
		return recording{}, false
	}

	system, sysErr := fieldspec.Resolve(cfg.System, path)
	talkgroup, tgErr := fieldspec.Resolve(cfg.Talkgroup, path)
	if sysErr != nil || tgErr != nil {
		for _, err := range []error{sysErr, tgErr} {
			if errors.Is(err, fieldspec.ErrInvalidPattern) {
				logger.Error("invalid pattern",
					logging.Error(err),
					logging.String(logging.FieldEventType, "invalid_pattern"),
					logging.String(logging.FieldErrorHint, "fix the system or talkgroup expression of this dir_watch entry"),
				)
			}
		}
		logging.WarnWithContext(logger, "unknown system or talkgroup", "field_unresolved",
			logging.String("system_spec", cfg.System.String()),
			logging.String("talkgroup_spec", cfg.Talkgroup.String()),
			logging.Error(errors.Join(sysErr, tgErr)),
			logging.String(logging.FieldErrorHint, "make sure the talkgroup and system patterns capture digits from the file name"),
			logging.String(logging.FieldImpact, "recording ignored"),
		)
		return recording{}, false
	}

	name := filepath.Base(path)
	return recording{
		path:      path,
		audio:     audio,
		audioName: name,
		audioType: DetectMIME(name, audio),
		dateTime:  CreationTime(path, info),
		system:    system,
		talkgroup: talkgroup,
	}, true
}

func (d *Dispatcher) importWithCompanion(ctx context.Context, logger *slog.Logger, cfg WatchConfig, rec recording) {
	ext := cfg.companionExt()
	metaPath := strings.TrimSuffix(rec.path, filepath.Ext(rec.path)) + ext
	logger = logger.With(logging.String("meta_path", metaPath))

	meta, err := readMeta(metaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.WarnWithContext(logger, "file not found", "companion_missing",
				logging.String(logging.FieldErrorHint, "the recorder must write "+ext+" metadata next to the audio file"),
				logging.String(logging.FieldImpact, "recording ignored"),
			)
			d.publish(ctx, logger, notifications.EventCompanionMissing, notifications.Payload{
				"file":      rec.audioName,
				"companion": filepath.Base(metaPath),
			})
		} else {
			logging.WarnWithContext(logger, "error loading file", "companion_invalid",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "metadata must be a JSON object"),
				logging.String(logging.FieldImpact, "recording ignored"),
			)
		}
		if d.shouldDelete(cfg, false, err) {
			d.cleanup.Remove(rec.path)
		}
		return
	}

	if cfg.Type == calls.SourceSdrtrunk {
		err = d.importer.ImportSdrtrunk(ctx, rec.audio, rec.audioName, rec.audioType, rec.system, meta)
	} else {
		err = d.importer.ImportTrunkRecorder(ctx, rec.audio, rec.audioName, rec.audioType, rec.system, meta)
	}
	d.reportImport(ctx, logger, rec, err)

	if d.shouldDelete(cfg, true, err) {
		d.cleanup.Remove(metaPath)
		d.cleanup.Remove(rec.path)
	}
}

// shouldDelete applies the watch's delete policy. In imported mode files are
// kept unless the importer ran and succeeded.
func (d *Dispatcher) shouldDelete(cfg WatchConfig, imported bool, err error) bool {
	if !cfg.DeleteAfter {
		return false
	}
	if cfg.DeleteMode == config.DeleteModeImported {
		return imported && err == nil
	}
	return true
}

func (d *Dispatcher) reportImport(ctx context.Context, logger *slog.Logger, rec recording, err error) {
	if err != nil {
		logger.Error("call import failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "import_failed"),
			logging.String(logging.FieldErrorHint, "check the store and broker settings"),
		)
		d.publish(ctx, logger, notifications.EventImportFailed, notifications.Payload{
			"file":  rec.audioName,
			"error": err,
		})
		return
	}
	logger.Info("call imported",
		logging.Int("system", rec.system),
		logging.Int("talkgroup", rec.talkgroup),
		logging.String("audio_type", rec.audioType),
		logging.String(logging.FieldEventType, "call_imported"),
	)
}

func (d *Dispatcher) publish(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if err := d.notifier.Publish(ctx, event, payload); err != nil {
		logger.Debug("notification failed", logging.Error(err), logging.String("notification", string(event)))
	}
}

// afterSettle schedules fn after the settle delay and tracks the task until it runs.
func (d *Dispatcher) afterSettle(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	var task schedule.Task
	task = d.scheduler.AfterFunc(d.settle, func() {
		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			return
		}
		delete(d.pending, task)
		d.running.Add(1)
		d.mu.Unlock()
		defer d.running.Done()
		fn()
	})
	d.pending[task] = struct{}{}
}

// Pending reports how many deferred imports are waiting for their settle delay.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close cancels deferred imports that have not started and waits for the
// ones already running. Recordings handled after Close are dropped.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	for task := range d.pending {
		task.Stop()
	}
	clear(d.pending)
	d.mu.Unlock()

	d.running.Wait()
}

func readMeta(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if meta == nil {
		return nil, fmt.Errorf("parse %s: not a JSON object", filepath.Base(path))
	}
	return meta, nil
}
