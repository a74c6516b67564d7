package dirwatch

import (
	"context"
	"log/slog"
	"sync"

	"callwatch/internal/config"
	"callwatch/internal/logging"
	"callwatch/internal/watch"
)

// Handler processes one matched recording.
type Handler interface {
	Handle(ctx context.Context, cfg WatchConfig, path string)
}

// Entry is one configured watch with the outcome of validating it.
type Entry struct {
	Index  int
	Config WatchConfig
	Err    error
	Active bool
}

// Plan validates configured entries without touching the filesystem beyond
// resolving relative directories.
func Plan(entries []config.DirWatch) []Entry {
	out := make([]Entry, 0, len(entries))
	for i, raw := range entries {
		cfg, err := NewWatchConfig(raw)
		out = append(out, Entry{Index: i, Config: cfg, Err: err})
	}
	return out
}

// Manager owns one subscription per valid watch entry.
type Manager struct {
	backend watch.Backend
	handler Handler
	logger  *slog.Logger

	mu       sync.Mutex
	entries  []Entry
	subs     []watch.Subscription
	inflight sync.WaitGroup
}

// NewManager returns a manager that reports matched files to handler.
func NewManager(backend watch.Backend, handler Handler, logger *slog.Logger) *Manager {
	return &Manager{
		backend: backend,
		handler: handler,
		logger:  logging.NewComponentLogger(logger, "dirwatch"),
	}
}

// Start subscribes to every valid entry and returns how many watches are
// active. Entries with an unusable directory are skipped with a warning.
func (m *Manager) Start(ctx context.Context, entries []config.DirWatch) int {
	planned := Plan(entries)

	m.mu.Lock()
	defer m.mu.Unlock()

	active := 0
	for i := range planned {
		entry := &planned[i]
		if entry.Err != nil {
			logging.WarnWithContext(m.logger, "dir_watch entry skipped", "watch_invalid",
				logging.Int("index", entry.Index),
				logging.Error(entry.Err),
				logging.String(logging.FieldErrorHint, "set directory to the recorder's output folder"),
				logging.String(logging.FieldImpact, "no recordings are picked up for this entry"),
			)
			continue
		}
		cfg := entry.Config
		if cfg.Extensions.Empty() {
			logging.WarnWithContext(m.logger, "dir_watch entry has no extension; nothing will match", "watch_no_extension",
				logging.String(logging.FieldWatchDir, cfg.Directory),
				logging.String(logging.FieldErrorHint, `set extension, for example "wav" or ["mp3", "wav"]`),
			)
		}
		sub, err := m.backend.Subscribe(ctx, cfg.Directory, func(evt watch.Event) {
			m.dispatch(ctx, cfg, evt.Path)
		})
		if err != nil {
			entry.Err = err
			logging.WarnWithContext(m.logger, "unable to watch directory", "watch_subscribe_failed",
				logging.String(logging.FieldWatchDir, cfg.Directory),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "create the directory or fix its permissions, then restart"),
				logging.String(logging.FieldImpact, "no recordings are picked up for this entry"),
			)
			continue
		}
		entry.Active = true
		m.subs = append(m.subs, sub)
		active++
		m.logger.Info("watching directory",
			logging.String(logging.FieldWatchDir, cfg.Directory),
			logging.String(logging.FieldSourceType, cfg.Type),
			logging.String("extensions", cfg.Extensions.String()),
			logging.Bool("delete_after", cfg.DeleteAfter),
			logging.String(logging.FieldEventType, "watch_started"),
		)
	}
	m.entries = append(m.entries, planned...)
	return active
}

func (m *Manager) dispatch(ctx context.Context, cfg WatchConfig, path string) {
	if !cfg.Extensions.Match(path) {
		return
	}
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		m.handler.Handle(ctx, cfg, path)
	}()
}

// Entries returns the configured watches and whether each one is active.
func (m *Manager) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Stop closes every subscription and waits for handlers already running.
func (m *Manager) Stop() {
	m.mu.Lock()
	subs := m.subs
	m.subs = nil
	for i := range m.entries {
		m.entries[i].Active = false
	}
	m.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			m.logger.Warn("closing watch failed",
				logging.String(logging.FieldWatchDir, sub.Dir()),
				logging.Error(err),
				logging.String(logging.FieldEventType, "watch_close_failed"),
			)
		}
	}
	m.inflight.Wait()
}
