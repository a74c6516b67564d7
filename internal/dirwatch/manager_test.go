package dirwatch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"callwatch/internal/config"
	"callwatch/internal/dirwatch"
	"callwatch/internal/logging"
	"callwatch/internal/schedule"
	"callwatch/internal/testsupport"
	"callwatch/internal/watch"
)

type fakeSubscription struct {
	dir    string
	closed bool
}

func (s *fakeSubscription) Dir() string { return s.dir }

func (s *fakeSubscription) Close() error {
	s.closed = true
	return nil
}

type fakeBackend struct {
	mu       sync.Mutex
	handlers map[string]watch.Handler
	subs     []*fakeSubscription
	fail     map[string]error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{handlers: map[string]watch.Handler{}, fail: map[string]error{}}
}

func (b *fakeBackend) Subscribe(_ context.Context, dir string, fn watch.Handler) (watch.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fail[dir]; err != nil {
		return nil, err
	}
	b.handlers[dir] = fn
	sub := &fakeSubscription{dir: dir}
	b.subs = append(b.subs, sub)
	return sub, nil
}

func (b *fakeBackend) emit(dir, path string) {
	b.mu.Lock()
	fn := b.handlers[dir]
	b.mu.Unlock()
	fn(watch.Event{Path: path})
}

type handled struct {
	cfg  dirwatch.WatchConfig
	path string
}

type recordingHandler struct {
	mu    sync.Mutex
	calls []handled
}

func (h *recordingHandler) Handle(_ context.Context, cfg dirwatch.WatchConfig, path string) {
	h.mu.Lock()
	h.calls = append(h.calls, handled{cfg: cfg, path: path})
	h.mu.Unlock()
}

func (h *recordingHandler) snapshot() []handled {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]handled(nil), h.calls...)
}

func TestManagerSkipsInvalidDirectories(t *testing.T) {
	backend := newFakeBackend()
	logger, logs := testsupport.NewLogCapture()
	manager := dirwatch.NewManager(backend, &recordingHandler{}, logger)

	dir := t.TempDir()
	active := manager.Start(context.Background(), []config.DirWatch{
		{Directory: int64(42), Extension: "wav"},
		{Directory: "", Extension: "wav"},
		{Directory: nil, Extension: "wav"},
		{Directory: dir, Extension: "wav"},
	})
	defer manager.Stop()

	if active != 1 {
		t.Fatalf("expected 1 active watch, got %d", active)
	}
	if len(backend.subs) != 1 || backend.subs[0].dir != dir {
		t.Fatalf("expected a single subscription for %s, got %+v", dir, backend.subs)
	}
	entries := manager.Entries()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	for _, entry := range entries[:3] {
		if !errors.Is(entry.Err, dirwatch.ErrNoDirectory) || entry.Active {
			t.Fatalf("expected entry %d to be invalid, got %+v", entry.Index, entry)
		}
	}
	if !entries[3].Active {
		t.Fatal("expected last entry to be active")
	}
	if _, ok := logs.Find("dir_watch entry skipped"); !ok {
		t.Fatal("expected skip diagnostic")
	}
}

func TestManagerResolvesRelativeDirectories(t *testing.T) {
	base := t.TempDir()
	t.Chdir(base)
	backend := newFakeBackend()
	manager := dirwatch.NewManager(backend, &recordingHandler{}, logging.NewNop())

	manager.Start(context.Background(), []config.DirWatch{{Directory: "audio", Extension: "wav"}})
	defer manager.Stop()

	want, err := filepath.Abs("audio")
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	if len(backend.subs) != 1 || backend.subs[0].dir != want {
		t.Fatalf("expected subscription for %s, got %+v", want, backend.subs)
	}
}

func TestManagerFiltersByExtension(t *testing.T) {
	backend := newFakeBackend()
	handler := &recordingHandler{}
	manager := dirwatch.NewManager(backend, handler, logging.NewNop())

	dir := t.TempDir()
	manager.Start(context.Background(), []config.DirWatch{
		{Directory: dir, Extension: []any{"mp3", "wav"}, System: int64(1), Talkgroup: int64(2)},
	})

	for _, name := range []string{"a.wav", "b.json", "c.mp3", "d.WAV", "e"} {
		backend.emit(dir, filepath.Join(dir, name))
	}
	manager.Stop()

	calls := handler.snapshot()
	if len(calls) != 2 {
		t.Fatalf("expected 2 handled files, got %+v", calls)
	}
	got := map[string]bool{}
	for _, call := range calls {
		got[filepath.Base(call.path)] = true
		if call.cfg.Directory != dir {
			t.Fatalf("unexpected config directory %q", call.cfg.Directory)
		}
	}
	if !got["a.wav"] || !got["c.mp3"] {
		t.Fatalf("unexpected handled files %v", got)
	}
}

func TestManagerKeepsWatchingWhenOneDirectoryFails(t *testing.T) {
	backend := newFakeBackend()
	good := t.TempDir()
	bad := filepath.Join(t.TempDir(), "missing")
	backend.fail[bad] = os.ErrNotExist
	manager := dirwatch.NewManager(backend, &recordingHandler{}, logging.NewNop())

	active := manager.Start(context.Background(), []config.DirWatch{
		{Directory: bad, Extension: "wav"},
		{Directory: good, Extension: "wav"},
	})
	if active != 1 {
		t.Fatalf("expected 1 active watch, got %d", active)
	}
	entries := manager.Entries()
	if entries[0].Active || !errors.Is(entries[0].Err, os.ErrNotExist) {
		t.Fatalf("expected failed entry, got %+v", entries[0])
	}

	manager.Stop()
	for _, sub := range backend.subs {
		if !sub.closed {
			t.Fatalf("expected subscription %s to be closed", sub.dir)
		}
	}
	for _, entry := range manager.Entries() {
		if entry.Active {
			t.Fatalf("expected entry %d inactive after Stop", entry.Index)
		}
	}
}

func TestManagerEndToEndGenericImport(t *testing.T) {
	dir := t.TempDir()
	importer := testsupport.NewRecordingImporter()
	dispatcher, err := dirwatch.NewDispatcher(dirwatch.DispatcherOptions{
		Importer:  importer,
		Scheduler: schedule.Real{},
	})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	backend := watch.NewFSNotify(watch.Options{
		StabilityThreshold: 50 * time.Millisecond,
		PollInterval:       10 * time.Millisecond,
	}, logging.NewNop())
	manager := dirwatch.NewManager(backend, dispatcher, logging.NewNop())

	manager.Start(context.Background(), []config.DirWatch{{
		Directory:   dir,
		Extension:   "wav",
		System:      int64(100),
		Talkgroup:   `/.*-(\d+)\.wav$/`,
		DeleteAfter: true,
		DeleteMode:  config.DeleteModeAlways,
	}})
	defer manager.Stop()

	audio := filepath.Join(dir, "123-4567.wav")
	if err := os.WriteFile(audio, testsupport.WAVHeader(32), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	select {
	case <-importer.Signal():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for import")
	}
	imports := importer.Imports()
	if len(imports) != 1 || imports[0].Call.Talkgroup != 4567 || imports[0].Call.System != 100 {
		t.Fatalf("unexpected imports %+v", imports)
	}

	deadline := time.Now().Add(2 * time.Second)
	for testsupport.Exists(audio) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if testsupport.Exists(audio) {
		t.Fatal("expected audio to be deleted after import")
	}
}
