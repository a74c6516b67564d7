package daemonrun

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"callwatch/internal/logging"
	"callwatch/internal/testsupport"
)

func TestEnsureCurrentLogPointerReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "callwatch-1.log")
	second := filepath.Join(dir, "callwatch-2.log")
	for _, path := range []string{first, second} {
		if err := os.WriteFile(path, []byte(filepath.Base(path)), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	if err := ensureCurrentLogPointer(dir, first); err != nil {
		t.Fatalf("first pointer: %v", err)
	}
	if err := ensureCurrentLogPointer(dir, second); err != nil {
		t.Fatalf("second pointer: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, currentLogName))
	if err != nil {
		t.Fatalf("read pointer: %v", err)
	}
	if string(content) != "callwatch-2.log" {
		t.Fatalf("pointer resolves to %q", content)
	}
}

func TestEnsureCurrentLogPointerIgnoresEmpty(t *testing.T) {
	if err := ensureCurrentLogPointer("", "x"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), pidFileName)
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid: %v", err)
	}
	if strings.TrimSpace(string(content)) != strconv.Itoa(os.Getpid()) {
		t.Fatalf("unexpected pid file contents %q", content)
	}
}

func TestOpenSinksWithStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	sinks, closeSinks, err := openSinks(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("openSinks: %v", err)
	}
	defer closeSinks()
	if len(sinks) != 1 {
		t.Fatalf("expected store sink, got %d sinks", len(sinks))
	}
	if !testsupport.Exists(cfg.Store.Path) {
		t.Fatalf("expected database at %s", cfg.Store.Path)
	}
}

func TestOpenSinksNoneEnabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutStore())
	logger, logs := testsupport.NewLogCapture()
	sinks, closeSinks, err := openSinks(cfg, logger)
	if err != nil {
		t.Fatalf("openSinks: %v", err)
	}
	defer closeSinks()
	if len(sinks) != 0 {
		t.Fatalf("expected no sinks, got %d", len(sinks))
	}
	if _, ok := logs.Find("no call sinks enabled"); !ok {
		t.Fatal("expected warning about missing sinks")
	}
}
