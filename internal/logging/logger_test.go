package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"callwatch/internal/config"
	"callwatch/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	logPath := filepath.Join(t.TempDir(), "logs", "callwatch.log")

	logger, err := logging.NewFromConfig(&cfg, logPath)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("watch started", logging.String(logging.FieldWatchDir, "/srv/audio"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "watch started") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLoggerLiftsComponentAndFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "dirwatch").Info("call imported",
		logging.String(logging.FieldPath, "/srv/audio/123-4567.wav"),
		logging.Int("talkgroup", 4567),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(content)
	header := strings.SplitN(out, "\n", 2)[0]
	if !strings.Contains(header, "INFO [dirwatch] 123-4567.wav – call imported") {
		t.Fatalf("unexpected header %q", header)
	}
	if !strings.Contains(out, "    talkgroup: 4567") {
		t.Fatalf("expected talkgroup field, got %q", out)
	}
	if strings.Contains(header, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", header)
	}
}

func TestJSONLoggerIncludesCorrelationID(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithCorrelationID(context.Background(), "abc-123")
	logging.WithContext(ctx, logger).Warn("companion missing")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry[logging.FieldCorrelationID] != "abc-123" {
		t.Fatalf("expected correlation id, got %v", entry)
	}
	if entry["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "unable to delete", "cleanup_failed",
		logging.String(logging.FieldErrorHint, "check permissions"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry[logging.FieldEventType] != "cleanup_failed" {
		t.Fatalf("expected event type, got %v", entry)
	}
	if entry[logging.FieldErrorHint] != "check permissions" {
		t.Fatalf("expected caller hint to win, got %v", entry[logging.FieldErrorHint])
	}
	if _, ok := entry[logging.FieldImpact]; !ok {
		t.Fatalf("expected default impact, got %v", entry)
	}
}

func TestCleanupOldLogsPrunesExpiredRunLogs(t *testing.T) {
	dir := t.TempDir()
	old := logging.RunLogPath(dir, time.Now().AddDate(0, 0, -10))
	current := logging.RunLogPath(dir, time.Now())
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, current, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, path := range []string{old, current, other} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	logging.CleanupOldLogs(logging.NewNop(), 3, logging.RetentionTarget{
		Dir:     dir,
		Pattern: logging.RunLogPattern,
		Exclude: []string{current},
	})

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be pruned, err=%v", old, err)
	}
	for _, path := range []string{current, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
}
