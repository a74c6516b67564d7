package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"callwatch/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "callwatch")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Store.Path != filepath.Join(wantData, "calls.db") {
		t.Fatalf("unexpected store path: %q", cfg.Store.Path)
	}
	if cfg.SettleDelay().Milliseconds() != 2000 {
		t.Fatalf("unexpected settle delay: %s", cfg.SettleDelay())
	}
	if cfg.MQTT.Enabled {
		t.Fatal("expected MQTT disabled by default")
	}
	if len(cfg.DirWatch) != 0 {
		t.Fatalf("expected no dir_watch entries, got %d", len(cfg.DirWatch))
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadDecodesDirWatchEntries(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "callwatch.toml")
	content := `
[[dir_watch]]
directory = "` + filepath.ToSlash(tempDir) + `/tr"
extension = "wav"
type = " Trunk-Recorder "
system = 1
talkgroup = '/.*-(\d+)\.wav$/'
delete_after = true

[[dir_watch]]
directory = ""
extension = ["mp3", "wav"]
system = 100
talkgroup = 55
frequency = 453000

[[dir_watch]]
directory = 42
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config %q to be used, got %q (exists=%v)", configPath, resolved, exists)
	}
	if len(cfg.DirWatch) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(cfg.DirWatch))
	}

	first := cfg.DirWatch[0]
	if first.Type != "trunk-recorder" {
		t.Fatalf("expected type to be normalized, got %q", first.Type)
	}
	if dir, _ := first.Directory.(string); dir != filepath.Join(tempDir, "tr") {
		t.Fatalf("unexpected directory %v", first.Directory)
	}
	if _, ok := first.System.(int64); !ok {
		t.Fatalf("expected integer system, got %T", first.System)
	}
	if pattern, _ := first.Talkgroup.(string); !strings.Contains(pattern, `(\d+)`) {
		t.Fatalf("unexpected talkgroup pattern %v", first.Talkgroup)
	}
	if !first.DeleteAfter || first.DeleteMode != config.DeleteModeAlways {
		t.Fatalf("unexpected delete settings: after=%v mode=%q", first.DeleteAfter, first.DeleteMode)
	}

	second := cfg.DirWatch[1]
	exts, ok := second.Extension.([]any)
	if !ok || len(exts) != 2 {
		t.Fatalf("expected extension list, got %#v", second.Extension)
	}
	if dir, _ := second.Directory.(string); dir != "" {
		t.Fatalf("expected empty directory to stay empty, got %q", dir)
	}

	if _, ok := cfg.DirWatch[2].Directory.(int64); !ok {
		t.Fatalf("expected non-string directory to be preserved, got %T", cfg.DirWatch[2].Directory)
	}
}

func TestLoadRejectsUnknownDeleteMode(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "callwatch.toml")
	content := `
[[dir_watch]]
directory = "/srv/audio"
delete_mode = "sometimes"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil || !strings.Contains(err.Error(), "delete_mode") {
		t.Fatalf("expected delete_mode error, got %v", err)
	}
}

func TestValidateMQTTRequiresBroker(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "calls.db")
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "mqtt.broker") {
		t.Fatalf("expected mqtt.broker error, got %v", err)
	}
	cfg.MQTT.Broker = "tcp://localhost:1883"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidatePollIntervalBounds(t *testing.T) {
	cfg := config.Default()
	cfg.Workflow.PollIntervalMS = cfg.Workflow.StabilityThresholdMS + 1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when poll interval exceeds stability threshold")
	}
}

func TestLoadUsesEnvFallbacks(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("CALLWATCH_NTFY_TOPIC", " https://ntfy.example/topic ")
	t.Setenv("CALLWATCH_MQTT_PASSWORD", "secret")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/topic" {
		t.Fatalf("unexpected ntfy topic %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.MQTT.Password != "secret" {
		t.Fatalf("unexpected mqtt password %q", cfg.MQTT.Password)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if len(cfg.DirWatch) != 2 {
		t.Fatalf("expected sample to define 2 watches, got %d", len(cfg.DirWatch))
	}
}

func TestLoadReadsDotEnvNextToConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("CALLWATCH_MQTT_PASSWORD", "")
	if err := os.Unsetenv("CALLWATCH_MQTT_PASSWORD"); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[mqtt]\nenabled = false\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CALLWATCH_MQTT_PASSWORD=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.MQTT.Password != "from-dotenv" {
		t.Fatalf("expected password from .env, got %q", cfg.MQTT.Password)
	}
}

func TestLoadKeepsExistingEnvOverDotEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CALLWATCH_NTFY_TOPIC", "https://ntfy.example/env")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CALLWATCH_NTFY_TOPIC=https://ntfy.example/file\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/env" {
		t.Fatalf("expected environment to win, got %q", cfg.Notifications.NtfyTopic)
	}
}
