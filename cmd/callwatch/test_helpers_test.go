package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	dataDir    string
	logDir     string
	storePath  string
	watchDir   string
	configPath string
}

func setupCLITestEnv(t *testing.T, extra string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Chdir(base)

	env := &cliTestEnv{
		baseDir:   base,
		dataDir:   filepath.Join(base, "data"),
		logDir:    filepath.Join(base, "logs"),
		storePath: filepath.Join(base, "data", "calls.db"),
		watchDir:  filepath.Join(base, "audio"),
	}
	if err := os.MkdirAll(env.watchDir, 0o755); err != nil {
		t.Fatalf("mkdir watch dir: %v", err)
	}

	env.configPath = filepath.Join(homeDir, ".config", "callwatch", "config.toml")
	if err := os.MkdirAll(filepath.Dir(env.configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[store]
enabled = true
path = %q

[[dir_watch]]
directory = %q
extension = "wav"
type = "trunk-recorder"
system = 100
talkgroup = '/.*-(\d+)\.wav$/'
delete_after = true
%s`, env.dataDir, env.logDir, env.storePath, env.watchDir, extra)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
