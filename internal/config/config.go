package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Workflow contains timing knobs for the watch pipeline.
type Workflow struct {
	// SettleDelayMS is the wait between a stabilized audio file and the
	// companion metadata lookup for trunk-recorder and sdrtrunk sources.
	SettleDelayMS int `toml:"settle_delay_ms"`
	// StabilityThresholdMS is how long a new file must stay unchanged before
	// it is reported.
	StabilityThresholdMS int `toml:"stability_threshold_ms"`
	// PollIntervalMS is how often pending files are checked for changes.
	PollIntervalMS int `toml:"poll_interval_ms"`
}

// Store contains configuration for the SQLite call store.
type Store struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// MQTT contains configuration for call announcements over MQTT.
type MQTT struct {
	Enabled  bool   `toml:"enabled"`
	Broker   string `toml:"broker"`
	ClientID string `toml:"client_id"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Topic    string `toml:"topic"`
	QoS      int    `toml:"qos"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic        string `toml:"ntfy_topic"`
	RequestTimeout   int    `toml:"request_timeout"`
	ImportFailures   bool   `toml:"import_failures"`
	CompanionMissing bool   `toml:"companion_missing"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// DirWatch is one [[dir_watch]] entry as written by the operator.
//
// Directory, Extension, System, Talkgroup, and Frequency are decoded into
// untyped values: a directory that is not a non-empty string disables the
// entry, an extension may be a string or an array of strings, and field
// values may be integers or extraction patterns.
type DirWatch struct {
	Directory   any    `toml:"directory"`
	Extension   any    `toml:"extension"`
	Type        string `toml:"type"`
	System      any    `toml:"system"`
	Talkgroup   any    `toml:"talkgroup"`
	Frequency   any    `toml:"frequency"`
	DeleteAfter bool   `toml:"delete_after"`
	DeleteMode  string `toml:"delete_mode"`
}

// Config encapsulates all configuration values for callwatch.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Workflow: settle delay and write-finish detection timing
//   - Store: SQLite call store
//   - MQTT: call announcements
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
//   - DirWatch: watched directories
type Config struct {
	Paths         Paths         `toml:"paths"`
	Workflow      Workflow      `toml:"workflow"`
	Store         Store         `toml:"store"`
	MQTT          MQTT          `toml:"mqtt"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	DirWatch      []DirWatch    `toml:"dir_watch"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/callwatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadEnvFiles(resolvedPath); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return "", false, fmt.Errorf("config file %s not found", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("callwatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Store.Enabled && strings.TrimSpace(c.Store.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.Store.Path), 0o755); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
	}
	return nil
}

// SettleDelay returns the companion metadata settle delay.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Workflow.SettleDelayMS) * time.Millisecond
}

// StabilityThreshold returns how long a file must stay unchanged before it is reported.
func (c *Config) StabilityThreshold() time.Duration {
	return time.Duration(c.Workflow.StabilityThresholdMS) * time.Millisecond
}

// PollInterval returns the pending file poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.PollIntervalMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
