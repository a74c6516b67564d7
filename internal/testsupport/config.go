package testsupport

import (
	"path/filepath"
	"testing"

	"callwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Store.Path = filepath.Join(base, "data", "calls.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDirWatch appends a watch entry. A relative directory is placed under
// the config's temp root.
func WithDirWatch(entry config.DirWatch) ConfigOption {
	return func(b *configBuilder) {
		if dir, ok := entry.Directory.(string); ok && dir != "" && !filepath.IsAbs(dir) {
			entry.Directory = filepath.Join(b.baseDir, dir)
		}
		if entry.DeleteMode == "" {
			entry.DeleteMode = config.DeleteModeAlways
		}
		b.cfg.DirWatch = append(b.cfg.DirWatch, entry)
	}
}

// WithoutStore disables the SQLite store.
func WithoutStore() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
