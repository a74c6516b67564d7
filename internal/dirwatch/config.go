package dirwatch

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"callwatch/internal/calls"
	"callwatch/internal/config"
	"callwatch/internal/fieldspec"
)

// ErrNoDirectory reports a watch entry whose directory is not a non-empty string.
var ErrNoDirectory = errors.New("directory must be a non-empty string")

// ExtensionFilter matches file extensions against one or more configured values.
// Values are compared without the leading dot and are case sensitive.
type ExtensionFilter struct {
	exts []string
}

// NewExtensionFilter accepts a string or a list of strings. Any other value
// yields a filter that matches nothing.
func NewExtensionFilter(raw any) ExtensionFilter {
	var exts []string
	add := func(value string) {
		value = strings.TrimPrefix(strings.TrimSpace(value), ".")
		if value != "" {
			exts = append(exts, value)
		}
	}
	switch v := raw.(type) {
	case string:
		add(v)
	case []string:
		for _, item := range v {
			add(item)
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	return ExtensionFilter{exts: exts}
}

// Match reports whether path carries one of the configured extensions.
func (f ExtensionFilter) Match(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}
	for _, candidate := range f.exts {
		if candidate == ext {
			return true
		}
	}
	return false
}

// Empty reports whether the filter can never match.
func (f ExtensionFilter) Empty() bool { return len(f.exts) == 0 }

func (f ExtensionFilter) String() string { return strings.Join(f.exts, ",") }

// WatchConfig is the validated, immutable form of one [[dir_watch]] entry.
type WatchConfig struct {
	Directory   string
	Extensions  ExtensionFilter
	Type        string
	System      fieldspec.Spec
	Talkgroup   fieldspec.Spec
	Frequency   *int
	DeleteAfter bool
	DeleteMode  string
}

// NewWatchConfig builds a WatchConfig from a decoded entry. The directory is
// made absolute against the working directory. Unknown recorder types fall
// back to generic handling.
func NewWatchConfig(entry config.DirWatch) (WatchConfig, error) {
	dir, ok := entry.Directory.(string)
	if !ok || strings.TrimSpace(dir) == "" {
		return WatchConfig{}, ErrNoDirectory
	}
	abs, err := filepath.Abs(strings.TrimSpace(dir))
	if err != nil {
		return WatchConfig{}, fmt.Errorf("resolve directory %q: %w", dir, err)
	}

	mode := entry.DeleteMode
	if mode == "" {
		mode = config.DeleteModeAlways
	}

	return WatchConfig{
		Directory:   abs,
		Extensions:  NewExtensionFilter(entry.Extension),
		Type:        normalizeType(entry.Type),
		System:      fieldspec.Parse(entry.System),
		Talkgroup:   fieldspec.Parse(entry.Talkgroup),
		Frequency:   fieldspec.ParseFrequency(entry.Frequency),
		DeleteAfter: entry.DeleteAfter,
		DeleteMode:  mode,
	}, nil
}

func normalizeType(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case calls.SourceTrunkRecorder:
		return calls.SourceTrunkRecorder
	case calls.SourceSdrtrunk:
		return calls.SourceSdrtrunk
	default:
		return calls.SourceGeneric
	}
}

// companionExt returns the metadata file extension expected next to a
// recording, or "" for generic sources.
func (c WatchConfig) companionExt() string {
	switch c.Type {
	case calls.SourceTrunkRecorder:
		return ".json"
	case calls.SourceSdrtrunk:
		return ".mbe"
	default:
		return ""
	}
}
