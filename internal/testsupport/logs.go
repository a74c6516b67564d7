package testsupport

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// LogRecord is one captured log line.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// LogCapture is an slog.Handler that keeps every record in memory.
type LogCapture struct {
	mu      *sync.Mutex
	records *[]LogRecord
	attrs   []slog.Attr
}

// NewLogCapture returns a logger and the capture backing it.
func NewLogCapture() (*slog.Logger, *LogCapture) {
	capture := &LogCapture{mu: &sync.Mutex{}, records: &[]LogRecord{}}
	return slog.New(capture), capture
}

func (c *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

func (c *LogCapture) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]string, record.NumAttrs()+len(c.attrs))
	for _, attr := range c.attrs {
		attrs[attr.Key] = attr.Value.Resolve().String()
	}
	record.Attrs(func(attr slog.Attr) bool {
		attrs[attr.Key] = attr.Value.Resolve().String()
		return true
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.records = append(*c.records, LogRecord{Level: record.Level, Message: record.Message, Attrs: attrs})
	return nil
}

func (c *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogCapture{mu: c.mu, records: c.records, attrs: append(append([]slog.Attr(nil), c.attrs...), attrs...)}
}

func (c *LogCapture) WithGroup(string) slog.Handler { return c }

// Records returns a snapshot of captured records.
func (c *LogCapture) Records() []LogRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LogRecord(nil), (*c.records)...)
}

// Find returns the first record whose message contains substr.
func (c *LogCapture) Find(substr string) (LogRecord, bool) {
	for _, record := range c.Records() {
		if strings.Contains(record.Message, substr) {
			return record, true
		}
	}
	return LogRecord{}, false
}
