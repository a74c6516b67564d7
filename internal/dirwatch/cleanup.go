package dirwatch

import (
	"log/slog"
	"os"

	"callwatch/internal/logging"
)

// Cleanup removes handled files. Each removal is a single attempt; failures
// are logged and otherwise ignored.
type Cleanup struct {
	logger *slog.Logger
}

// NewCleanup returns a Cleanup that reports failures to logger.
func NewCleanup(logger *slog.Logger) *Cleanup {
	return &Cleanup{logger: logging.NewComponentLogger(logger, "cleanup")}
}

// Remove deletes path. Directories are never removed recursively.
func (c *Cleanup) Remove(path string) bool {
	if err := os.Remove(path); err != nil {
		logging.WarnWithContext(c.logger, "unable to delete file", "cleanup_failed",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that callwatch can write to the watched directory"),
			logging.String(logging.FieldImpact, "file stays on disk"),
		)
		return false
	}
	c.logger.Debug("file deleted",
		logging.String(logging.FieldPath, path),
		logging.String(logging.FieldEventType, "file_deleted"),
	)
	return true
}
