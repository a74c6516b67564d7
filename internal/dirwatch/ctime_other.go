//go:build !linux

package dirwatch

import (
	"os"
	"time"
)

// CreationTime returns the modification time of path.
func CreationTime(_ string, info os.FileInfo) time.Time {
	if info != nil {
		return info.ModTime()
	}
	return time.Now()
}
