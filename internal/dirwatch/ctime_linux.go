//go:build linux

package dirwatch

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// CreationTime returns the inode change time of path, which is when a
// recorder finished creating the file. It falls back to the modification time.
func CreationTime(path string, info os.FileInfo) time.Time {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err == nil {
		return time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
	}
	if info != nil {
		return info.ModTime()
	}
	return time.Now()
}
