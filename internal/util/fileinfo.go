//go:build linux

package util

import (
	"golang.org/x/sys/unix"
)

// FileInfo identifies one version of a file on disk
type FileInfo struct {
	ModTime int64  // Last modification time, nanoseconds since the epoch
	Size    int64  // File size in bytes
	Inode   uint64 // Changes when an editor replaces the file instead of rewriting it
}

// GetFileInfo stats filepath
func GetFileInfo(filepath string) (*FileInfo, error) {
	var st unix.Stat_t
	if err := unix.Stat(filepath, &st); err != nil {
		return nil, err
	}

	return &FileInfo{
		ModTime: st.Mtim.Nano(),
		Size:    st.Size,
		Inode:   uint64(st.Ino),
	}, nil
}
