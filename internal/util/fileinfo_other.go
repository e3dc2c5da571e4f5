//go:build !linux

package util

import (
	"os"
)

// FileInfo identifies one version of a file on disk
type FileInfo struct {
	ModTime int64  // Last modification time, nanoseconds since the epoch
	Size    int64  // File size in bytes
	Inode   uint64 // Always zero on this platform
}

// GetFileInfo stats filepath
func GetFileInfo(filepath string) (*FileInfo, error) {
	stat, err := os.Stat(filepath)
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		ModTime: stat.ModTime().UnixNano(),
		Size:    stat.Size(),
	}, nil
}
