//go:build !windows

package filesystem

import (
	"fmt"
	"syscall"
)

// FreeSpace returns the bytes available to the current user on the
// download directory's filesystem
func (m *Manager) FreeSpace() (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(m.rootDir, &stat); err != nil {
		return 0, fmt.Errorf("failed to get disk stats: %w", err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
