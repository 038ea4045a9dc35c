//go:build windows

package filesystem

import "errors"

// FreeSpace is not implemented on Windows
func (m *Manager) FreeSpace() (uint64, error) {
	return 0, errors.New("free space lookup not supported on windows")
}
