package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vertextoedge/request-tui/internal/domain"
	"github.com/vertextoedge/request-tui/internal/port"
)

// Manager handles local download destinations
type Manager struct {
	rootDir string
}

// Ensure Manager implements port.FileSystem
var _ port.FileSystem = (*Manager)(nil)

// NewManager creates a new filesystem manager. An empty rootDir selects
// $HOME/Downloads.
func NewManager(rootDir string) (*Manager, error) {
	if rootDir == "" {
		dir, err := DefaultDownloadDir()
		if err != nil {
			return nil, err
		}
		rootDir = dir
	}

	return &Manager{rootDir: rootDir}, nil
}

// DefaultDownloadDir returns $HOME/Downloads
func DefaultDownloadDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home dir: %w", err)
	}
	return filepath.Join(home, "Downloads"), nil
}

// RootDir returns the download directory without touching the disk
func (m *Manager) RootDir() string {
	return m.rootDir
}

// DownloadDir returns the download directory, creating it if missing.
// Creation errors surface later when the file itself is created.
func (m *Manager) DownloadDir() string {
	_ = os.MkdirAll(m.rootDir, 0755)
	return m.rootDir
}

// UniquePath returns a path in dir for name that does not exist yet
func (m *Manager) UniquePath(dir, name string) string {
	candidate := filepath.Join(dir, name)
	if !m.FileExists(candidate) {
		return candidate
	}

	stem, ext := splitName(name)
	for n := 1; ; n++ {
		candidate = filepath.Join(dir, stem+"("+strconv.Itoa(n)+")"+ext)
		if !m.FileExists(candidate) {
			return candidate
		}
	}
}

// Create creates or truncates the file at path for writing
func (m *Manager) Create(path string) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return f, nil
}

// OpenForResume opens path for appending and truncates it to offset
func (m *Manager) OpenForResume(path string, offset int64) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for resume: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Size() < offset {
		f.Close()
		return nil, domain.ErrFileChanged
	}

	// Drop any tail written after the last recorded progress
	if err := f.Truncate(offset); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to truncate file: %w", err)
	}

	return f, nil
}

// FileExists checks if a file exists
func (m *Manager) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GetFileSize returns the size of a file
func (m *Manager) GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// splitName splits "archive.tar.gz" into "archive.tar" and ".gz".
// Dotfiles such as ".bashrc" have no extension.
func splitName(name string) (string, string) {
	ext := filepath.Ext(name)
	if ext == "" || ext == name || strings.TrimSuffix(name, ext) == "" {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}
