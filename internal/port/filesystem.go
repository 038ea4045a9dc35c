package port

import (
	"io"
)

// FileSystem defines the interface for download destination operations
type FileSystem interface {
	// DownloadDir returns the destination directory, creating it if missing
	DownloadDir() string

	// UniquePath returns a path in dir for name that does not exist yet.
	// "a.txt" becomes "a(1).txt", "a(2).txt", ... on collision.
	// The check is not atomic with the later Create.
	UniquePath(dir, name string) string

	// Create creates or truncates the file at path for writing
	Create(path string) (io.WriteCloser, error)

	// OpenForResume opens an existing file for appending and truncates it to
	// offset. Returns domain.ErrFileChanged if the file is shorter than offset.
	OpenForResume(path string, offset int64) (io.WriteCloser, error)
}
