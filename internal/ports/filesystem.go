package ports

import (
	"os"
	"path/filepath"
	"strings"
)

// DirEntry is a single child of a directory. IsDir follows symlinks.
type DirEntry struct {
	Name      string
	IsDir     bool
	IsSymlink bool
}

// FileSystem provides the file system operations used by idapm.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	// Exists reports whether anything, including a dangling symlink, is at path.
	Exists(path string) bool
	IsDir(path string) bool
	MkdirAll(path string, perm os.FileMode) error
	ReadDir(path string) ([]DirEntry, error)
	Glob(pattern string) ([]string, error)
	// RealPath resolves symlinks and returns an absolute path.
	RealPath(path string) (string, error)
	// CreateLink links link to target, using a junction for directories
	// where the platform requires one.
	CreateLink(target, link string) error
	CopyFile(src, dest string) error
	// CopyTree copies a directory recursively. dest must not exist, and a
	// failed copy leaves nothing at dest.
	CopyTree(src, dest string) error
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}
