// Package filesystem provides file system adapters.
package filesystem

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/billow-vn/idapm/internal/ports"
)

// RealFileSystem implements ports.FileSystem using the operating system.
type RealFileSystem struct{}

// NewRealFileSystem creates a new RealFileSystem.
func NewRealFileSystem() *RealFileSystem {
	return &RealFileSystem{}
}

// ReadFile reads a file and returns its contents.
func (r *RealFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Exists checks if anything is present at path. Dangling symlinks count.
func (r *RealFileSystem) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsDir checks if a path is a directory, following symlinks.
func (r *RealFileSystem) IsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// MkdirAll creates a directory and all necessary parents.
func (r *RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// ReadDir lists the children of a directory in name order.
func (r *RealFileSystem) ReadDir(path string) ([]ports.DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	out := make([]ports.DirEntry, 0, len(entries))
	for _, e := range entries {
		entry := ports.DirEntry{
			Name:      e.Name(),
			IsDir:     e.IsDir(),
			IsSymlink: e.Type()&fs.ModeSymlink != 0,
		}
		if entry.IsSymlink {
			entry.IsDir = r.IsDir(filepath.Join(path, e.Name()))
		}
		out = append(out, entry)
	}
	return out, nil
}

// Glob returns the paths matching pattern in lexical order.
func (r *RealFileSystem) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// RealPath resolves symlinks and returns an absolute path.
func (r *RealFileSystem) RealPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// CopyFile copies a file from src to dest, keeping the source permissions.
// It refuses to overwrite an existing dest.
func (r *RealFileSystem) CopyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

// CopyTree copies the directory src to dest, which must not exist.
// Symlinks inside src are recreated as symlinks. If the copy fails, dest
// is removed so that no partial tree is left behind.
func (r *RealFileSystem) CopyTree(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}
	if err := os.Mkdir(dest, info.Mode().Perm()); err != nil {
		return err
	}

	if err := r.copyTree(src, dest); err != nil {
		if rmErr := os.RemoveAll(dest); rmErr != nil {
			return fmt.Errorf("%w (cleanup of %s failed: %v)", err, dest, rmErr)
		}
		return err
	}
	return nil
}

func (r *RealFileSystem) copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dest, rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.IsDir():
			di, err := d.Info()
			if err != nil {
				return err
			}
			return os.Mkdir(target, di.Mode().Perm())
		default:
			return r.CopyFile(path, target)
		}
	})
}

// Ensure RealFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*RealFileSystem)(nil)

// CreateLink is implemented in real_unix.go and real_windows.go.
