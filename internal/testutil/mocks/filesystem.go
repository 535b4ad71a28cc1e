package mocks

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/billow-vn/idapm/internal/ports"
)

// FileSystem is a thread-safe in-memory ports.FileSystem. Parent
// directories of added files are created implicitly.
type FileSystem struct {
	mu       sync.RWMutex
	files    map[string][]byte
	symlinks map[string]string
	dirs     map[string]bool
	failures map[string]error
}

// NewFileSystem creates a new FileSystem mock.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files:    make(map[string][]byte),
		symlinks: make(map[string]string),
		dirs:     make(map[string]bool),
		failures: make(map[string]error),
	}
}

// AddFile adds a file and its parent directories.
func (m *FileSystem) AddFile(path string, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.files[path] = []byte(content)
	m.addParents(path)
}

// AddDir adds a directory and its parents.
func (m *FileSystem) AddDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.dirs[path] = true
	m.addParents(path)
}

// AddSymlink adds a symlink at link pointing to target.
func (m *FileSystem) AddSymlink(link, target string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link = filepath.Clean(link)
	m.symlinks[link] = target
	m.addParents(link)
}

// FailOn makes every mutating operation whose destination is path return err.
func (m *FileSystem) FailOn(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[filepath.Clean(path)] = err
}

func (m *FileSystem) addParents(path string) {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		m.dirs[dir] = true
		if dir == filepath.Dir(dir) {
			return
		}
	}
}

func (m *FileSystem) existsLocked(path string) bool {
	_, f := m.files[path]
	_, l := m.symlinks[path]
	return f || l || m.dirs[path]
}

// resolveLocked follows symlinks until a non-link path is reached.
func (m *FileSystem) resolveLocked(path string) string {
	for i := 0; i < 16; i++ {
		target, ok := m.symlinks[path]
		if !ok {
			return path
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		path = filepath.Clean(target)
	}
	return path
}

// ReadFile reads a file.
func (m *FileSystem) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if content, ok := m.files[m.resolveLocked(filepath.Clean(path))]; ok {
		return content, nil
	}
	return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
}

// Exists reports whether anything is at path.
func (m *FileSystem) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.existsLocked(filepath.Clean(path))
}

// IsDir reports whether path is, or links to, a directory.
func (m *FileSystem) IsDir(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirs[m.resolveLocked(filepath.Clean(path))]
}

// IsSymlink reports whether path is a symlink and returns its target.
func (m *FileSystem) IsSymlink(path string) (bool, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if target, ok := m.symlinks[filepath.Clean(path)]; ok {
		return true, target
	}
	return false, ""
}

// MkdirAll creates a directory.
func (m *FileSystem) MkdirAll(path string, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if err := m.failures[path]; err != nil {
		return err
	}
	m.dirs[path] = true
	m.addParents(path)
	return nil
}

// ReadDir lists the direct children of a directory in name order.
func (m *FileSystem) ReadDir(path string) ([]ports.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dir := m.resolveLocked(filepath.Clean(path))
	if !m.dirs[dir] {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: fs.ErrNotExist}
	}

	seen := make(map[string]ports.DirEntry)
	collect := func(p string) {
		if p == dir || filepath.Dir(p) != dir {
			return
		}
		_, isLink := m.symlinks[p]
		seen[p] = ports.DirEntry{
			Name:      filepath.Base(p),
			IsDir:     m.dirs[m.resolveLocked(p)],
			IsSymlink: isLink,
		}
	}
	for p := range m.files {
		collect(p)
	}
	for p := range m.dirs {
		collect(p)
	}
	for p := range m.symlinks {
		collect(p)
	}

	out := make([]ports.DirEntry, 0, len(seen))
	for _, e := range seen {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Glob matches pattern against every known path, in lexical order.
func (m *FileSystem) Glob(pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []string
	add := func(p string) {
		if ok, _ := filepath.Match(pattern, p); ok {
			matches = append(matches, p)
		}
	}
	for p := range m.files {
		add(p)
	}
	for p := range m.dirs {
		add(p)
	}
	for p := range m.symlinks {
		add(p)
	}
	sort.Strings(matches)
	return matches, nil
}

// RealPath resolves symlinks.
func (m *FileSystem) RealPath(path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resolved := m.resolveLocked(filepath.Clean(path))
	if !m.existsLocked(resolved) {
		return "", &fs.PathError{Op: "lstat", Path: path, Err: fs.ErrNotExist}
	}
	return resolved, nil
}

// CreateLink creates a symlink. It fails with fs.ErrExist like os.Symlink.
func (m *FileSystem) CreateLink(target, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	link = filepath.Clean(link)
	if err := m.failures[link]; err != nil {
		return err
	}
	if m.existsLocked(link) {
		return &os.LinkError{Op: "symlink", Old: target, New: link, Err: fs.ErrExist}
	}
	m.symlinks[link] = target
	return nil
}

// CopyFile copies a file, refusing to overwrite.
func (m *FileSystem) CopyFile(src, dest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dest = filepath.Clean(dest)
	if err := m.failures[dest]; err != nil {
		return err
	}
	content, ok := m.files[m.resolveLocked(filepath.Clean(src))]
	if !ok {
		return &fs.PathError{Op: "open", Path: src, Err: fs.ErrNotExist}
	}
	if m.existsLocked(dest) {
		return &fs.PathError{Op: "open", Path: dest, Err: fs.ErrExist}
	}
	m.files[dest] = append([]byte(nil), content...)
	return nil
}

// CopyTree copies every path under src to dest.
func (m *FileSystem) CopyTree(src, dest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src = m.resolveLocked(filepath.Clean(src))
	dest = filepath.Clean(dest)
	if err := m.failures[dest]; err != nil {
		return err
	}
	if !m.dirs[src] {
		return fmt.Errorf("%s is not a directory", src)
	}
	if m.existsLocked(dest) {
		return &fs.PathError{Op: "mkdir", Path: dest, Err: fs.ErrExist}
	}

	rebase := func(p string) (string, bool) {
		if p != src && !strings.HasPrefix(p, src+string(filepath.Separator)) {
			return "", false
		}
		return filepath.Join(dest, strings.TrimPrefix(p, src)), true
	}

	m.dirs[dest] = true
	for p := range m.dirs {
		if d, ok := rebase(p); ok {
			m.dirs[d] = true
		}
	}
	for p, c := range m.files {
		if d, ok := rebase(p); ok {
			m.files[d] = append([]byte(nil), c...)
		}
	}
	for p, t := range m.symlinks {
		if d, ok := rebase(p); ok {
			m.symlinks[d] = t
		}
	}
	return nil
}

// Ensure FileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*FileSystem)(nil)
