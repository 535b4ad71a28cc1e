// Package configfile persists the plugin record in ~/idapm.json.
package configfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/billow-vn/idapm/internal/ports"
)

// FileName is the config file created in the home directory.
const FileName = "idapm.json"

var (
	// ErrNotInitialized indicates the config file does not exist yet.
	ErrNotInitialized = errors.New("config not initialized: run `idapm init` first")
	// ErrCorrupt indicates the config file is not valid JSON.
	ErrCorrupt = errors.New("config file is corrupt")
)

type document struct {
	Plugins []string `json:"plugins"`
	Version int      `json:"version"`
}

// Store is a JSON ports.ConfigStore. Every mutation runs under an exclusive
// file lock and replaces the file atomically.
type Store struct {
	path string
}

// New creates a Store backed by path.
func New(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns ~/idapm.json for the given environment.
func DefaultPath(env ports.Environment) (string, error) {
	home, err := env.HomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, FileName), nil
}

// Path returns the config file path.
func (s *Store) Path() string {
	return s.path
}

// LockFile returns the path of the lock guarding the config file.
func (s *Store) LockFile() string {
	return s.path + ".lock"
}

// Exists reports whether the config file exists, following symlinks.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Initialize writes a fresh config with no plugins. The version is clamped
// to at least ports.DefaultVersion.
func (s *Store) Initialize(version int) error {
	return s.withLock(func() error {
		return s.write(document{Plugins: []string{}, Version: clamp(version)})
	})
}

// Version returns the stored version, or ports.DefaultVersion when it is
// missing or not positive.
func (s *Store) Version() (int, error) {
	doc, err := s.read()
	if err != nil {
		return 0, err
	}
	if doc.Version <= 0 {
		return ports.DefaultVersion, nil
	}
	return doc.Version, nil
}

// SetVersion stores version if it is higher than the current one.
func (s *Store) SetVersion(version int) error {
	return s.withLock(func() error {
		doc, err := s.read()
		if err != nil {
			return err
		}
		next := clamp(version)
		if next <= doc.Version {
			return nil
		}
		doc.Version = next
		return s.write(doc)
	})
}

// ListPlugins returns the configured plugins without duplicates, in first
// occurrence order, and writes the deduplicated list back when needed.
func (s *Store) ListPlugins() ([]string, error) {
	var plugins []string
	err := s.withLock(func() error {
		doc, err := s.read()
		if err != nil {
			return err
		}
		plugins = dedup(doc.Plugins)
		if len(plugins) == len(doc.Plugins) {
			return nil
		}
		doc.Plugins = plugins
		return s.write(doc)
	})
	if err != nil {
		return nil, err
	}
	return plugins, nil
}

// AddPlugin appends id and reports false if it was already present.
func (s *Store) AddPlugin(id string) (bool, error) {
	added := false
	err := s.withLock(func() error {
		doc, err := s.read()
		if err != nil {
			return err
		}
		for _, p := range doc.Plugins {
			if p == id {
				return nil
			}
		}
		doc.Plugins = append(dedup(doc.Plugins), id)
		added = true
		return s.write(doc)
	})
	return added, err
}

// ContainsPlugin reports whether id is configured.
func (s *Store) ContainsPlugin(id string) (bool, error) {
	doc, err := s.read()
	if err != nil {
		return false, err
	}
	for _, p := range doc.Plugins {
		if p == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) withLock(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("config dir: %w", err)
	}

	fileLock := flock.New(s.LockFile())
	if err := fileLock.Lock(); err != nil {
		return fmt.Errorf("acquire config lock: %w", err)
	}
	defer func() { _ = fileLock.Unlock() }()

	return fn()
}

func (s *Store) read() (document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return document{}, ErrNotInitialized
		}
		return document{}, fmt.Errorf("reading config: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	if doc.Plugins == nil {
		doc.Plugins = []string{}
	}
	return doc, nil
}

// write replaces the config file through a temp file in the same directory.
func (s *Store) write(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

func clamp(version int) int {
	if version < ports.DefaultVersion {
		return ports.DefaultVersion
	}
	return version
}

func dedup(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Ensure Store implements ports.ConfigStore.
var _ ports.ConfigStore = (*Store)(nil)
