// Package projector exposes the scripts of a source tree in IDA's plugin
// directory by copying or linking them.
package projector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/billow-vn/idapm/internal/ports"
)

// DefaultExtensions are the script extensions IDA loads as plugins.
var DefaultExtensions = []string{".py"}

// Projector selects plugin entries from a source tree and writes them to a
// plugin directory.
type Projector struct {
	fs         ports.FileSystem
	logger     ports.Logger
	extensions []string
}

// Option configures a Projector.
type Option func(*Projector)

// WithExtensions sets the script extensions. An empty list keeps the default.
func WithExtensions(exts []string) Option {
	return func(p *Projector) {
		if len(exts) > 0 {
			p.extensions = append([]string(nil), exts...)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger ports.Logger) Option {
	return func(p *Projector) {
		p.logger = ports.LoggerOrDiscard(logger)
	}
}

// New creates a Projector.
func New(fsys ports.FileSystem, opts ...Option) *Projector {
	p := &Projector{
		fs:         fsys,
		logger:     ports.LoggerOrDiscard(nil),
		extensions: DefaultExtensions,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extensions returns the script extensions in use.
func (p *Projector) Extensions() []string {
	return append([]string(nil), p.extensions...)
}

// Select returns the entries Project would write for src, in name order.
// Root-level scripts are entries of their own. A top-level directory is one
// entry when any script sits anywhere beneath it.
func (p *Projector) Select(src, pluginDir string) ([]Entry, error) {
	root, err := p.fs.RealPath(src)
	if err != nil {
		return nil, fmt.Errorf("resolving source %s: %w", src, err)
	}
	if !p.fs.IsDir(root) {
		return nil, fmt.Errorf("source %s is not a directory", src)
	}

	children, err := p.fs.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", src, err)
	}

	visited := map[string]bool{root: true}
	var entries []Entry
	for _, child := range children {
		path := filepath.Join(root, child.Name)
		if child.IsDir {
			if child.Name == ".git" || !p.containsScript(path, visited) {
				continue
			}
		} else if !p.isScript(child.Name) {
			continue
		}
		entries = append(entries, Entry{
			Name:   child.Name,
			Source: path,
			Dest:   filepath.Join(pluginDir, child.Name),
			Dir:    child.IsDir,
		})
	}
	return entries, nil
}

// containsScript walks dir looking for a script. Each real directory is
// entered at most once, so symlink cycles terminate.
func (p *Projector) containsScript(dir string, visited map[string]bool) bool {
	resolved, err := p.fs.RealPath(dir)
	if err != nil || visited[resolved] {
		return false
	}
	visited[resolved] = true

	children, err := p.fs.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, child := range children {
		if !child.IsDir && p.isScript(child.Name) {
			return true
		}
	}
	for _, child := range children {
		if child.IsDir && child.Name != ".git" && p.containsScript(filepath.Join(dir, child.Name), visited) {
			return true
		}
	}
	return false
}

func (p *Projector) isScript(name string) bool {
	ext := filepath.Ext(name)
	for _, want := range p.extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// Project writes every selected entry of src into pluginDir. Existing
// destinations are skipped and per-entry failures are recorded in the
// report; the error is reserved for an unreadable source or plugin
// directory.
func (p *Projector) Project(ctx context.Context, src, pluginDir string, mode Mode) (*Report, error) {
	entries, err := p.Select(src, pluginDir)
	if err != nil {
		return nil, err
	}

	if err := p.fs.MkdirAll(pluginDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating plugin directory: %w", err)
	}

	report := &Report{Source: src, PluginDir: pluginDir, Mode: mode}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Entries = append(report.Entries, p.write(ctx, entry, mode))
	}
	return report, nil
}

func (p *Projector) write(ctx context.Context, entry Entry, mode Mode) EntryResult {
	log := p.logger.With(ports.F("source", entry.Source), ports.F("dest", entry.Dest))

	if p.fs.Exists(entry.Dest) {
		log.Info(ctx, "destination exists, skipping")
		return EntryResult{Entry: entry, Status: Skipped}
	}

	var err error
	switch {
	case mode == Symlink:
		err = p.fs.CreateLink(entry.Source, entry.Dest)
	case entry.Dir:
		err = p.fs.CopyTree(entry.Source, entry.Dest)
	default:
		err = p.fs.CopyFile(entry.Source, entry.Dest)
	}

	switch {
	case err == nil:
		log.Debug(ctx, "entry written", ports.F("mode", mode.String()))
		return EntryResult{Entry: entry, Status: Created}
	case errors.Is(err, fs.ErrExist):
		log.Info(ctx, "destination appeared concurrently, skipping")
		return EntryResult{Entry: entry, Status: Skipped}
	default:
		log.Warn(ctx, "entry failed", ports.Err(err))
		return EntryResult{Entry: entry, Status: Failed, Err: err}
	}
}
