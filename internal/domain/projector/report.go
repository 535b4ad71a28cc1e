package projector

import (
	"fmt"
	"strings"
)

// Mode selects how an entry is exposed in the plugin directory.
type Mode int

const (
	// Copy duplicates files and directory trees.
	Copy Mode = iota
	// Symlink links back to the source so edits apply in place.
	Symlink
)

func (m Mode) String() string {
	switch m {
	case Copy:
		return "copy"
	case Symlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// ParseMode parses "copy" or "symlink".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "copy":
		return Copy, nil
	case "symlink", "link":
		return Symlink, nil
	default:
		return Copy, fmt.Errorf("unknown projection mode %q (want copy or symlink)", s)
	}
}

// Entry is one item exposed in the plugin directory: a root-level script
// or the top-level directory holding nested scripts.
type Entry struct {
	// Name is the entry's base name, shared by source and destination.
	Name   string
	Source string
	Dest   string
	Dir    bool
}

// Status is what happened to an Entry.
type Status int

const (
	// Created means the destination was written.
	Created Status = iota
	// Skipped means the destination already existed and was left alone.
	Skipped
	// Failed means the entry could not be written.
	Failed
)

func (s Status) String() string {
	switch s {
	case Created:
		return "created"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// EntryResult pairs an Entry with its Status.
type EntryResult struct {
	Entry
	Status Status
	Err    error
}

// Report is the outcome of one projection run.
type Report struct {
	Source    string
	PluginDir string
	Mode      Mode
	Entries   []EntryResult
}

// Created returns the entries that were written.
func (r *Report) Created() []EntryResult {
	return r.filter(Created)
}

// Skipped returns the entries whose destination already existed.
func (r *Report) Skipped() []EntryResult {
	return r.filter(Skipped)
}

// Failed returns the entries that could not be written.
func (r *Report) Failed() []EntryResult {
	return r.filter(Failed)
}

// HasFailures returns true if any entry failed.
func (r *Report) HasFailures() bool {
	return len(r.Failed()) > 0
}

// Names returns every entry name in processing order.
func (r *Report) Names() []string {
	names := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		names = append(names, e.Name)
	}
	return names
}

func (r *Report) filter(s Status) []EntryResult {
	var out []EntryResult
	for _, e := range r.Entries {
		if e.Status == s {
			out = append(out, e)
		}
	}
	return out
}
