package platform

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/billow-vn/idapm/internal/ports"
)

const (
	// LegacyVersion is the last IDA version that keeps plugins inside the
	// installation directory. Later versions use a per-user directory.
	LegacyVersion = 700

	// ManagedDirName is the directory, next to the plugin directory, that
	// holds every repository idapm clones.
	ManagedDirName = "idapm"

	darwinPluginsSuffix = "/Contents/MacOS/plugins"
)

// Selection picks one install root when the search pattern matches several.
type Selection string

const (
	// SelectFirst picks the lexically first match.
	SelectFirst Selection = "first"
	// SelectLast picks the lexically last match, usually the newest version.
	SelectLast Selection = "last"
)

// ParseSelection parses a selection name; empty means SelectFirst.
func ParseSelection(s string) (Selection, error) {
	switch Selection(strings.ToLower(strings.TrimSpace(s))) {
	case "", SelectFirst:
		return SelectFirst, nil
	case SelectLast:
		return SelectLast, nil
	default:
		return SelectFirst, fmt.Errorf("unknown install selection %q (want first or last)", s)
	}
}

// HomeOptions tunes how the IDA installation root is discovered.
type HomeOptions struct {
	// Home, when set, is used as the install root without searching.
	Home string
	// Pattern replaces the built-in per-OS glob pattern.
	Pattern string
	Select  Selection
}

// Resolver computes IDA's install root and plugin directory from an
// injected environment.
type Resolver struct {
	env  ports.Environment
	fs   ports.FileSystem
	opts HomeOptions
}

// NewResolver creates a Resolver.
func NewResolver(env ports.Environment, fs ports.FileSystem, opts HomeOptions) *Resolver {
	return &Resolver{env: env, fs: fs, opts: opts}
}

// OS returns the operating system reported by the environment.
func (r *Resolver) OS() OS {
	return FromGOOS(r.env.GOOS())
}

// SearchPattern returns the glob used to find the IDA install root.
func (r *Resolver) SearchPattern() (string, error) {
	if r.opts.Pattern != "" {
		return r.opts.Pattern, nil
	}

	switch r.OS() {
	case OSDarwin:
		return "/Applications/IDA*/Contents/MacOS", nil
	case OSWindows:
		return `C:\Program Files*\IDA*`, nil
	case OSLinux:
		home, err := r.env.HomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, "ida*"), nil
	default:
		return "", &UnsupportedError{GOOS: r.env.GOOS()}
	}
}

// FindHome locates the IDA install root. Only directories count as
// matches, so ~/idapm.json never shadows ~/ida-pro on Linux.
func (r *Resolver) FindHome() (string, error) {
	if !r.OS().Supported() {
		return "", &UnsupportedError{GOOS: r.env.GOOS()}
	}
	if r.opts.Home != "" {
		return r.opts.Home, nil
	}

	pattern, err := r.SearchPattern()
	if err != nil {
		return "", err
	}

	matches, err := r.fs.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("searching %s: %w", pattern, err)
	}

	candidates := make([]string, 0, len(matches))
	for _, m := range matches {
		if filepath.Base(m) == "idapm.json" || !r.fs.IsDir(m) {
			continue
		}
		candidates = append(candidates, m)
	}

	if len(candidates) == 0 {
		return "", &HomeNotFoundError{Pattern: pattern}
	}
	if r.opts.Select == SelectLast {
		return candidates[len(candidates)-1], nil
	}
	return candidates[0], nil
}

// HomeBase normalizes an install root. On macOS a root that already points
// at the plugins subdirectory is trimmed back to the bundle directory, so
// resolving twice yields the same result.
func (r *Resolver) HomeBase(home string) string {
	if r.OS() != OSDarwin {
		return home
	}
	return strings.TrimSuffix(filepath.ToSlash(home), darwinPluginsSuffix)
}

// PluginDir returns the directory IDA scans for plugins.
//
// Versions up to LegacyVersion keep plugins inside the install root; the
// root is only searched for in that case. Later versions use the per-user
// data directory.
func (r *Resolver) PluginDir(version int) (string, error) {
	osKind := r.OS()
	if !osKind.Supported() {
		return "", &UnsupportedError{GOOS: r.env.GOOS()}
	}

	if version <= LegacyVersion {
		home, err := r.FindHome()
		if err != nil {
			return "", err
		}
		if osKind == OSDarwin {
			return filepath.Join(r.HomeBase(home), "ida.app", "Contents", "MacOS", "plugins"), nil
		}
		return filepath.Join(home, "plugins"), nil
	}

	if osKind == OSWindows {
		appData := r.env.Getenv("APPDATA")
		if appData == "" {
			home, err := r.env.HomeDir()
			if err != nil {
				return "", fmt.Errorf("resolving APPDATA: %w", err)
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Hex-Rays", "IDA Pro", "plugins"), nil
	}

	home, err := r.env.HomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".idapro", "plugins"), nil
}

// ManagedDir returns the clone directory that sits beside pluginDir.
func ManagedDir(pluginDir string) string {
	return filepath.Join(filepath.Dir(pluginDir), ManagedDirName)
}
