// Package settings loads idapm's optional runtime settings file.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/billow-vn/idapm/internal/domain/platform"
	"github.com/billow-vn/idapm/internal/ports"
)

// Environment variables that override file settings.
const (
	EnvIDAHome = "IDAPM_IDA_HOME"
	EnvGit     = "IDAPM_GIT"
)

// DirName is the per-user settings directory under the home directory.
const DirName = ".idapm"

// candidates are tried in order when no settings file is given.
var candidates = []string{"settings.yaml", "settings.yml", "settings.toml"}

// Settings tunes install-root discovery, git and plugin selection.
type Settings struct {
	// IDAHome is an explicit IDA install root; it disables the search.
	IDAHome string `yaml:"ida_home,omitempty" toml:"ida_home,omitempty"`
	// HomePattern replaces the built-in install-root glob.
	HomePattern string `yaml:"home_pattern,omitempty" toml:"home_pattern,omitempty"`
	// HomeSelect is "first" or "last" when several install roots match.
	HomeSelect string   `yaml:"home_select,omitempty" toml:"home_select,omitempty"`
	GitPath    string   `yaml:"git_path,omitempty" toml:"git_path,omitempty"`
	Extensions []string `yaml:"extensions,omitempty" toml:"extensions,omitempty"`

	// Source is the file the settings were read from, if any.
	Source string `yaml:"-" toml:"-"`
}

// Default returns the settings used when no file exists.
func Default() *Settings {
	return &Settings{
		HomeSelect: string(platform.SelectFirst),
		Extensions: []string{".py"},
	}
}

// Parse decodes data as YAML or TOML depending on the extension of name.
// Unknown keys are rejected.
func Parse(name string, data []byte) (*Settings, error) {
	s := &Settings{}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(s); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("unsupported settings format %q (want .yaml or .toml)", filepath.Ext(name))
	}

	s.Source = name
	if err := s.normalize(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", name, err)
	}
	return s, nil
}

// Load reads the settings file at path, or the first settings file in
// ~/.idapm when path is empty. Missing default files yield Default().
// Environment overrides are applied last.
func Load(fs ports.FileSystem, env ports.Environment, path string) (*Settings, error) {
	s, err := load(fs, env, path)
	if err != nil {
		return nil, err
	}
	s.applyEnv(env)
	s.IDAHome = expandHome(env, s.IDAHome)
	s.HomePattern = expandHome(env, s.HomePattern)
	s.GitPath = expandHome(env, s.GitPath)
	return s, nil
}

func load(fs ports.FileSystem, env ports.Environment, path string) (*Settings, error) {
	if path != "" {
		data, err := fs.ReadFile(expandHome(env, path))
		if err != nil {
			return nil, fmt.Errorf("reading settings: %w", err)
		}
		return Parse(path, data)
	}

	home, err := env.HomeDir()
	if err != nil {
		return Default(), nil //nolint:nilerr // without a home there is no default file
	}
	for _, name := range candidates {
		p := filepath.Join(home, DirName, name)
		if !fs.Exists(p) {
			continue
		}
		data, err := fs.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading settings: %w", err)
		}
		return Parse(p, data)
	}
	return Default(), nil
}

func (s *Settings) applyEnv(env ports.Environment) {
	if v := env.Getenv(EnvIDAHome); v != "" {
		s.IDAHome = v
	}
	if v := env.Getenv(EnvGit); v != "" {
		s.GitPath = v
	}
}

func (s *Settings) normalize() error {
	if s.HomeSelect == "" {
		s.HomeSelect = string(platform.SelectFirst)
	}
	if _, err := platform.ParseSelection(s.HomeSelect); err != nil {
		return err
	}

	if len(s.Extensions) == 0 {
		s.Extensions = []string{".py"}
	}
	for i, ext := range s.Extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" || ext == "." {
			return fmt.Errorf("empty script extension")
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.Extensions[i] = ext
	}
	return nil
}

// HomeOptions converts the settings into install-root discovery options.
func (s *Settings) HomeOptions() platform.HomeOptions {
	sel, _ := platform.ParseSelection(s.HomeSelect)
	return platform.HomeOptions{
		Home:    s.IDAHome,
		Pattern: s.HomePattern,
		Select:  sel,
	}
}

// expandHome replaces a leading "~" with the environment's home directory.
func expandHome(env ports.Environment, path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := env.HomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}
