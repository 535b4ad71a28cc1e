// Package app composes the domain components into idapm's user-facing
// operations.
package app

import (
	"context"
	"fmt"

	"github.com/billow-vn/idapm/internal/domain/acquire"
	"github.com/billow-vn/idapm/internal/domain/platform"
	"github.com/billow-vn/idapm/internal/domain/projector"
	"github.com/billow-vn/idapm/internal/domain/repository"
	"github.com/billow-vn/idapm/internal/domain/settings"
	"github.com/billow-vn/idapm/internal/ports"
)

// Deps are the collaborators of an Installer.
type Deps struct {
	Env      ports.Environment
	FS       ports.FileSystem
	Runner   ports.CommandRunner
	Config   ports.ConfigStore
	Logger   ports.Logger
	Settings *settings.Settings
}

// Installer installs and lists IDA plugins.
type Installer struct {
	resolver  *platform.Resolver
	acquirer  *acquire.Acquirer
	projector *projector.Projector
	config    ports.ConfigStore
	fs        ports.FileSystem
	logger    ports.Logger
}

// NewInstaller wires an Installer from its dependencies.
func NewInstaller(d Deps) *Installer {
	s := d.Settings
	if s == nil {
		s = settings.Default()
	}
	logger := ports.LoggerOrDiscard(d.Logger)

	return &Installer{
		resolver: platform.NewResolver(d.Env, d.FS, s.HomeOptions()),
		acquirer: acquire.New(d.Runner, d.FS, d.Env,
			acquire.WithGitPath(s.GitPath),
			acquire.WithLogger(logger)),
		projector: projector.New(d.FS,
			projector.WithExtensions(s.Extensions),
			projector.WithLogger(logger)),
		config: d.Config,
		fs:     d.FS,
		logger: logger,
	}
}

// Resolver returns the path resolver in use.
func (i *Installer) Resolver() *platform.Resolver {
	return i.resolver
}

// Version returns the stored IDA version, or ports.DefaultVersion when the
// config does not exist yet.
func (i *Installer) Version() (int, error) {
	if !i.config.Exists() {
		return ports.DefaultVersion, nil
	}
	return i.config.Version()
}

// PluginDir resolves the plugin directory for the stored version.
func (i *Installer) PluginDir() (string, error) {
	version, err := i.Version()
	if err != nil {
		return "", err
	}
	return i.resolver.PluginDir(version)
}

// Init creates the config with version, or raises the stored version when
// the config already exists. It reports whether the file was created.
func (i *Installer) Init(ctx context.Context, version int) (bool, error) {
	if !i.config.Exists() {
		if err := i.config.Initialize(version); err != nil {
			return false, fmt.Errorf("creating config: %w", err)
		}
		i.logger.Info(ctx, "config created", ports.F("path", i.config.Path()))
		return true, nil
	}
	if version > 0 {
		if err := i.config.SetVersion(version); err != nil {
			return false, fmt.Errorf("updating version: %w", err)
		}
	}
	return false, nil
}

// Configured reports whether the repository named by input is recorded in
// the config.
func (i *Installer) Configured(input string) (bool, error) {
	ref, err := repository.Parse(input)
	if err != nil {
		return false, err
	}
	if !i.config.Exists() {
		return false, nil
	}
	return i.config.ContainsPlugin(ref.Identity)
}
