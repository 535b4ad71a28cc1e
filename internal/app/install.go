package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/billow-vn/idapm/internal/domain/acquire"
	"github.com/billow-vn/idapm/internal/domain/platform"
	"github.com/billow-vn/idapm/internal/domain/projector"
	"github.com/billow-vn/idapm/internal/domain/repository"
	"github.com/billow-vn/idapm/internal/ports"
)

// InstallResult describes one installation.
type InstallResult struct {
	Reference repository.Reference
	PluginDir string
	// Attempts holds every acquisition, in order. A conventional reference
	// that was not found over HTTPS is retried once over SSH.
	Attempts []acquire.Result
	Report   *projector.Report
	// Added is true when the identity was newly recorded in the config.
	Added bool
}

// Acquisition returns the final acquisition attempt.
func (r *InstallResult) Acquisition() (acquire.Result, bool) {
	if len(r.Attempts) == 0 {
		return acquire.Result{}, false
	}
	return r.Attempts[len(r.Attempts)-1], true
}

// InstallFromGitHub clones the repository named by input into the managed
// clone directory, links its scripts into the plugin directory and records
// its identity in the config.
func (i *Installer) InstallFromGitHub(ctx context.Context, input string) (*InstallResult, error) {
	ref, err := repository.Parse(input)
	if err != nil {
		return nil, err
	}

	pluginDir, err := i.PluginDir()
	if err != nil {
		return nil, err
	}
	result := &InstallResult{Reference: ref, PluginDir: pluginDir}
	managed := platform.ManagedDir(pluginDir)

	log := i.logger.With(ports.F("identity", ref.Identity))

	acquired, err := i.acquirer.Acquire(ctx, ref, managed)
	if err != nil {
		return result, err
	}
	result.Attempts = append(result.Attempts, acquired)

	if acquired.Outcome == acquire.NotFound && !ref.Explicit {
		log.Info(ctx, "repository not found over HTTPS, retrying over SSH", ports.F("url", ref.SSH()))
		acquired, err = i.acquirer.Acquire(ctx, ref.WithSSH(), managed)
		if err != nil {
			return result, err
		}
		result.Attempts = append(result.Attempts, acquired)
	}

	if err := acquired.Err(); err != nil {
		return result, err
	}

	report, err := i.projector.Project(ctx, acquired.Path, pluginDir, projector.Symlink)
	if err != nil {
		return result, fmt.Errorf("linking %s: %w", ref.Identity, err)
	}
	result.Report = report

	if !i.config.Exists() {
		log.Info(ctx, "config missing, creating it", ports.F("path", i.config.Path()))
		if err := i.config.Initialize(ports.DefaultVersion); err != nil {
			return result, fmt.Errorf("creating config: %w", err)
		}
	}
	added, err := i.config.AddPlugin(ref.Identity)
	if err != nil {
		return result, fmt.Errorf("recording %s: %w", ref.Identity, err)
	}
	result.Added = added

	return result, nil
}

// InstallFromLocal exposes the scripts under dir in the plugin directory.
// Local installs are not recorded in the config.
func (i *Installer) InstallFromLocal(ctx context.Context, dir string, mode projector.Mode) (*InstallResult, error) {
	pluginDir, err := i.PluginDir()
	if err != nil {
		return nil, err
	}

	report, err := i.projector.Project(ctx, dir, pluginDir, mode)
	if err != nil {
		return nil, err
	}
	return &InstallResult{PluginDir: pluginDir, Report: report}, nil
}

// ConfiguredResult is the outcome of reinstalling one configured plugin.
type ConfiguredResult struct {
	Identity string
	Result   *InstallResult
	Err      error
}

// InstallConfigured installs every plugin recorded in the config. A
// failing plugin does not stop the others.
func (i *Installer) InstallConfigured(ctx context.Context) ([]ConfiguredResult, error) {
	if !i.config.Exists() {
		return nil, nil
	}
	plugins, err := i.config.ListPlugins()
	if err != nil {
		return nil, err
	}

	results := make([]ConfiguredResult, 0, len(plugins))
	for _, id := range plugins {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := i.InstallFromGitHub(ctx, id)
		results = append(results, ConfiguredResult{Identity: id, Result: res, Err: err})
		if err == nil {
			continue
		}
		if IsFatal(err) {
			return results, err
		}
		i.logger.Warn(ctx, "configured plugin failed", ports.F("identity", id), ports.Err(err))
	}
	return results, nil
}

// Failed returns the results that ended in an error.
func Failed(results []ConfiguredResult) []ConfiguredResult {
	var out []ConfiguredResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// IsFatal reports whether err means no installation can succeed in this
// environment, so retrying other plugins is pointless.
func IsFatal(err error) bool {
	return platform.IsUnsupported(err) ||
		platform.IsHomeNotFound(err) ||
		acquire.IsGitNotFound(err) ||
		errors.Is(err, context.Canceled)
}
