// Package acquire clones plugin repositories into the managed clone
// directory.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/ini.v1"

	"github.com/billow-vn/idapm/internal/domain/repository"
	"github.com/billow-vn/idapm/internal/ports"
)

const (
	// DefaultGitPath is the git binary looked up in PATH.
	DefaultGitPath = "git"

	lockFileName = ".idapm.lock"
)

// Result describes one acquisition.
type Result struct {
	Outcome Outcome
	// Identity is the owner/name the acquisition was for.
	Identity string
	// Path is where the repository lives, or would have lived.
	Path string
	URL  string
	// RemoteURL is the origin recorded in an already-present clone.
	RemoteURL string

	ExitCode int
	Stdout   string
	Stderr   string
}

// Err returns a *CloneError for unusable outcomes and nil otherwise.
func (r Result) Err() error {
	if r.Outcome.Usable() {
		return nil
	}
	return &CloneError{URL: r.URL, Outcome: r.Outcome, Reason: strings.TrimSpace(r.Stderr)}
}

// ForeignOrigin reports whether an already-present clone was made from a
// different repository. Distinct identities can sanitize to the same path.
func (r Result) ForeignOrigin() bool {
	if r.Outcome != AlreadyPresent || r.RemoteURL == "" || r.RemoteURL == r.URL {
		return false
	}
	remote, err := repository.Parse(r.RemoteURL)
	return err != nil || !strings.EqualFold(remote.Identity, r.Identity)
}

// Acquirer clones repositories with git through a CommandRunner.
type Acquirer struct {
	runner  ports.CommandRunner
	fs      ports.FileSystem
	env     ports.Environment
	logger  ports.Logger
	gitPath string
	timeout time.Duration
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithGitPath sets the git binary.
func WithGitPath(path string) Option {
	return func(a *Acquirer) {
		if path != "" {
			a.gitPath = path
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger ports.Logger) Option {
	return func(a *Acquirer) {
		a.logger = ports.LoggerOrDiscard(logger)
	}
}

// WithTimeout bounds each clone. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(a *Acquirer) {
		a.timeout = d
	}
}

// New creates an Acquirer.
func New(runner ports.CommandRunner, fs ports.FileSystem, env ports.Environment, opts ...Option) *Acquirer {
	a := &Acquirer{
		runner:  runner,
		fs:      fs,
		env:     env,
		logger:  ports.LoggerOrDiscard(nil),
		gitPath: DefaultGitPath,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GitPath returns the git binary in use.
func (a *Acquirer) GitPath() string {
	return a.gitPath
}

// InstalledPath returns where ref is cloned under root.
func InstalledPath(ref repository.Reference, root string) (string, error) {
	rel, err := repository.Sanitize(ref.Identity)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, rel), nil
}

// Acquire clones ref into root unless its destination already exists.
// Failures reported by git are returned as a Result outcome; the error is
// reserved for problems running git at all.
func (a *Acquirer) Acquire(ctx context.Context, ref repository.Reference, root string) (Result, error) {
	path, err := InstalledPath(ref, root)
	if err != nil {
		return Result{}, err
	}
	result := Result{Identity: ref.Identity, Path: path, URL: ref.CloneURL}

	if a.fs.Exists(path) {
		return a.present(ctx, result), nil
	}

	if err := a.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Result{}, fmt.Errorf("creating clone directory: %w", err)
	}

	lock := flock.New(filepath.Join(root, lockFileName))
	if err := lock.Lock(); err != nil {
		return Result{}, fmt.Errorf("locking %s: %w", root, err)
	}
	defer func() { _ = lock.Unlock() }()

	// Another process may have cloned while we waited.
	if a.fs.Exists(path) {
		return a.present(ctx, result), nil
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	a.logger.Debug(ctx, "cloning repository", ports.F("url", ref.CloneURL), ports.F("path", path))

	out, err := a.runner.Run(ctx, ports.Command{
		Name: a.gitPath,
		Args: []string{"clone", "--", ref.CloneURL, path},
		Env:  a.safeEnv(),
	})
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Result{}, &GitNotFoundError{Path: a.gitPath}
		}
		return Result{}, fmt.Errorf("running git clone: %w", err)
	}

	result.Outcome = Classify(out)
	result.ExitCode = out.ExitCode
	result.Stdout = out.Stdout
	result.Stderr = out.Stderr

	a.logger.Debug(ctx, "git clone finished",
		ports.F("url", ref.CloneURL),
		ports.F("outcome", result.Outcome.String()),
		ports.F("exit_code", out.ExitCode))

	return result, nil
}

// present completes result for a destination that already exists.
func (a *Acquirer) present(ctx context.Context, result Result) Result {
	result.Outcome = AlreadyPresent
	result.RemoteURL = a.origin(result.Path)
	a.logger.Debug(ctx, "repository already present",
		ports.F("path", result.Path), ports.F("origin", result.RemoteURL))
	if result.ForeignOrigin() {
		a.logger.Warn(ctx, "existing clone belongs to another repository",
			ports.F("path", result.Path),
			ports.F("origin", result.RemoteURL),
			ports.F("identity", result.Identity))
	}
	return result
}

// origin reads the origin URL from a clone's .git/config. It returns ""
// when the directory is not a git clone.
func (a *Acquirer) origin(path string) string {
	data, err := a.fs.ReadFile(filepath.Join(path, ".git", "config"))
	if err != nil {
		return ""
	}
	cfg, err := ini.Load(data)
	if err != nil {
		return ""
	}
	section, err := cfg.GetSection(`remote "origin"`)
	if err != nil {
		return ""
	}
	return section.Key("url").String()
}

// gitOverrides keep git from waiting on a terminal or a credential helper
// window, and keep its messages in English for Classify.
var gitOverrides = []string{
	"GIT_TERMINAL_PROMPT=0",
	"GIT_ASKPASS=",
	"LC_ALL=C",
}

// safeEnv returns the ambient environment with gitOverrides applied, so
// proxies, SSH settings and git config locations still reach git.
func (a *Acquirer) safeEnv() []string {
	overridden := make(map[string]bool, len(gitOverrides))
	for _, kv := range gitOverrides {
		overridden[envKey(kv)] = true
	}

	ambient := a.env.Environ()
	env := make([]string, 0, len(ambient)+len(gitOverrides))
	for _, kv := range ambient {
		if !overridden[envKey(kv)] {
			env = append(env, kv)
		}
	}
	return append(env, gitOverrides...)
}

func envKey(kv string) string {
	if i := strings.IndexByte(kv, '='); i > 0 {
		return kv[:i]
	}
	return kv
}
