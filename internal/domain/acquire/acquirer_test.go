package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billow-vn/idapm/internal/adapters/logging"
	"github.com/billow-vn/idapm/internal/domain/repository"
	"github.com/billow-vn/idapm/internal/ports"
	"github.com/billow-vn/idapm/internal/testutil/mocks"
)

func cloneArgs(url, path string) []string {
	return []string{"clone", "--", url, path}
}

func newAcquirer(runner *mocks.CommandRunner, fs *mocks.FileSystem, opts ...Option) *Acquirer {
	env := mocks.NewEnvironment("linux", "/home/u").
		Setenv("PATH", "/usr/bin").
		Setenv("GIT_ASKPASS", "/usr/bin/ksshaskpass")
	return New(runner, fs, env, opts...)
}

func TestAcquire_ClonedThenAlreadyPresent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ref := repository.MustParse("foo/bar")
	dest := filepath.Join(root, "foo", "bar")

	fs := mocks.NewFileSystem()
	runner := mocks.NewCommandRunner()
	runner.AddResult("git", cloneArgs(ref.CloneURL, dest), ports.CommandResult{
		Stderr: "Cloning into '" + dest + "'...\n",
	})
	runner.AddAction("git", cloneArgs(ref.CloneURL, dest), func(ports.Command) {
		fs.AddFile(filepath.Join(dest, "plugin.py"), "")
		fs.AddFile(filepath.Join(dest, ".git", "config"),
			"[core]\n\tbare = false\n[remote \"origin\"]\n\turl = "+ref.CloneURL+"\n\tfetch = +refs/heads/*:refs/remotes/origin/*\n")
	})

	a := newAcquirer(runner, fs)

	first, err := a.Acquire(context.Background(), ref, root)
	require.NoError(t, err)
	assert.Equal(t, Cloned, first.Outcome)
	assert.Equal(t, dest, first.Path)
	assert.NoError(t, first.Err())

	second, err := a.Acquire(context.Background(), ref, root)
	require.NoError(t, err)
	assert.Equal(t, AlreadyPresent, second.Outcome)
	assert.Equal(t, dest, second.Path)
	assert.Equal(t, ref.CloneURL, second.RemoteURL)

	assert.Equal(t, 1, runner.CallCount("git", cloneArgs(ref.CloneURL, dest)...))
}

func TestAcquire_AlreadyPresentSkipsGit(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fs := mocks.NewFileSystem()
	fs.AddDir(filepath.Join(root, "owner", "name"))
	runner := mocks.NewCommandRunner()

	res, err := newAcquirer(runner, fs).Acquire(context.Background(), repository.MustParse("owner/name"), root)
	require.NoError(t, err)
	assert.Equal(t, AlreadyPresent, res.Outcome)
	assert.Empty(t, res.RemoteURL)
	assert.Empty(t, runner.Calls())
}

func TestAcquire_Classification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result ports.CommandResult
		want   Outcome
	}{
		{
			name:   "success",
			result: ports.CommandResult{Stderr: "Cloning into 'x'...\n"},
			want:   Cloned,
		},
		{
			name:   "repository not found",
			result: ports.CommandResult{ExitCode: 128, Stderr: "remote: Repository not found.\nfatal: repository 'https://github.com/a/b.git/' not found\n"},
			want:   NotFound,
		},
		{
			name:   "credentials requested",
			result: ports.CommandResult{ExitCode: 128, Stderr: "fatal: could not read Username for 'https://github.com': terminal prompts disabled\n"},
			want:   NotFound,
		},
		{
			name:   "destination not empty",
			result: ports.CommandResult{ExitCode: 128, Stderr: "fatal: destination path 'x' already exists and is not an empty directory.\n"},
			want:   Conflict,
		},
		{
			name:   "other failure",
			result: ports.CommandResult{ExitCode: 128, Stderr: "fatal: unable to access: Could not resolve host: github.com\n"},
			want:   ClientError,
		},
		{
			name:   "silent failure",
			result: ports.CommandResult{ExitCode: 1},
			want:   ClientError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			ref := repository.MustParse("a/b")
			dest := filepath.Join(root, "a", "b")

			runner := mocks.NewCommandRunner()
			runner.AddResult("git", cloneArgs(ref.CloneURL, dest), tt.result)

			res, err := newAcquirer(runner, mocks.NewFileSystem()).Acquire(context.Background(), ref, root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Outcome)
			assert.Equal(t, tt.result.ExitCode, res.ExitCode)
			assert.Equal(t, tt.result.Stderr, res.Stderr)
			assert.Equal(t, tt.want.Usable(), res.Err() == nil)
		})
	}
}

func TestAcquire_NotFoundError(t *testing.T) {
	t.Parallel()

	res := Result{Outcome: NotFound, URL: "https://github.com/a/b.git"}
	err := res.Err()
	require.Error(t, err)
	assert.True(t, IsCloneError(err))
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "repository not found")

	conflict := Result{Outcome: Conflict, URL: "u"}.Err()
	assert.False(t, IsNotFound(conflict))
	assert.Contains(t, conflict.Error(), "already exists")

	failed := Result{Outcome: ClientError, URL: "u", Stderr: "fatal: boom\n"}.Err()
	assert.Equal(t, "git clone failed for u: fatal: boom", failed.Error())
}

func TestAcquire_SanitizesIdentity(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ref := repository.Reference{
		Identity: "evil/$(touch pwned)",
		CloneURL: "https://github.com/evil/x.git",
	}
	dest := filepath.Join(root, "evil", "__touch_pwned_")

	runner := mocks.NewCommandRunner()
	runner.AddResult("git", cloneArgs(ref.CloneURL, dest), ports.CommandResult{})

	res, err := newAcquirer(runner, mocks.NewFileSystem()).Acquire(context.Background(), ref, root)
	require.NoError(t, err)
	assert.Equal(t, dest, res.Path)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "--", calls[0].Args[1], "the URL must follow an end-of-options marker")
}

func TestAcquire_RejectsTraversal(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	ref := repository.Reference{Identity: "../../etc", CloneURL: "https://github.com/x/y.git"}

	_, err := newAcquirer(runner, mocks.NewFileSystem()).Acquire(context.Background(), ref, t.TempDir())
	assert.True(t, repository.IsPathTraversal(err))
	assert.Empty(t, runner.Calls())
}

func TestAcquire_GitNotFound(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ref := repository.MustParse("a/b")
	dest := filepath.Join(root, "a", "b")

	runner := mocks.NewCommandRunner()
	runner.AddError("/opt/git", cloneArgs(ref.CloneURL, dest),
		fmt.Errorf("starting /opt/git: %w", exec.ErrNotFound))

	a := newAcquirer(runner, mocks.NewFileSystem(), WithGitPath("/opt/git"))
	_, err := a.Acquire(context.Background(), ref, root)
	require.Error(t, err)
	assert.True(t, IsGitNotFound(err))
	assert.Contains(t, err.Error(), "/opt/git")
}

func TestAcquire_RunnerError(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ref := repository.MustParse("a/b")
	dest := filepath.Join(root, "a", "b")

	boom := errors.New("boom")
	runner := mocks.NewCommandRunner()
	runner.AddError("git", cloneArgs(ref.CloneURL, dest), boom)

	_, err := newAcquirer(runner, mocks.NewFileSystem(), WithTimeout(time.Minute)).Acquire(context.Background(), ref, root)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsGitNotFound(err))
}

func TestAcquire_PassesAmbientEnvironment(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ref := repository.MustParse("a/b")
	runner := mocks.NewCommandRunner()
	runner.AddResult("git", cloneArgs(ref.CloneURL, filepath.Join(root, "a", "b")), ports.CommandResult{})

	env := mocks.NewEnvironment("linux", "/home/u").
		Setenv("PATH", "/usr/bin").
		Setenv("https_proxy", "http://proxy:3128").
		Setenv("no_proxy", "localhost").
		Setenv("GIT_SSH", "plink").
		Setenv("GIT_SSH_VARIANT", "plink").
		Setenv("XDG_CONFIG_HOME", "/home/u/.config").
		Setenv("GIT_CONFIG_GLOBAL", "/home/u/.config/git/work").
		Setenv("TMPDIR", "/var/tmp").
		Setenv("GIT_ASKPASS", "/usr/bin/ksshaskpass").
		Setenv("GIT_TERMINAL_PROMPT", "1")

	_, err := New(runner, mocks.NewFileSystem(), env).Acquire(context.Background(), ref, root)
	require.NoError(t, err)

	got := runner.Calls()[0].Env
	for _, kv := range []string{
		"PATH=/usr/bin",
		"https_proxy=http://proxy:3128",
		"no_proxy=localhost",
		"GIT_SSH=plink",
		"GIT_SSH_VARIANT=plink",
		"XDG_CONFIG_HOME=/home/u/.config",
		"GIT_CONFIG_GLOBAL=/home/u/.config/git/work",
		"TMPDIR=/var/tmp",
		"GIT_TERMINAL_PROMPT=0",
		"GIT_ASKPASS=",
		"LC_ALL=C",
	} {
		assert.Contains(t, got, kv)
	}
	assert.NotContains(t, got, "GIT_ASKPASS=/usr/bin/ksshaskpass")
	assert.NotContains(t, got, "GIT_TERMINAL_PROMPT=1")
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	a := New(mocks.NewCommandRunner(), mocks.NewFileSystem(), mocks.NewEnvironment("linux", "/home/u"))
	assert.Equal(t, DefaultGitPath, a.GitPath())

	a = New(mocks.NewCommandRunner(), mocks.NewFileSystem(), mocks.NewEnvironment("linux", "/home/u"), WithGitPath(""))
	assert.Equal(t, DefaultGitPath, a.GitPath())
}

func TestOutcome_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "cloned", Cloned.String())
	assert.Equal(t, "already present", AlreadyPresent.String())
	assert.Equal(t, "not found", NotFound.String())
	assert.Equal(t, "conflict", Conflict.String())
	assert.Equal(t, "client error", ClientError.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}

func TestAcquire_AlreadyPresentFromAnotherRepository(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dest := filepath.Join(root, "o", "a_b")
	fs := mocks.NewFileSystem()
	fs.AddFile(filepath.Join(dest, ".git", "config"),
		"[remote \"origin\"]\n\turl = https://github.com/o/a_b.git\n")
	runner := mocks.NewCommandRunner()

	var logs bytes.Buffer
	logger := logging.NewConsoleLogger(logging.WithOutput(&logs), logging.WithTimestamp(false))

	res, err := newAcquirer(runner, fs, WithLogger(logger)).Acquire(context.Background(), repository.MustParse("o/a b"), root)
	require.NoError(t, err)
	assert.Equal(t, AlreadyPresent, res.Outcome)
	assert.Equal(t, dest, res.Path)
	assert.True(t, res.ForeignOrigin())
	assert.Contains(t, logs.String(), "existing clone belongs to another repository")
	assert.Empty(t, runner.Calls())
}

func TestResult_ForeignOrigin(t *testing.T) {
	t.Parallel()

	present := func(remote string) Result {
		return Result{
			Outcome:   AlreadyPresent,
			Identity:  "foo/bar",
			URL:       "https://github.com/foo/bar.git",
			RemoteURL: remote,
		}
	}

	tests := []struct {
		name   string
		result Result
		want   bool
	}{
		{"same url", present("https://github.com/foo/bar.git"), false},
		{"ssh form of same repository", present("git@github.com:foo/bar.git"), false},
		{"different case", present("https://github.com/Foo/Bar"), false},
		{"unknown origin", present(""), false},
		{"other repository", present("https://github.com/foo/baz.git"), true},
		{"unparsable origin", present("/srv/git/bar"), true},
		{"fresh clone", Result{Outcome: Cloned, Identity: "foo/bar", RemoteURL: "https://github.com/x/y.git"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.result.ForeignOrigin())
		})
	}
}
