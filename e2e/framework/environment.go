//go:build e2e

// Package framework provides the E2E test infrastructure for idapm.
package framework

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

// Environment is an isolated home directory plus a set of local git
// remotes that stand in for GitHub.
type Environment struct {
	t          *testing.T
	rootDir    string
	homeDir    string
	remotesDir string
	binaryPath string
}

var (
	buildOnce   sync.Once
	binaryPath  string
	buildErr    error
	projectRoot string
)

// findProjectRoot locates the project root directory.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// buildBinary builds the idapm binary once per test run.
func buildBinary(t *testing.T) (string, error) {
	buildOnce.Do(func() {
		projectRoot, buildErr = findProjectRoot()
		if buildErr != nil {
			return
		}

		binaryPath = filepath.Join(os.TempDir(), "idapm-e2e-test")

		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/idapm")
		cmd.Dir = projectRoot

		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			buildErr = err
			t.Logf("Build stderr: %s", stderr.String())
			return
		}
	})

	return binaryPath, buildErr
}

// NewEnvironment creates a new isolated test environment. Clones of
// https://github.com/ are redirected to the local remotes directory.
func NewEnvironment(t *testing.T) *Environment {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	binary, err := buildBinary(t)
	if err != nil {
		t.Fatalf("Failed to build binary: %v", err)
	}

	rootDir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to resolve temp dir: %v", err)
	}

	env := &Environment{
		t:          t,
		rootDir:    rootDir,
		homeDir:    filepath.Join(rootDir, "home"),
		remotesDir: filepath.Join(rootDir, "remotes"),
		binaryPath: binary,
	}
	for _, dir := range []string{env.homeDir, env.remotesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	env.WriteFile(filepath.Join("home", ".gitconfig"),
		"[url \"file://"+filepath.ToSlash(env.remotesDir)+"/\"]\n\tinsteadOf = https://github.com/\n")

	return env
}

// HomeDir returns the path to the simulated home directory.
func (e *Environment) HomeDir() string {
	return e.homeDir
}

// RootDir returns the path to the test root directory.
func (e *Environment) RootDir() string {
	return e.rootDir
}

// BinaryPath returns the path to the built binary.
func (e *Environment) BinaryPath() string {
	return e.binaryPath
}

// PluginDir returns the plugin directory used by IDA versions after 7.0.
func (e *Environment) PluginDir() string {
	return filepath.Join(e.homeDir, ".idapro", "plugins")
}

// ConfigPath returns the idapm config path.
func (e *Environment) ConfigPath() string {
	return filepath.Join(e.homeDir, "idapm.json")
}

// WriteFile writes content to a file relative to the root directory.
func (e *Environment) WriteFile(path, content string) {
	e.t.Helper()

	fullPath := filepath.Join(e.rootDir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		e.t.Fatalf("Failed to create directory for %s: %v", fullPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		e.t.Fatalf("Failed to write file %s: %v", fullPath, err)
	}
}

// WriteConfig writes the idapm config.
func (e *Environment) WriteConfig(content string) {
	e.t.Helper()
	e.WriteFile(filepath.Join("home", "idapm.json"), content)
}

// AddRemote creates a bare repository served as https://github.com/<identity>.git.
func (e *Environment) AddRemote(identity string, files map[string]string) {
	e.t.Helper()

	work := filepath.Join(e.rootDir, "work", filepath.FromSlash(identity))
	for name, content := range files {
		e.WriteFile(filepath.Join("work", filepath.FromSlash(identity), filepath.FromSlash(name)), content)
	}

	e.git(work, "init", "-q")
	e.git(work, "add", "-A")
	e.git(work, "-c", "user.name=idapm", "-c", "user.email=idapm@example.com", "commit", "-q", "-m", "initial")
	e.git(e.rootDir, "clone", "-q", "--bare", work, filepath.Join(e.remotesDir, filepath.FromSlash(identity)+".git"))
}

func (e *Environment) git(dir string, args ...string) {
	e.t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "HOME="+e.homeDir, "GIT_CONFIG_NOSYSTEM=1")

	out, err := cmd.CombinedOutput()
	if err != nil {
		e.t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}

// Exists reports whether path, relative to the root directory, exists.
// Symlinks are not followed.
func (e *Environment) Exists(path string) bool {
	_, err := os.Lstat(filepath.Join(e.rootDir, path))
	return err == nil
}

// ReadFile reads a file relative to the root directory.
func (e *Environment) ReadFile(path string) string {
	e.t.Helper()

	content, err := os.ReadFile(filepath.Join(e.rootDir, path))
	if err != nil {
		e.t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
