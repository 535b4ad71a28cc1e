//go:build e2e

package framework

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// AssertSuccess asserts that the command succeeded.
func AssertSuccess(t *testing.T, r *Result) {
	t.Helper()
	if !r.Success() {
		t.Errorf("Expected command to succeed, got exit code %d\nStdout: %s\nStderr: %s",
			r.ExitCode, r.Stdout, r.Stderr)
	}
}

// AssertFailed asserts that the command failed.
func AssertFailed(t *testing.T, r *Result) {
	t.Helper()
	if r.Success() {
		t.Errorf("Expected command to fail, but it succeeded\nStdout: %s", r.Stdout)
	}
}

// AssertStdoutContains asserts that stdout contains the expected substring.
func AssertStdoutContains(t *testing.T, r *Result, expected string) {
	t.Helper()
	if !strings.Contains(r.Stdout, expected) {
		t.Errorf("Expected stdout to contain %q, but got:\n%s", expected, r.Stdout)
	}
}

// AssertStdoutNotContains asserts that stdout does not contain the unexpected substring.
func AssertStdoutNotContains(t *testing.T, r *Result, unexpected string) {
	t.Helper()
	if strings.Contains(r.Stdout, unexpected) {
		t.Errorf("Expected stdout to NOT contain %q, but got:\n%s", unexpected, r.Stdout)
	}
}

// AssertStderrContains asserts that stderr contains the expected substring.
func AssertStderrContains(t *testing.T, r *Result, expected string) {
	t.Helper()
	if !strings.Contains(r.Stderr, expected) {
		t.Errorf("Expected stderr to contain %q, but got:\n%s", expected, r.Stderr)
	}
}

// AssertExists asserts that path, relative to the root directory, exists.
func AssertExists(t *testing.T, env *Environment, path string) {
	t.Helper()
	if !env.Exists(path) {
		t.Errorf("Expected %s to exist", path)
	}
}

// AssertNotExists asserts that path, relative to the root directory, does not exist.
func AssertNotExists(t *testing.T, env *Environment, path string) {
	t.Helper()
	if env.Exists(path) {
		t.Errorf("Expected %s to NOT exist", path)
	}
}

// AssertSymlink asserts that a symlink exists and points to the expected target.
func AssertSymlink(t *testing.T, env *Environment, linkPath, expectedTarget string) {
	t.Helper()
	target, err := os.Readlink(filepath.Join(env.RootDir(), linkPath))
	if err != nil {
		t.Fatalf("Expected %s to be a symlink: %v", linkPath, err)
	}
	if target != expectedTarget {
		t.Errorf("Expected symlink %s to point to %s, but points to %s", linkPath, expectedTarget, target)
	}
}

// AssertConfig asserts the stored version and plugin list of idapm.json.
func AssertConfig(t *testing.T, env *Environment, version int, plugins ...string) {
	t.Helper()

	data, err := os.ReadFile(env.ConfigPath())
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}
	var doc struct {
		Plugins []string `json:"plugins"`
		Version int      `json:"version"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Config is not valid JSON: %v\n%s", err, data)
	}
	if doc.Version != version {
		t.Errorf("Expected config version %d, got %d", version, doc.Version)
	}
	if plugins == nil {
		plugins = []string{}
	}
	if !slices.Equal(doc.Plugins, plugins) {
		t.Errorf("Expected config plugins %v, got %v", plugins, doc.Plugins)
	}
}
