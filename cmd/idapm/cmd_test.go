//go:build !windows

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billow-vn/idapm/internal/adapters/configfile"
	"github.com/billow-vn/idapm/internal/ports"
	"github.com/billow-vn/idapm/internal/testutil/mocks"
)

// cli runs rootCmd against a temporary home directory.
type cli struct {
	home      string
	pluginDir string
	managed   string
	env       *mocks.Environment
	runner    *mocks.CommandRunner
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	home, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	c := &cli{
		home:      home,
		pluginDir: filepath.Join(home, ".idapro", "plugins"),
		managed:   filepath.Join(home, ".idapro", "idapm"),
		env:       mocks.NewEnvironment("linux", home),
		runner:    mocks.NewCommandRunner(),
	}

	prevEnv, prevRunner := newEnvironment, newCommandRunner
	newEnvironment = func() ports.Environment { return c.env }
	newCommandRunner = func() ports.CommandRunner { return c.runner }
	t.Cleanup(func() {
		newEnvironment, newCommandRunner = prevEnv, prevRunner
		resetFlags(rootCmd)
	})
	return c
}

func (c *cli) configPath() string {
	return filepath.Join(c.home, configfile.FileName)
}

func (c *cli) initConfig(t *testing.T, version int, plugins ...string) *configfile.Store {
	t.Helper()
	store := configfile.New(c.configPath())
	require.NoError(t, store.Initialize(version))
	for _, p := range plugins {
		_, err := store.AddPlugin(p)
		require.NoError(t, err)
	}
	return store
}

// scriptClone makes git clone of url create files under the managed dir.
func (c *cli) scriptClone(t *testing.T, url, identity string, files map[string]string) {
	t.Helper()
	dest := filepath.Join(c.managed, filepath.FromSlash(identity))
	args := []string{"clone", "--", url, dest}
	c.runner.AddResult("git", args, ports.CommandResult{})
	c.runner.AddAction("git", args, func(ports.Command) {
		for name, content := range files {
			p := filepath.Join(dest, filepath.FromSlash(name))
			require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
			require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		}
	})
}

func (c *cli) run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestRootCommand_UseLine(t *testing.T) {
	assert.Equal(t, "idapm", rootCmd.Use)
	assert.True(t, rootCmd.SilenceErrors)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	var names []string
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Subset(t, names, []string{"check", "init", "install", "list", "version"})
}

func TestRootCommand_HasPersistentFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()
	for _, name := range []string{"config", "settings", "verbose", "log-json", "yes"} {
		t.Run(name, func(t *testing.T) {
			assert.NotNil(t, flags.Lookup(name))
		})
	}
	assert.Equal(t, "y", flags.Lookup("yes").Shorthand)
}

func TestInstallCommand_Aliases(t *testing.T) {
	assert.Contains(t, installCmd.Aliases, "i")
	assert.Equal(t, "l", installCmd.Flags().Lookup("local").Shorthand)
}

func TestVersionCommand(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "idapm dev")
	assert.Contains(t, out, "commit: none")
}

func TestCheckCommand_WithoutConfig(t *testing.T) {
	c := newCLI(t)

	// Version 700 keeps plugins inside the install root.
	require.NoError(t, os.MkdirAll(filepath.Join(c.home, "ida-7.0"), 0o755))

	out, err := c.run(t, "", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Platform:          Linux")
	assert.Contains(t, out, "IDA plugin dir:    "+filepath.Join(c.home, "ida-7.0", "plugins"))
	assert.Contains(t, out, "IDA version:       700")
	assert.Contains(t, out, "idapm config path: "+c.configPath())
	assert.Contains(t, out, "not created")
	assert.Contains(t, out, "git:               git")
	assert.Contains(t, out, "script extensions: .py")
}

func TestCheckCommand_ModernVersion(t *testing.T) {
	c := newCLI(t)
	c.initConfig(t, 750)

	out, err := c.run(t, "", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "IDA plugin dir:    "+c.pluginDir)
	assert.Contains(t, out, "IDA version:       750")
	assert.NotContains(t, out, "not created")
}

func TestCheckCommand_ShowsResolutionFailure(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "IDA plugin dir:")
	assert.Contains(t, out, "ida*")
	assert.Contains(t, out, "IDA version:       700")
}

func TestCheckCommand_SettingsFile(t *testing.T) {
	c := newCLI(t)
	settingsPath := filepath.Join(c.home, "custom.yaml")
	require.NoError(t, os.WriteFile(settingsPath, []byte("git_path: /opt/git/bin/git\nextensions: [py, idc]\n"), 0o644))

	out, err := c.run(t, "", "--settings", settingsPath, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "git:               /opt/git/bin/git")
	assert.Contains(t, out, "script extensions: .py, .idc")
}

func TestInitCommand_CreatesConfig(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "", "init", "--version", "750")
	require.NoError(t, err)
	assert.Contains(t, out, c.configPath()+" was created successfully!")

	version, err := configfile.New(c.configPath()).Version()
	require.NoError(t, err)
	assert.Equal(t, 750, version)
}

func TestInitCommand_DefaultVersion(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "", "init")
	require.NoError(t, err)

	data, err := os.ReadFile(c.configPath())
	require.NoError(t, err)
	assert.JSONEq(t, `{"plugins": [], "version": 700}`, string(data))
}

func TestInitCommand_ExistingDeclined(t *testing.T) {
	c := newCLI(t)
	c.initConfig(t, 750, "foo/bar")

	out, err := c.run(t, "n\n", "init")
	require.NoError(t, err)
	assert.Contains(t, out, c.configPath()+" already exists...")
	assert.Contains(t, out, "Do you want to install the plugins listed in "+c.configPath()+"? [y/n]: ")
	assert.Empty(t, c.runner.Calls())
}

func TestInitCommand_ExistingInstallsConfigured(t *testing.T) {
	c := newCLI(t)
	c.initConfig(t, 750, "foo/bar")
	c.scriptClone(t, "https://github.com/foo/bar.git", "foo/bar", map[string]string{"bar.py": "print('bar')"})

	out, err := c.run(t, "y\n", "init")
	require.NoError(t, err)
	assert.Contains(t, out, separator)
	assert.Contains(t, out, "Try: git clone https://github.com/foo/bar.git")
	assert.Contains(t, out, "Installed 1 plugins")

	target, err := os.Readlink(filepath.Join(c.pluginDir, "bar.py"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.managed, "foo", "bar", "bar.py"), target)
}

func TestInitCommand_AssumeYes(t *testing.T) {
	c := newCLI(t)
	c.initConfig(t, 750)

	out, err := c.run(t, "", "--yes", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "[y/n]: yes")
	assert.Contains(t, out, "Installed 0 plugins")
}

func TestInitCommand_ReportsFailedPlugins(t *testing.T) {
	c := newCLI(t)
	c.initConfig(t, 750, "foo/missing")
	dest := filepath.Join(c.managed, "foo", "missing")
	notFound := ports.CommandResult{ExitCode: 128, Stderr: "remote: Repository not found.\n"}
	c.runner.AddResult("git", []string{"clone", "--", "https://github.com/foo/missing.git", dest}, notFound)
	c.runner.AddResult("git", []string{"clone", "--", "git@github.com:foo/missing.git", dest}, notFound)

	out, err := c.run(t, "y\n", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 plugins could not be installed")
	assert.Contains(t, out, "Try: git clone git@github.com:foo/missing.git")
	assert.Contains(t, out, "foo/missing:")
}

func TestInstallCommand_FromGitHub(t *testing.T) {
	c := newCLI(t)
	store := c.initConfig(t, 750)
	c.scriptClone(t, "https://github.com/foo/bar.git", "foo/bar", map[string]string{
		"bar.py":          "print('bar')",
		"README.md":       "# bar",
		"helpers/util.py": "pass",
	})

	out, err := c.run(t, "", "install", "foo/bar")
	require.NoError(t, err)
	assert.Contains(t, out, "Try: git clone https://github.com/foo/bar.git")
	assert.Contains(t, out, "Symlink "+filepath.Join(c.managed, "foo", "bar", "bar.py"))
	assert.Contains(t, out, "Installed successfully!")

	_, err = os.Lstat(filepath.Join(c.pluginDir, "bar.py"))
	require.NoError(t, err)
	_, err = os.Lstat(filepath.Join(c.pluginDir, "helpers"))
	require.NoError(t, err)
	_, err = os.Lstat(filepath.Join(c.pluginDir, "README.md"))
	assert.True(t, os.IsNotExist(err))

	plugins, err := store.ListPlugins()
	require.NoError(t, err)
	assert.Equal(t, []string{"foo/bar"}, plugins)
}

func TestInstallCommand_AliasAndURL(t *testing.T) {
	c := newCLI(t)
	c.initConfig(t, 750)
	c.scriptClone(t, "https://github.com/foo/bar.git", "foo/bar", map[string]string{"bar.py": ""})

	out, err := c.run(t, "", "i", "https://github.com/foo/bar.git")
	require.NoError(t, err)
	assert.Contains(t, out, "Installed successfully!")
}

func TestInstallCommand_AlreadyConfiguredDeclined(t *testing.T) {
	c := newCLI(t)
	c.initConfig(t, 750, "foo/bar")

	out, err := c.run(t, "no\n", "install", "foo/bar")
	require.NoError(t, err)
	assert.Contains(t, out, "foo/bar already exists in config")
	assert.Contains(t, out, "Do you want to reinstall foo/bar? [y/n]: ")
	assert.Empty(t, c.runner.Calls())
}

func TestInstallCommand_AlreadyConfiguredReinstall(t *testing.T) {
	c := newCLI(t)
	c.initConfig(t, 750, "foo/bar")
	c.scriptClone(t, "https://github.com/foo/bar.git", "foo/bar", map[string]string{"bar.py": ""})

	out, err := c.run(t, "yes\n", "install", "foo/bar")
	require.NoError(t, err)
	assert.Contains(t, out, "Installed successfully!")
	assert.Len(t, c.runner.Calls(), 1)
}

func TestInstallCommand_WarnsOnCloneOfAnotherRepository(t *testing.T) {
	c := newCLI(t)
	c.initConfig(t, 750)
	dest := filepath.Join(c.managed, "o", "a_b")
	require.NoError(t, os.MkdirAll(filepath.Join(dest, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, ".git", "config"),
		[]byte("[remote \"origin\"]\n\turl = https://github.com/o/a_b.git\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "a_b.py"), nil, 0o644))

	out, err := c.run(t, "", "install", "o/a b")
	require.NoError(t, err)
	assert.Contains(t, out, "Already cloned: "+dest)
	assert.Contains(t, out, dest+" is a clone of https://github.com/o/a_b.git")
	assert.Empty(t, c.runner.Calls())
}

func TestInstallCommand_InvalidReference(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "", "install", "a//b")
	require.Error(t, err)
	assert.Empty(t, c.runner.Calls())
}

func TestInstallCommand_GitFailure(t *testing.T) {
	c := newCLI(t)
	c.initConfig(t, 750)
	dest := filepath.Join(c.managed, "foo", "bar")
	c.runner.AddResult("git", []string{"clone", "--", "https://github.com/foo/bar.git", dest},
		ports.CommandResult{ExitCode: 128, Stderr: "fatal: unable to access: Could not resolve host\n"})

	out, err := c.run(t, "", "install", "foo/bar")
	require.Error(t, err)
	assert.Contains(t, out, "Could not resolve host")
	assert.NotContains(t, out, "Installed successfully!")
}

func TestInstallCommand_Local(t *testing.T) {
	c := newCLI(t)
	c.initConfig(t, 750)
	src := filepath.Join(c.home, "src", "myplugin")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "mine.py"), []byte("pass"), 0o644))

	out, err := c.run(t, "", "install", "--local", src)
	require.NoError(t, err)
	assert.Contains(t, out, "Copy "+filepath.Join(src, "mine.py"))
	assert.Contains(t, out, "Installed successfully!")

	info, err := os.Lstat(filepath.Join(c.pluginDir, "mine.py"))
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())

	plugins, err := configfile.New(c.configPath()).ListPlugins()
	require.NoError(t, err)
	assert.Empty(t, plugins)
}

func TestInstallCommand_LocalSymlink(t *testing.T) {
	c := newCLI(t)
	c.initConfig(t, 750)
	src := filepath.Join(c.home, "src", "myplugin")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "mine.py"), []byte("pass"), 0o644))

	out, err := c.run(t, "", "install", "-l", "--symlink", src)
	require.NoError(t, err)
	assert.Contains(t, out, "Symlink ")

	target, err := os.Readlink(filepath.Join(c.pluginDir, "mine.py"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(src, "mine.py"), target)
}

func TestInstallCommand_LocalEmptyDirectory(t *testing.T) {
	c := newCLI(t)
	c.initConfig(t, 750)
	src := filepath.Join(c.home, "empty")
	require.NoError(t, os.MkdirAll(src, 0o755))

	out, err := c.run(t, "", "install", "--local", src)
	require.NoError(t, err)
	assert.Contains(t, out, "No scripts found in")
}

func TestInstallCommand_ModeFlagsRequireLocal(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "", "install", "--symlink", "foo/bar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only apply to --local")
	assert.Empty(t, c.runner.Calls())
}

func TestInstallCommand_ModeFlagsExclusive(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "", "install", "--local", "--symlink", "--copy", c.home)
	require.Error(t, err)
}

func TestInstallCommand_RequiresArgument(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "", "install")
	require.Error(t, err)
}

func TestListCommand(t *testing.T) {
	c := newCLI(t)
	c.initConfig(t, 750, "foo/bar", "L4ys/LazyIDA")
	for _, name := range []string{"bar.py", "plugins.cfg", "native.so", "zeta.py"} {
		require.NoError(t, os.MkdirAll(c.pluginDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(c.pluginDir, name), nil, 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(c.pluginDir, "bochs"), 0o755))

	out, err := c.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "List of scripts in IDA plugin directory:")
	assert.Contains(t, out, " - bar.py\n - zeta.py\n")
	assert.Contains(t, out, "List of plugins in config:")
	assert.Contains(t, out, " - foo/bar\n - L4ys/LazyIDA\n")
	assert.NotContains(t, out, "plugins.cfg")
	assert.NotContains(t, out, "native.so")
	assert.NotContains(t, out, "bochs")
	assert.Less(t, strings.Index(out, "zeta.py"), strings.Index(out, "List of plugins in config:"))
}

func TestListCommand_MissingPluginDir(t *testing.T) {
	c := newCLI(t)
	c.initConfig(t, 750)

	out, err := c.run(t, "", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "List of scripts in IDA plugin directory:")
	assert.Contains(t, out, "List of plugins in config:")
}

func TestCommandContext_DefaultsToBackground(t *testing.T) {
	cmd := &cobra.Command{}
	assert.NotNil(t, commandContext(cmd))
}

func TestPrintErrorTo(t *testing.T) {
	var buf bytes.Buffer
	printErrorTo(&buf, assert.AnError)
	assert.Contains(t, buf.String(), "Error:")
	assert.Contains(t, buf.String(), assert.AnError.Error())
}
