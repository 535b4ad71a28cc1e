package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/billow-vn/idapm/internal/adapters/command"
	"github.com/billow-vn/idapm/internal/adapters/configfile"
	"github.com/billow-vn/idapm/internal/adapters/environment"
	"github.com/billow-vn/idapm/internal/adapters/filesystem"
	"github.com/billow-vn/idapm/internal/adapters/logging"
	"github.com/billow-vn/idapm/internal/adapters/prompt"
	"github.com/billow-vn/idapm/internal/app"
	"github.com/billow-vn/idapm/internal/domain/settings"
	"github.com/billow-vn/idapm/internal/ports"
)

var (
	// Global flags
	cfgFile      string
	settingsFile string
	verbose      bool
	logJSON      bool
	yesFlag      bool
)

// Collaborators replaced in tests.
var (
	newEnvironment   = func() ports.Environment { return environment.New() }
	newCommandRunner = func() ports.CommandRunner { return command.NewRealRunner() }
)

var rootCmd = &cobra.Command{
	Use:   "idapm",
	Short: "IDA Pro plugin manager",
	Long: `idapm installs IDA Pro plugins from GitHub repositories or local
directories and keeps track of them in ~/idapm.json.

Repositories are cloned next to IDA's plugin directory and their scripts
are linked into it, so a later git pull updates the plugin in place.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "plugin record file (default: ~/idapm.json)")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "settings file (default: ~/.idapm/settings.yaml or .toml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "auto-confirm all prompts")

	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
	})
	_ = rootCmd.RegisterFlagCompletionFunc("settings", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	rootCmd.AddCommand(versionCmd)
}

// session bundles what a command needs to run.
type session struct {
	installer *app.Installer
	config    ports.ConfigStore
	prompter  ports.Prompter
	logger    ports.Logger
	out       io.Writer
}

// newSession wires the real adapters according to the global flags.
func newSession(cmd *cobra.Command) (*session, error) {
	logger := newLogger(cmd.ErrOrStderr())

	env := newEnvironment()
	fs := filesystem.NewRealFileSystem()

	s, err := settings.Load(fs, env, settingsFile)
	if err != nil {
		return nil, err
	}
	if s.Source != "" {
		logger.Debug(cmd.Context(), "settings loaded", ports.F("path", s.Source))
	}

	path := cfgFile
	if path == "" {
		path, err = configfile.DefaultPath(env)
		if err != nil {
			return nil, err
		}
	}
	store := configfile.New(ports.ExpandPath(path))

	installer := app.NewInstaller(app.Deps{
		Env:      env,
		FS:       fs,
		Runner:   newCommandRunner(),
		Config:   store,
		Logger:   logger,
		Settings: s,
	})

	return &session{
		installer: installer,
		config:    store,
		prompter: prompt.New(cmd.InOrStdin(), cmd.OutOrStdout(),
			prompt.WithAssumeYes(yesFlag),
			prompt.WithLogger(logger)),
		logger: logger,
		out:    cmd.OutOrStdout(),
	}, nil
}

func newLogger(w io.Writer) ports.Logger {
	level := ports.LevelWarn
	if verbose {
		level = ports.LevelDebug
	}
	return logging.NewConsoleLogger(
		logging.WithOutput(w),
		logging.WithLevel(level),
		logging.WithJSONFormat(logJSON),
		logging.WithTimestamp(logJSON),
		logging.WithColor(!logJSON && isTerminal(w)),
	)
}

// commandContext returns the command's context, or Background when the
// command runs without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "%s %s\n", errorStyle.Render("Error:"), err)
}
