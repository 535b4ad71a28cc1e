package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/billow-vn/idapm/internal/app"
	"github.com/billow-vn/idapm/internal/ports"
)

var initVersion int

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the idapm config",
	Long: `Create ~/idapm.json for the given IDA version.

When the config already exists, a higher --version is stored and idapm
offers to install every plugin recorded in it, which is how a plugin set
is restored on a new machine.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runInit(cmd, initVersion)
	},
}

func init() {
	initCmd.Flags().IntVarP(&initVersion, "version", "v", ports.DefaultVersion, "IDA version, e.g. 750 for IDA 7.5")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, idaVersion int) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	created, err := s.installer.Init(ctx, idaVersion)
	if err != nil {
		return fmt.Errorf("creation of %s failed: %w", s.config.Path(), err)
	}
	if created {
		fmt.Fprintln(s.out, successStyle.Render(fmt.Sprintf("%s was created successfully!", s.config.Path())))
		return nil
	}

	fmt.Fprintf(s.out, "%s already exists...\n", s.config.Path())

	ok, err := s.prompter.Confirm(ctx, fmt.Sprintf("Do you want to install the plugins listed in %s?", s.config.Path()))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	results, err := s.installer.InstallConfigured(ctx)
	for _, r := range results {
		fmt.Fprintln(s.out, separator)
		printAttempts(s.out, r.Result)
		if r.Err != nil {
			printErrorTo(s.out, fmt.Errorf("%s: %w", r.Identity, r.Err))
			continue
		}
		printReport(s.out, r.Result.Report)
	}
	if err != nil {
		return err
	}

	if failed := app.Failed(results); len(failed) > 0 {
		return fmt.Errorf("%d of %d plugins could not be installed", len(failed), len(results))
	}
	fmt.Fprintln(s.out, successStyle.Render(fmt.Sprintf("Installed %d plugins", len(results))))
	return nil
}
