package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/billow-vn/idapm/internal/domain/projector"
)

var (
	installLocal   bool
	installSymlink bool
	installCopy    bool
)

var installCmd = &cobra.Command{
	Use:     "install <plugin>",
	Aliases: []string{"i"},
	Short:   "Install a plugin from GitHub or a local directory",
	Long: `Install a plugin from a GitHub repository or, with --local, from a
directory on disk.

A repository is cloned into the idapm directory next to IDA's plugin
directory and its scripts are symlinked into the plugin directory. The
repository is then recorded in the idapm config.

Examples:
  idapm install L4ys/LazyIDA
  idapm install https://github.com/L4ys/LazyIDA.git
  idapm install git@github.com:L4ys/LazyIDA.git
  idapm install --local ./my-plugin
  idapm install --local --symlink ~/src/my-plugin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !installLocal && (installSymlink || installCopy) {
			return errors.New("--symlink and --copy only apply to --local installs")
		}
		if installLocal {
			mode := projector.Copy
			if installSymlink {
				mode = projector.Symlink
			}
			return runInstallLocal(cmd, args[0], mode)
		}
		return runInstall(cmd, args[0])
	},
}

func init() {
	installCmd.Flags().BoolVarP(&installLocal, "local", "l", false, "install from a local directory")
	installCmd.Flags().BoolVar(&installSymlink, "symlink", false, "link local scripts instead of copying them")
	installCmd.Flags().BoolVar(&installCopy, "copy", false, "copy local scripts (default for --local)")
	installCmd.MarkFlagsMutuallyExclusive("symlink", "copy")

	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, plugin string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	configured, err := s.installer.Configured(plugin)
	if err != nil {
		return err
	}
	if configured {
		fmt.Fprintln(s.out, warnStyle.Render(fmt.Sprintf("%s already exists in config", plugin)))
		ok, err := s.prompter.Confirm(ctx, fmt.Sprintf("Do you want to reinstall %s?", plugin))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	fmt.Fprintln(s.out, separator)
	res, err := s.installer.InstallFromGitHub(ctx, plugin)
	printAttempts(s.out, res)
	if err != nil {
		return err
	}
	printReport(s.out, res.Report)

	if res.Report.HasFailures() {
		return fmt.Errorf("%d entries of %s could not be installed", len(res.Report.Failed()), res.Reference.Identity)
	}
	fmt.Fprintln(s.out, successStyle.Render("Installed successfully!"))
	return nil
}

func runInstallLocal(cmd *cobra.Command, dir string, mode projector.Mode) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	res, err := s.installer.InstallFromLocal(commandContext(cmd), dir, mode)
	if err != nil {
		return err
	}
	printReport(s.out, res.Report)

	if res.Report.HasFailures() {
		return fmt.Errorf("%d entries of %s could not be installed", len(res.Report.Failed()), dir)
	}
	fmt.Fprintln(s.out, successStyle.Render("Installed successfully!"))
	return nil
}
