package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installed and configured plugins",
	Long: `List the entries of IDA's plugin directory that do not ship with IDA,
followed by the repositories recorded in the idapm config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runList(cmd)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	listing, err := s.installer.List(commandContext(cmd))
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, headingStyle.Render("List of scripts in IDA plugin directory:"))
	for _, name := range listing.Scripts {
		fmt.Fprintf(s.out, " - %s\n", name)
	}

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, headingStyle.Render("List of plugins in config:"))
	for _, id := range listing.Configured {
		fmt.Fprintf(s.out, " - %s\n", id)
	}
	return nil
}
