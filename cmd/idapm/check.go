package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show the IDA plugin directory and idapm config",
	Long: `Show where idapm installs plugins, which IDA version it assumes and
where the plugin record lives.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCheck(cmd)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	st, err := s.installer.Check()
	if err != nil {
		return err
	}

	pluginDir := st.PluginDir
	if st.PluginDirErr != nil {
		pluginDir = errorStyle.Render(st.PluginDirErr.Error())
	}
	configPath := st.ConfigPath
	if !st.ConfigExists {
		configPath += mutedStyle.Render(" (not created, run `idapm init`)")
	}

	fmt.Fprintf(s.out, "Platform:          %s\n", st.OS)
	fmt.Fprintf(s.out, "IDA plugin dir:    %s\n", pluginDir)
	fmt.Fprintf(s.out, "IDA version:       %d\n", st.Version)
	fmt.Fprintf(s.out, "idapm config path: %s\n", configPath)
	fmt.Fprintf(s.out, "git:               %s\n", st.GitPath)
	fmt.Fprintf(s.out, "script extensions: %s\n", strings.Join(st.Extensions, ", "))
	return nil
}
