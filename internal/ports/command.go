// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"strings"
)

// Command describes a process invocation. Args are passed to the process
// verbatim; nothing is ever interpreted by a shell.
type Command struct {
	Name string
	Args []string
	// Env replaces the inherited environment when non-nil.
	Env []string
	Dir string
}

// String returns the command line for display.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// CommandResult represents the result of executing a command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
	Env     []string
}

// CommandRunner executes commands and waits for them to exit, returning
// their complete output.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (CommandResult, error)
}
