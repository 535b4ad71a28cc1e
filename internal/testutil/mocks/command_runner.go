// Package mocks provides test doubles for the ports interfaces.
package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/billow-vn/idapm/internal/ports"
)

// CommandRunner is a thread-safe test double for ports.CommandRunner.
// Results are scripted per command line; actions let a scripted command
// mimic side effects such as git creating its target directory.
type CommandRunner struct {
	mu      sync.RWMutex
	results map[string]ports.CommandResult
	errors  map[string]error
	actions map[string]func(ports.Command)
	calls   []ports.CommandCall
}

// NewCommandRunner creates a new CommandRunner mock.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		results: make(map[string]ports.CommandResult),
		errors:  make(map[string]error),
		actions: make(map[string]func(ports.Command)),
		calls:   make([]ports.CommandCall, 0),
	}
}

// AddResult registers an expected command and its result.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[buildKey(command, args)] = result
}

// AddError registers an expected command that should fail to start.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[buildKey(command, args)] = err
}

// AddAction registers a side effect run before the command's result is
// returned.
func (m *CommandRunner) AddAction(command string, args []string, fn func(ports.Command)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[buildKey(command, args)] = fn
}

// Run executes a mock command.
func (m *CommandRunner) Run(_ context.Context, cmd ports.Command) (ports.CommandResult, error) {
	key := buildKey(cmd.Name, cmd.Args)

	m.mu.Lock()
	m.calls = append(m.calls, ports.CommandCall{
		Command: cmd.Name,
		Args:    append([]string(nil), cmd.Args...),
		Env:     append([]string(nil), cmd.Env...),
	})
	action := m.actions[key]
	err, hasErr := m.errors[key]
	result, hasResult := m.results[key]
	m.mu.Unlock()

	if hasErr {
		return ports.CommandResult{}, err
	}
	if !hasResult {
		return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s", cmd)
	}
	if action != nil {
		action(cmd)
	}
	return result, nil
}

// Calls returns all recorded command invocations.
func (m *CommandRunner) Calls() []ports.CommandCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns how many times the given command line was run.
func (m *CommandRunner) CallCount(command string, args ...string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := buildKey(command, args)
	n := 0
	for _, c := range m.calls {
		if buildKey(c.Command, c.Args) == key {
			n++
		}
	}
	return n
}

func buildKey(command string, args []string) string {
	return command + "\x00" + strings.Join(args, "\x00")
}

// Ensure CommandRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*CommandRunner)(nil)
