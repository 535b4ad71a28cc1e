package mocks

import (
	"errors"
	"sort"

	"github.com/billow-vn/idapm/internal/ports"
)

// Environment is a fixed ports.Environment.
type Environment struct {
	OS   string
	Home string
	Vars map[string]string
}

// NewEnvironment creates an Environment for goos with the given home.
func NewEnvironment(goos, home string) *Environment {
	return &Environment{OS: goos, Home: home, Vars: map[string]string{}}
}

// GOOS returns the configured operating system.
func (e *Environment) GOOS() string {
	return e.OS
}

// HomeDir returns the configured home, or an error when none is set.
func (e *Environment) HomeDir() (string, error) {
	if e.Home == "" {
		return "", errors.New("$HOME is not defined")
	}
	return e.Home, nil
}

// Getenv returns a configured variable.
func (e *Environment) Getenv(key string) string {
	return e.Vars[key]
}

// Environ returns the configured variables sorted by key.
func (e *Environment) Environ() []string {
	out := make([]string, 0, len(e.Vars))
	for k, v := range e.Vars {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// Setenv sets a variable and returns the receiver.
func (e *Environment) Setenv(key, value string) *Environment {
	e.Vars[key] = value
	return e
}

var _ ports.Environment = (*Environment)(nil)
