// Package environment provides the process-backed ports.Environment.
package environment

import (
	"os"
	"runtime"

	"github.com/billow-vn/idapm/internal/ports"
)

// OS reads the live process environment.
type OS struct{}

// New creates an OS environment.
func New() *OS {
	return &OS{}
}

// GOOS returns runtime.GOOS.
func (OS) GOOS() string {
	return runtime.GOOS
}

// HomeDir returns the current user's home directory.
func (OS) HomeDir() (string, error) {
	return os.UserHomeDir()
}

// Getenv returns the value of an environment variable.
func (OS) Getenv(key string) string {
	return os.Getenv(key)
}

// Environ returns the process environment.
func (OS) Environ() []string {
	return os.Environ()
}

var _ ports.Environment = (*OS)(nil)
