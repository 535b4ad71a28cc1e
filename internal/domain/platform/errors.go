package platform

import (
	"errors"
	"fmt"
)

// UnsupportedError indicates idapm has no plugin directory layout for the OS.
type UnsupportedError struct {
	GOOS string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported operating system %q", e.GOOS)
}

// IsUnsupported returns true if the error indicates an unsupported OS.
func IsUnsupported(err error) bool {
	var unsupported *UnsupportedError
	return errors.As(err, &unsupported)
}

// HomeNotFoundError indicates no IDA installation matched the search pattern.
type HomeNotFoundError struct {
	Pattern string
}

func (e *HomeNotFoundError) Error() string {
	return fmt.Sprintf("IDA installation not found (searched %s)", e.Pattern)
}

// IsHomeNotFound returns true if the error indicates IDA could not be located.
func IsHomeNotFound(err error) bool {
	var notFound *HomeNotFoundError
	return errors.As(err, &notFound)
}
