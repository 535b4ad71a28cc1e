package repository

import (
	"errors"
	"fmt"
)

// InvalidReferenceError indicates user input that names no repository.
type InvalidReferenceError struct {
	Input  string
	Reason string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid repository reference %q: %s", e.Input, e.Reason)
}

// IsInvalidReference returns true if the error is an InvalidReferenceError.
func IsInvalidReference(err error) bool {
	var invalid *InvalidReferenceError
	return errors.As(err, &invalid)
}

// PathTraversalError indicates an identity that would escape the clone root.
type PathTraversalError struct {
	Identity string
	Segment  string
}

func (e *PathTraversalError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("identity %q contains an empty path segment", e.Identity)
	}
	return fmt.Sprintf("identity %q contains forbidden path segment %q", e.Identity, e.Segment)
}

// IsPathTraversal returns true if the error is a PathTraversalError.
func IsPathTraversal(err error) bool {
	var traversal *PathTraversalError
	return errors.As(err, &traversal)
}
