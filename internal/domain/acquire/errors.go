package acquire

import (
	"errors"
	"fmt"
)

// GitNotFoundError indicates git is not installed or not in PATH.
type GitNotFoundError struct {
	Path string
}

func (e *GitNotFoundError) Error() string {
	if e.Path != "" && e.Path != DefaultGitPath {
		return fmt.Sprintf("git not found at %s", e.Path)
	}
	return "git not found: please install git and ensure it is in your PATH"
}

// IsGitNotFound returns true if the error indicates git is not available.
func IsGitNotFound(err error) bool {
	var gitErr *GitNotFoundError
	return errors.As(err, &gitErr)
}

// CloneError describes a clone that did not produce a usable repository.
type CloneError struct {
	URL     string
	Outcome Outcome
	Reason  string
}

func (e *CloneError) Error() string {
	switch e.Outcome {
	case NotFound:
		return fmt.Sprintf("repository not found: %s", e.URL)
	case Conflict:
		return fmt.Sprintf("clone destination for %s already exists and is not empty", e.URL)
	}
	if e.Reason != "" {
		return fmt.Sprintf("git clone failed for %s: %s", e.URL, e.Reason)
	}
	return fmt.Sprintf("git clone failed for %s", e.URL)
}

// IsCloneError returns true if the error is a clone failure.
func IsCloneError(err error) bool {
	var cloneErr *CloneError
	return errors.As(err, &cloneErr)
}

// IsNotFound returns true if the error is a clone failure because the
// remote repository does not exist.
func IsNotFound(err error) bool {
	var cloneErr *CloneError
	return errors.As(err, &cloneErr) && cloneErr.Outcome == NotFound
}
