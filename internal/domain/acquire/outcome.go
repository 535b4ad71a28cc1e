package acquire

import (
	"strings"

	"github.com/billow-vn/idapm/internal/ports"
)

// Outcome classifies one acquisition attempt.
type Outcome int

const (
	// Cloned means git created the repository.
	Cloned Outcome = iota
	// AlreadyPresent means the destination existed and git was not run.
	AlreadyPresent
	// NotFound means the remote repository does not exist or is not visible.
	NotFound
	// Conflict means the destination is a non-empty directory git will not
	// clone into.
	Conflict
	// ClientError is any other git failure.
	ClientError
)

func (o Outcome) String() string {
	switch o {
	case Cloned:
		return "cloned"
	case AlreadyPresent:
		return "already present"
	case NotFound:
		return "not found"
	case Conflict:
		return "conflict"
	case ClientError:
		return "client error"
	default:
		return "unknown"
	}
}

// Usable reports whether the destination holds a repository afterwards.
func (o Outcome) Usable() bool {
	return o == Cloned || o == AlreadyPresent
}

// Markers git prints on stderr. Matching is case-insensitive.
var (
	notFoundMarkers = []string{
		"repository not found",
		// GitHub asks for credentials instead of answering 404 over HTTPS;
		// with prompts disabled git reports this.
		"could not read username",
	}
	conflictMarkers = []string{
		"already exists and is not an empty directory",
	}
)

// Classify maps the captured output of a git clone to an Outcome.
func Classify(result ports.CommandResult) Outcome {
	stderr := strings.ToLower(result.Stderr)
	for _, m := range notFoundMarkers {
		if strings.Contains(stderr, m) {
			return NotFound
		}
	}
	for _, m := range conflictMarkers {
		if strings.Contains(stderr, m) {
			return Conflict
		}
	}
	if !result.Success() {
		return ClientError
	}
	return Cloned
}
