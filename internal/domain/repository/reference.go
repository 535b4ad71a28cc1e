// Package repository turns user input into a canonical repository identity
// and clone URL.
package repository

import (
	"regexp"
	"strings"
)

// DefaultHost is the host used for references given without a URL.
const DefaultHost = "github.com"

// fullURLPattern matches https://<host>/<owner>/<name>[.git] and
// git@<host>:<owner>/<name>[.git].
var fullURLPattern = regexp.MustCompile(`^(?:https://[^/]+/|git@[^:]+:)([^/]+/[^/]+?)(?:\.git)?$`)

// Reference is a canonical repository identity and the URL to clone it from.
type Reference struct {
	// Identity is "owner/name", without scheme, host or ".git" suffix.
	Identity string
	CloneURL string
	// Explicit is true when the input was a full URL. Conventional
	// references are the only ones retried over SSH.
	Explicit bool
}

// Parse converts a short name, "owner/name" or full clone URL into a
// Reference. It performs no I/O.
func Parse(input string) (Reference, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Reference{}, &InvalidReferenceError{Input: input, Reason: "empty"}
	}

	if m := fullURLPattern.FindStringSubmatch(trimmed); m != nil {
		return Reference{Identity: m[1], CloneURL: trimmed, Explicit: true}, nil
	}

	identity := strings.TrimSuffix(strings.TrimSuffix(trimmed, "/"), ".git")
	if !strings.Contains(identity, "/") {
		identity = identity + "/" + identity
	}
	if strings.HasPrefix(identity, "/") || strings.Contains(identity, "//") {
		return Reference{}, &InvalidReferenceError{Input: input, Reason: "expected owner/name"}
	}

	return Reference{
		Identity: identity,
		CloneURL: "https://" + DefaultHost + "/" + identity + ".git",
	}, nil
}

// MustParse is like Parse but panics on error. For tests and constants.
func MustParse(input string) Reference {
	ref, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return ref
}

// SSH returns the SSH clone URL for the identity on DefaultHost.
func (r Reference) SSH() string {
	return "git@" + DefaultHost + ":" + r.Identity + ".git"
}

// WithSSH returns a copy of r that clones over SSH.
func (r Reference) WithSSH() Reference {
	r.CloneURL = r.SSH()
	return r
}

// Owner returns the first identity segment.
func (r Reference) Owner() string {
	owner, _, _ := strings.Cut(r.Identity, "/")
	return owner
}

// Name returns the last identity segment.
func (r Reference) Name() string {
	if i := strings.LastIndex(r.Identity, "/"); i >= 0 {
		return r.Identity[i+1:]
	}
	return r.Identity
}

func (r Reference) String() string {
	return r.Identity
}
