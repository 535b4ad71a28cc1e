package repository

import (
	"path/filepath"
	"strings"
)

// Sanitize maps an identity onto a relative path that is safe both as a
// filesystem location and as a command argument. Every byte outside
// [A-Za-z0-9._-] becomes '_', and "", "." and ".." segments are rejected.
func Sanitize(identity string) (string, error) {
	segments := strings.Split(identity, "/")
	for i, seg := range segments {
		switch seg {
		case "", ".", "..":
			return "", &PathTraversalError{Identity: identity, Segment: seg}
		}
		segments[i] = sanitizeSegment(seg)
	}
	return filepath.Join(segments...), nil
}

func sanitizeSegment(seg string) string {
	b := []byte(seg)
	for i, c := range b {
		if !safeByte(c) {
			b[i] = '_'
		}
	}
	out := string(b)
	// A leading '-' would be read as an option by most tools.
	if strings.HasPrefix(out, "-") {
		out = "_" + out[1:]
	}
	return out
}

func safeByte(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '.' || c == '_' || c == '-'
}
