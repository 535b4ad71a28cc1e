//go:build !windows

package filesystem

import (
	"fmt"
	"os"
)

// CreateLink symlinks link to target. Files and directories are linked the
// same way.
func (r *RealFileSystem) CreateLink(target, link string) error {
	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("failed to create link %q -> %q: %w", link, target, err)
	}
	return nil
}
