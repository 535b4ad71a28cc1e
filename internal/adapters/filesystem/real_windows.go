//go:build windows

package filesystem

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"unicode/utf16"
)

const (
	reparseTagMountPoint = 0xA0000003
	fsctlSetReparsePoint = 0x000900A4
)

// CreateLink links a plugin entry into the plugin directory. Directories
// get a junction, which needs no elevation. Files get a symlink, which
// needs Developer Mode or an elevated shell.
func (r *RealFileSystem) CreateLink(target, link string) error {
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return createJunction(target, link)
	}
	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("failed to create link %q -> %q: %w", link, target, err)
	}
	return nil
}

// createJunction turns a new empty directory at link into a mount point
// for target. The directory is removed again if that fails.
func createJunction(target, link string) error {
	abs, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("failed to resolve junction target %q: %w", target, err)
	}

	if err := os.Mkdir(link, 0o755); err != nil {
		return fmt.Errorf("failed to create junction %q: %w", link, err)
	}
	if err := setMountPoint(link, abs); err != nil {
		_ = os.Remove(link)
		return fmt.Errorf("failed to create junction %q -> %q: %w", link, target, err)
	}
	return nil
}

func setMountPoint(dir, target string) error {
	name, err := syscall.UTF16PtrFromString(dir)
	if err != nil {
		return err
	}
	handle, err := syscall.CreateFile(
		name,
		syscall.GENERIC_WRITE,
		0,
		nil,
		syscall.OPEN_EXISTING,
		syscall.FILE_FLAG_BACKUP_SEMANTICS|syscall.FILE_FLAG_OPEN_REPARSE_POINT,
		0,
	)
	if err != nil {
		return err
	}
	defer syscall.CloseHandle(handle)

	buf := mountPointBuffer(`\??\`+target, target)
	var returned uint32
	return syscall.DeviceIoControl(handle, fsctlSetReparsePoint, &buf[0], uint32(len(buf)), nil, 0, &returned, nil)
}

// mountPointBuffer encodes a REPARSE_DATA_BUFFER for a mount point. Both
// names are stored NUL-terminated, substitute name first.
func mountPointBuffer(substitute, print string) []byte {
	sub := utf16.Encode([]rune(substitute))
	prn := utf16.Encode([]rune(print))

	subLen := uint16(len(sub) * 2)
	prnLen := uint16(len(prn) * 2)
	pathLen := subLen + 2 + prnLen + 2

	buf := make([]byte, 16+int(pathLen))
	le := binary.LittleEndian
	le.PutUint32(buf[0:], reparseTagMountPoint)
	le.PutUint16(buf[4:], 8+pathLen)
	le.PutUint16(buf[8:], 0)
	le.PutUint16(buf[10:], subLen)
	le.PutUint16(buf[12:], subLen+2)
	le.PutUint16(buf[14:], prnLen)

	off := 16
	for _, u := range sub {
		le.PutUint16(buf[off:], u)
		off += 2
	}
	off += 2
	for _, u := range prn {
		le.PutUint16(buf[off:], u)
		off += 2
	}
	return buf
}
