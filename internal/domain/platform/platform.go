// Package platform locates the IDA installation and its plugin directory
// for each supported operating system.
package platform

import (
	"strings"
)

// OS represents the operating system type.
type OS string

const (
	// OSDarwin is macOS.
	OSDarwin OS = "darwin"
	// OSLinux is Linux.
	OSLinux OS = "linux"
	// OSWindows is Windows.
	OSWindows OS = "windows"
	// OSUnsupported is any other operating system.
	OSUnsupported OS = "unsupported"
)

// FromGOOS maps a runtime.GOOS value to an OS.
func FromGOOS(goos string) OS {
	switch strings.ToLower(goos) {
	case "darwin":
		return OSDarwin
	case "linux":
		return OSLinux
	case "windows":
		return OSWindows
	default:
		return OSUnsupported
	}
}

// Supported reports whether idapm knows where IDA lives on this OS.
func (o OS) Supported() bool {
	return o == OSDarwin || o == OSLinux || o == OSWindows
}

// String returns a human-readable name.
func (o OS) String() string {
	switch o {
	case OSDarwin:
		return "macOS"
	case OSLinux:
		return "Linux"
	case OSWindows:
		return "Windows"
	default:
		return "unsupported"
	}
}

// NativeExtensions lists the file extensions of IDA's own native modules in
// the plugin directory. They are never user plugins.
func (o OS) NativeExtensions() []string {
	switch o {
	case OSDarwin:
		return []string{".dylib", ".h"}
	case OSWindows:
		return []string{".dll"}
	case OSLinux:
		return []string{".so"}
	default:
		return nil
	}
}
