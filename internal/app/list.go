package app

import (
	"context"
	"errors"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/billow-vn/idapm/internal/domain/platform"
	"github.com/billow-vn/idapm/internal/ports"
)

// excludedEntries are plugin directory entries that ship with IDA or belong
// to idapm itself.
var excludedEntries = map[string]bool{
	"plugins.cfg":           true,
	"bochs":                 true,
	platform.ManagedDirName: true,
	"platformthemes":        true,
	"hexrays_sdk":           true,
}

// Listing is the content of the plugin directory next to the config.
type Listing struct {
	PluginDir string
	// Scripts are plugin directory entries that are not part of IDA.
	Scripts []string
	// Configured are the identities recorded in the config.
	Configured []string
}

// List reports the user entries of the plugin directory and the configured
// plugins. It never modifies the plugin directory.
func (i *Installer) List(ctx context.Context) (*Listing, error) {
	pluginDir, err := i.PluginDir()
	if err != nil {
		return nil, err
	}
	listing := &Listing{PluginDir: pluginDir, Scripts: []string{}, Configured: []string{}}

	entries, err := i.fs.ReadDir(pluginDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		i.logger.Debug(ctx, "plugin directory does not exist", ports.F("path", pluginDir))
	case err != nil:
		return nil, err
	}

	osKind := i.resolver.OS()
	for _, e := range entries {
		if excludedEntries[e.Name] || isNative(osKind, e.Name) {
			continue
		}
		listing.Scripts = append(listing.Scripts, e.Name)
	}
	sort.Strings(listing.Scripts)

	if i.config.Exists() {
		configured, err := i.config.ListPlugins()
		if err != nil {
			return nil, err
		}
		listing.Configured = configured
	}
	return listing, nil
}

// isNative reports whether name is one of IDA's native modules. Windows
// file names are compared case-insensitively.
func isNative(osKind platform.OS, name string) bool {
	if osKind == platform.OSWindows {
		name = cases.Fold().String(name)
	}
	for _, ext := range osKind.NativeExtensions() {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
