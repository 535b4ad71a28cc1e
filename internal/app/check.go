package app

import (
	"github.com/billow-vn/idapm/internal/domain/platform"
)

// Status summarizes where idapm reads and writes.
type Status struct {
	OS           platform.OS
	PluginDir    string
	PluginDirErr error
	Version      int
	ConfigPath   string
	ConfigExists bool
	GitPath      string
	Extensions   []string
}

// Check reports the resolved paths and stored version. Resolution failures
// are recorded in the Status rather than returned, so that the remaining
// fields are still shown.
func (i *Installer) Check() (*Status, error) {
	version, err := i.Version()
	if err != nil {
		return nil, err
	}

	st := &Status{
		OS:           i.resolver.OS(),
		Version:      version,
		ConfigPath:   i.config.Path(),
		ConfigExists: i.config.Exists(),
		GitPath:      i.acquirer.GitPath(),
		Extensions:   i.projector.Extensions(),
	}
	st.PluginDir, st.PluginDirErr = i.resolver.PluginDir(version)
	return st, nil
}
