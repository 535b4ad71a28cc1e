package ports

// DefaultVersion is the IDA version assumed when none is stored.
const DefaultVersion = 700

// ConfigStore persists the requested plugin identities and the IDA version.
type ConfigStore interface {
	Path() string
	Exists() bool
	Initialize(version int) error
	Version() (int, error)
	// SetVersion raises the stored version. Lower values are ignored and
	// the result never drops below DefaultVersion.
	SetVersion(version int) error
	// ListPlugins returns the deduplicated plugin set, persisting the
	// deduplication.
	ListPlugins() ([]string, error)
	// AddPlugin reports false if id was already present.
	AddPlugin(id string) (bool, error)
	ContainsPlugin(id string) (bool, error)
}
