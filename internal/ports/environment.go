package ports

// Environment answers questions about the ambient process environment.
// Domain code asks it instead of calling runtime or os directly so that
// path resolution is a pure function of its inputs in tests.
type Environment interface {
	// GOOS returns the operating system name in runtime.GOOS form.
	GOOS() string
	HomeDir() (string, error)
	Getenv(key string) string
	// Environ returns the environment in "key=value" form.
	Environ() []string
}
