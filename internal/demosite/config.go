package demosite

// Config holds configuration for the demo site.
type Config struct {
	// Port is the port on which the demo site listens.
	Port int

	// InitialStage is the tracking stage served at startup (default: 1).
	InitialStage int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:         9999,
		InitialStage: 1,
	}
}
