package server

// Config configures the API server.
type Config struct {
	// Addr is the HTTP listen address of the API server.
	Addr string `json:"addr" yaml:"addr" validate:"required"`

	// AllowedOrigins are the CORS origins allowed to call the API. An empty
	// list allows localhost only.
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
}

// DefaultConfig listens on localhost:8080.
func DefaultConfig() Config {
	return Config{Addr: "localhost:8080"}
}
