package pipeline

// Config holds pipeline configuration. It is an extension point: the
// modeled pipeline has no tunable options yet, so every value is valid.
type Config struct{}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return nil
}
