package config

// ServiceConfig defines the configuration lifecycle every section follows.
type ServiceConfig interface {
	// ApplyDefaults fills zero values with sensible defaults
	ApplyDefaults()

	// ApplyEnvOverrides applies environment variable overrides
	ApplyEnvOverrides()

	// ResolvePaths resolves relative paths against configDir.
	ResolvePaths(configDir string)

	// Validate returns an error if the configuration is invalid.
	Validate() error
}

// ApplyServiceConfigs runs ApplyDefaults, ApplyEnvOverrides, ResolvePaths and
// Validate on each config in order, stopping at the first invalid one.
func ApplyServiceConfigs(configDir string, configs ...ServiceConfig) error {
	for _, cfg := range configs {
		cfg.ApplyDefaults()
		cfg.ApplyEnvOverrides()
		cfg.ResolvePaths(configDir)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}
