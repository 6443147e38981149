package config

// Global configuration variables set from persistent CLI flags
var (
	// ConfigPath is the path to the configuration file
	ConfigPath = DefaultConfigPath

	// RootOverride replaces registry.root when set with --root
	RootOverride string

	// LogLevelOverride replaces log.level when set with --log-level
	LogLevelOverride string

	// LogFileOverride replaces log.file when set with --log-file
	LogFileOverride string

	// Plain disables spinners, colors and prompts
	Plain bool
)

// Load reads ConfigPath and applies the flag overrides.
func Load() (*Config, error) {
	cfg, err := LoadConfig(ConfigPath)
	if err != nil {
		return nil, err
	}
	if RootOverride != "" {
		cfg.Registry.Root = ExpandHome(RootOverride)
	}
	if LogLevelOverride != "" {
		cfg.Log.Level = LogLevelOverride
	}
	if LogFileOverride != "" {
		cfg.Log.File = ExpandHome(LogFileOverride)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
