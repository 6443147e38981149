package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/ignitionstack/modelreg/pkg/registry"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultConfigPath is the default path to the config file
	DefaultConfigPath = "~/.modelreg/config.yaml"

	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "MODELREG_"

	IndexBackendFile   = "file"
	IndexBackendBadger = "badger"
)

// Config holds all configuration for modelreg
type Config struct {
	Registry RegistryConfig `koanf:"registry" validate:"required"`
	Log      LogConfig      `koanf:"log"`
	Cleanup  CleanupConfig  `koanf:"cleanup"`
}

// RegistryConfig locates the registry and picks its index backend
type RegistryConfig struct {
	// Root directory holding the index and the version units
	Root string `koanf:"root" validate:"required"`

	// Index backend, either file (index.json) or badger (index.db/)
	IndexBackend string `koanf:"index_backend" validate:"oneof=file badger"`

	// How long a writer waits for the registry lock
	LockTimeout time.Duration `koanf:"lock_timeout" validate:"gt=0"`

	// File name of the artifact inside each unit
	ArtifactName string `koanf:"artifact_name" validate:"required,excludesall=/"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	File  string `koanf:"file"`
}

// CleanupConfig is the default retention policy used by `modelreg cleanup`
// when no policy flags are given.
type CleanupConfig struct {
	// Zero disables the filter
	KeepLastN int `koanf:"keep_last_n" validate:"gte=0"`

	MaxAge time.Duration `koanf:"max_age" validate:"gte=0"`

	// Metric name for the threshold filter; empty disables it
	MinMetric string  `koanf:"min_metric"`
	MinValue  float64 `koanf:"min_value"`

	// Period of the scheduled cleanup loop
	Interval time.Duration `koanf:"interval" validate:"gt=0"`
}

// Policy converts the configured defaults into a registry cleanup policy.
func (c CleanupConfig) Policy() registry.CleanupPolicy {
	var p registry.CleanupPolicy
	if c.KeepLastN > 0 {
		p.KeepLastN = registry.KeepLast(c.KeepLastN)
	}
	p.MaxAge = c.MaxAge
	if c.MinMetric != "" {
		p.MinMetric = &registry.MetricThreshold{Name: c.MinMetric, Min: c.MinValue}
	}
	return p
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return &Config{
		Registry: RegistryConfig{
			Root:         filepath.Join(homeDir, ".modelreg", "registry"),
			IndexBackend: IndexBackendFile,
			LockTimeout:  10 * time.Second,
			ArtifactName: "model.bin",
		},
		Log: LogConfig{
			Level: "info",
		},
		Cleanup: CleanupConfig{
			Interval: time.Hour,
		},
	}
}

var configValidator = validator.New()

// Validate checks the loaded values
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LoadConfig loads configuration from the specified path and environment variables
func LoadConfig(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Set default values
	defaultConfig := DefaultConfig()
	err := k.Load(newStructProvider(defaultConfig), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	expandedPath := ExpandHome(configPath)

	// Try to load from config file (if it exists)
	if _, err := os.Stat(expandedPath); err == nil {
		if err := k.Load(file.Provider(expandedPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Load from environment variables. A double underscore keeps the
	// underscore inside a key: MODELREG_REGISTRY_LOCK__TIMEOUT.
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var config Config
	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &config,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Registry.Root = ExpandHome(config.Registry.Root)
	config.Log.File = ExpandHome(config.Log.File)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	key = strings.ReplaceAll(key, "__", "\x00")
	key = strings.ReplaceAll(key, "_", ".")
	return strings.ReplaceAll(key, "\x00", "_")
}

// ExpandHome replaces a leading ~/ with the user's home directory.
func ExpandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(homeDir, p[2:])
}

// structProvider is a provider that loads configuration from a struct
type structProvider struct {
	cfg interface{}
}

func newStructProvider(cfg interface{}) *structProvider {
	return &structProvider{cfg: cfg}
}

// Read reads the configuration from the struct
func (s *structProvider) Read() (map[string]interface{}, error) {
	var out map[string]interface{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "koanf",
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(s.cfg); err != nil {
		return nil, err
	}

	return out, nil
}

// ReadBytes is required by the Provider interface but not used for struct providers
func (s *structProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("ReadBytes not supported for struct provider")
}
