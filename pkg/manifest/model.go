package manifest

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ignitionstack/modelreg/pkg/registry"
	"gopkg.in/yaml.v2"
)

// ModelManifest describes a training run handed to `modelreg register`:
//
//	description: nightly retrain
//	metrics:
//	  MSE: 0.42
//	  R2: 0.81
//	labels:
//	  dataset: housing-2024-06
type ModelManifest struct {
	Description string             `yaml:"description,omitempty" toml:"description,omitempty" json:"description,omitempty"`
	Metrics     map[string]float64 `yaml:"metrics" toml:"metrics" json:"metrics"`
	Labels      map[string]string  `yaml:"labels,omitempty" toml:"labels,omitempty" json:"labels,omitempty"`
}

// ParseModelFile reads a manifest, choosing the decoder from the extension
// (.yaml, .yml, .toml or .json).
func ParseModelFile(filePath string) (*ModelManifest, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest file not found: %s", absPath)
		}
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var m ModelManifest
	switch ext := strings.ToLower(filepath.Ext(absPath)); ext {
	case ".yaml", ".yml":
		err = yaml.UnmarshalStrict(data, &m)
	case ".toml":
		_, err = toml.Decode(string(data), &m)
	case ".json":
		err = json.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest file: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate rejects empty metric names and non-finite values.
func (m *ModelManifest) Validate() error {
	for name, v := range m.Metrics {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("metric with empty name")
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("metric %s must be a finite number", name)
		}
	}
	return nil
}

// RegistryMetrics returns a copy of the metrics as registry.Metrics.
func (m *ModelManifest) RegistryMetrics() registry.Metrics {
	out := make(registry.Metrics, len(m.Metrics))
	for k, v := range m.Metrics {
		out[k] = v
	}
	return out
}

// Merge overlays metrics and labels from flags onto the manifest. Flag values
// win, and a non-empty description replaces the file's.
func (m *ModelManifest) Merge(description string, metrics registry.Metrics, labels map[string]string) {
	if description != "" {
		m.Description = description
	}
	if m.Metrics == nil {
		m.Metrics = make(map[string]float64, len(metrics))
	}
	for k, v := range metrics {
		m.Metrics[k] = v
	}
	if len(labels) > 0 && m.Labels == nil {
		m.Labels = make(map[string]string, len(labels))
	}
	for k, v := range labels {
		m.Labels[k] = v
	}
}

// ParseMetricFlags parses repeated NAME=VALUE flags.
func ParseMetricFlags(pairs []string) (registry.Metrics, error) {
	out := make(registry.Metrics, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid metric %q, expected NAME=VALUE", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid value for metric %s: %q", name, raw)
		}
		out[name] = v
	}
	return out, nil
}

// ParseLabelFlags parses repeated KEY=VALUE flags.
func ParseLabelFlags(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid label %q, expected KEY=VALUE", pair)
		}
		out[key] = value
	}
	return out, nil
}

func (m *ModelManifest) MarshalYaml() ([]byte, error) {
	return yaml.Marshal(m)
}

func (m *ModelManifest) MarshalToml() ([]byte, error) {
	return toml.Marshal(m)
}

// FromRecord builds the manifest a version was registered with.
func FromRecord(rec *registry.VersionRecord) *ModelManifest {
	m := &ModelManifest{
		Description: rec.Description,
		Metrics:     make(map[string]float64, len(rec.Metrics)),
	}
	for k, v := range rec.Metrics {
		m.Metrics[k] = v
	}
	if len(rec.Labels) > 0 {
		m.Labels = make(map[string]string, len(rec.Labels))
		for k, v := range rec.Labels {
			m.Labels[k] = v
		}
	}
	return m
}

// Encode renders the manifest in the format implied by the file extension.
func (m *ModelManifest) Encode(filePath string) ([]byte, error) {
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".yaml", ".yml":
		return m.MarshalYaml()
	case ".toml":
		return m.MarshalToml()
	case ".json":
		return json.MarshalIndent(m, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", ext)
	}
}
