package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ignitionstack/modelreg/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseModelFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "run.yaml",
			content: `description: nightly
metrics:
  MSE: 0.42
  R2: 0.81
labels:
  dataset: housing
`,
		},
		{
			name: "toml",
			file: "run.toml",
			content: `description = "nightly"

[metrics]
MSE = 0.42
R2 = 0.81

[labels]
dataset = "housing"
`,
		},
		{
			name:    "json",
			file:    "run.json",
			content: `{"description":"nightly","metrics":{"MSE":0.42,"R2":0.81},"labels":{"dataset":"housing"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseModelFile(writeManifest(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, "nightly", m.Description)
			assert.Equal(t, registry.Metrics{"MSE": 0.42, "R2": 0.81}, m.RegistryMetrics())
			assert.Equal(t, map[string]string{"dataset": "housing"}, m.Labels)
		})
	}
}

func TestParseModelFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ParseModelFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("unknown extension", func(t *testing.T) {
		_, err := ParseModelFile(writeManifest(t, "run.ini", "x=1"))
		assert.ErrorContains(t, err, "unsupported")
	})

	t.Run("unknown yaml key", func(t *testing.T) {
		_, err := ParseModelFile(writeManifest(t, "run.yaml", "metric:\n  R2: 1\n"))
		assert.Error(t, err)
	})

	t.Run("non numeric metric", func(t *testing.T) {
		_, err := ParseModelFile(writeManifest(t, "run.json", `{"metrics":{"R2":"high"}}`))
		assert.Error(t, err)
	})
}

func TestParseMetricFlags(t *testing.T) {
	m, err := ParseMetricFlags([]string{"R2=0.9", " MSE = 1e-3"})
	require.NoError(t, err)
	assert.Equal(t, registry.Metrics{"R2": 0.9, "MSE": 0.001}, m)

	for _, bad := range []string{"R2", "=1", "R2=abc", "R2=NaN", "R2=+Inf"} {
		_, err := ParseMetricFlags([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParseLabelFlags(t *testing.T) {
	l, err := ParseLabelFlags([]string{"dataset=housing", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"dataset": "housing", "note": "a=b"}, l)

	_, err = ParseLabelFlags([]string{"novalue"})
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	m := &ModelManifest{Description: "file", Metrics: map[string]float64{"R2": 0.5, "MSE": 2}}
	m.Merge("flag", registry.Metrics{"R2": 0.7}, map[string]string{"git_commit": "abc"})

	assert.Equal(t, "flag", m.Description)
	assert.Equal(t, map[string]float64{"R2": 0.7, "MSE": 2}, m.Metrics)
	assert.Equal(t, "abc", m.Labels["git_commit"])

	empty := &ModelManifest{}
	empty.Merge("", nil, nil)
	assert.NotNil(t, empty.Metrics)
	assert.Nil(t, empty.Labels)
}

func TestEncodeRoundTrip(t *testing.T) {
	rec := &registry.VersionRecord{
		VersionID:   "v_20240601_120000_000000000",
		CreatedAt:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Metrics:     registry.Metrics{"R2": 0.81},
		Description: "baseline",
		Labels:      map[string]string{"dataset": "housing"},
	}
	want := FromRecord(rec)

	for _, name := range []string{"out.yaml", "out.toml", "out.json"} {
		t.Run(name, func(t *testing.T) {
			data, err := want.Encode(name)
			require.NoError(t, err)

			got, err := ParseModelFile(writeManifest(t, name, string(data)))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := want.Encode("out.xml")
	assert.Error(t, err)
}
