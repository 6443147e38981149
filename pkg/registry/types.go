package registry

import (
	"fmt"
	"sort"
	"time"
)

// Metrics maps a metric name (MSE, RMSE, MAE, R2, ...) to its value.
// The registry never requires any particular key.
type Metrics map[string]float64

// Get returns the named metric or ErrMetricNotPresent.
func (m Metrics) Get(name string) (float64, error) {
	v, ok := m[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMetricNotPresent, name)
	}
	return v, nil
}

// Names returns the metric names in sorted order.
func (m Metrics) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// VersionRecord is the immutable index entry for one registered artifact.
type VersionRecord struct {
	VersionID        string            `json:"version_id"`
	CreatedAt        time.Time         `json:"created_at"`
	Metrics          Metrics           `json:"metrics"`
	Description      string            `json:"description"`
	ArtifactLocation string            `json:"artifact_location"`
	ArtifactName     string            `json:"artifact_name,omitempty"`
	Size             int64             `json:"size"`
	Digest           string            `json:"digest,omitempty"`
	Labels           map[string]string `json:"labels,omitempty"`
}

// Index is the persisted aggregate owned by a Registry.
type Index struct {
	Versions      []VersionRecord `json:"versions"`
	LatestVersion string          `json:"latest_version"`
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{Versions: make([]VersionRecord, 0)}
}

// Find returns the record with the given id.
func (idx *Index) Find(versionID string) (*VersionRecord, bool) {
	for i := range idx.Versions {
		if idx.Versions[i].VersionID == versionID {
			rec := idx.Versions[i]
			return &rec, true
		}
	}
	return nil, false
}

// Last returns the most recently appended record, if any.
func (idx *Index) Last() (*VersionRecord, bool) {
	if len(idx.Versions) == 0 {
		return nil, false
	}
	rec := idx.Versions[len(idx.Versions)-1]
	return &rec, true
}

// Append adds rec and moves the latest pointer to it.
func (idx *Index) Append(rec VersionRecord) {
	idx.Versions = append(idx.Versions, rec)
	idx.LatestVersion = rec.VersionID
}

// Validate checks the structural invariants: unique ids and a latest pointer
// naming the last record.
func (idx *Index) Validate() error {
	seen := make(map[string]struct{}, len(idx.Versions))
	for _, v := range idx.Versions {
		if v.VersionID == "" {
			return fmt.Errorf("%w: record with empty version id", ErrIndexCorrupt)
		}
		if _, dup := seen[v.VersionID]; dup {
			return fmt.Errorf("%w: duplicate version id %s", ErrIndexCorrupt, v.VersionID)
		}
		seen[v.VersionID] = struct{}{}
	}

	last, ok := idx.Last()
	switch {
	case !ok && idx.LatestVersion != "":
		return fmt.Errorf("%w: latest version %s set on empty index", ErrIndexCorrupt, idx.LatestVersion)
	case ok && idx.LatestVersion != last.VersionID:
		return fmt.Errorf("%w: latest version %q does not match last record %q", ErrIndexCorrupt, idx.LatestVersion, last.VersionID)
	}
	return nil
}

// Artifact describes a blob written by Storage.Put.
type Artifact struct {
	Location string
	Name     string
	Size     int64
	Digest   string
}
