package registry

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"
)

// CurrentSchemaVersion is the index document version written by EncodeIndex.
const CurrentSchemaVersion = 2

// legacyTimeLayout is the naive ISO-8601 form used by schema 1 documents.
const legacyTimeLayout = "2006-01-02T15:04:05"

type indexDocument struct {
	SchemaVersion int             `json:"schema_version"`
	Versions      []VersionRecord `json:"versions"`
	LatestVersion *string         `json:"latest_version"`
}

// Schema 1 has no schema_version field, stores pipeline_path instead of a
// location and writes created_at without a zone.
type legacyDocument struct {
	Versions      []legacyRecord `json:"versions"`
	LatestVersion *string        `json:"latest_version"`
}

type legacyRecord struct {
	VersionID    string             `json:"version_id"`
	CreatedAt    string             `json:"created_at"`
	Metrics      map[string]float64 `json:"metrics"`
	Description  string             `json:"description"`
	PipelinePath string             `json:"pipeline_path"`
}

// EncodeIndex serializes idx as a current-schema document.
func EncodeIndex(idx *Index) ([]byte, error) {
	doc := indexDocument{
		SchemaVersion: CurrentSchemaVersion,
		Versions:      idx.Versions,
	}
	if doc.Versions == nil {
		doc.Versions = []VersionRecord{}
	}
	if idx.LatestVersion != "" {
		latest := idx.LatestVersion
		doc.LatestVersion = &latest
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal index: %w", err)
	}
	return data, nil
}

// DecodeIndex parses any supported schema version, migrating older documents
// to the current shape. Anything unparsable is ErrIndexCorrupt.
func DecodeIndex(data []byte) (*Index, error) {
	var head struct {
		SchemaVersion *int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}

	var (
		idx *Index
		err error
	)
	switch {
	case head.SchemaVersion == nil:
		idx, err = decodeLegacy(data)
	case *head.SchemaVersion == CurrentSchemaVersion:
		idx, err = decodeCurrent(data)
	default:
		return nil, fmt.Errorf("%w: unsupported schema version %d", ErrIndexCorrupt, *head.SchemaVersion)
	}
	if err != nil {
		return nil, err
	}

	if err := idx.Validate(); err != nil {
		return nil, err
	}
	return idx, nil
}

func decodeCurrent(data []byte) (*Index, error) {
	var doc indexDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}

	idx := NewIndex()
	if doc.Versions != nil {
		idx.Versions = doc.Versions
	}
	if doc.LatestVersion != nil {
		idx.LatestVersion = *doc.LatestVersion
	}
	return idx, nil
}

func decodeLegacy(data []byte) (*Index, error) {
	var doc legacyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}

	idx := NewIndex()
	for _, old := range doc.Versions {
		created, err := parseLegacyTime(old.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: version %s: %v", ErrIndexCorrupt, old.VersionID, err)
		}

		// pipeline_path was "<registry_dir>/<version>/<file>"; keep the last
		// two elements so the unit resolves relative to the registry root.
		p := path.Clean(strings.ReplaceAll(old.PipelinePath, "\\", "/"))
		idx.Versions = append(idx.Versions, VersionRecord{
			VersionID:        old.VersionID,
			CreatedAt:        created,
			Metrics:          Metrics(old.Metrics),
			Description:      old.Description,
			ArtifactLocation: path.Base(path.Dir(p)),
			ArtifactName:     path.Base(p),
		})
	}
	if doc.LatestVersion != nil {
		idx.LatestVersion = *doc.LatestVersion
	}
	return idx, nil
}

func parseLegacyTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(legacyTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid created_at %q", s)
	}
	return t.UTC(), nil
}
