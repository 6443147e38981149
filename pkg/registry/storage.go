package registry

import (
	"context"
	"io"
)

// Storage places artifact blobs in version-scoped units.
type Storage interface {
	Put(ctx context.Context, versionID string, blob io.Reader) (Artifact, error)
	// Remove deletes a unit. Removing an absent unit is not an error.
	Remove(location string) error
	Path(location, name string) (string, error)
	Units() ([]string, error)
	LocationFor(versionID string) string
	UpdateLatest(location string) error
}

// IndexStore loads and saves the whole Index.
type IndexStore interface {
	// Load returns an empty index when nothing has been saved yet.
	Load(ctx context.Context) (*Index, error)
	Save(ctx context.Context, idx *Index) error
	Close() error
}
