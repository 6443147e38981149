package localregistry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ignitionstack/modelreg/pkg/registry"
)

const IndexFileName = "index.json"

type fileIndexStore struct {
	path string
}

// NewFileIndexStore keeps the index as a single JSON document at path.
func NewFileIndexStore(path string) registry.IndexStore {
	return &fileIndexStore{path: path}
}

func (s *fileIndexStore) Load(ctx context.Context) (*registry.Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return registry.NewIndex(), nil
		}
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	return registry.DecodeIndex(data)
}

func (s *fileIndexStore) Save(ctx context.Context, idx *registry.Index) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := idx.Validate(); err != nil {
		return fmt.Errorf("refusing to save index: %w", err)
	}

	data, err := registry.EncodeIndex(idx)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

func (s *fileIndexStore) Close() error {
	return nil
}

// writeFileAtomic writes to a temp file in the target directory, syncs it and
// renames it over path, so readers see either the old or the new contents.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index.json.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("setting temp file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	success = true

	return syncDir(dir)
}
