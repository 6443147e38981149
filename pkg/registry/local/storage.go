package localregistry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/ignitionstack/modelreg/pkg/registry"
)

const (
	VersionsDir         = "versions"
	LatestLinkName      = "latest"
	DefaultArtifactName = "model.bin"

	stagingPrefix = ".staging-"
)

type localStorage struct {
	rootDir      string
	artifactName string
}

// NewLocalStorage lays units out as <rootDir>/versions/<version_id>/<artifactName>.
func NewLocalStorage(rootDir, artifactName string) registry.Storage {
	if artifactName == "" {
		artifactName = DefaultArtifactName
	}
	return &localStorage{rootDir: rootDir, artifactName: artifactName}
}

func (s *localStorage) LocationFor(versionID string) string {
	return path.Join(VersionsDir, versionID)
}

// Put streams blob into a staging directory and renames it into place, so a
// unit only ever appears under its final name once fully written.
func (s *localStorage) Put(ctx context.Context, versionID string, blob io.Reader) (registry.Artifact, error) {
	location := s.LocationFor(versionID)
	finalDir, err := s.unitDir(location)
	if err != nil {
		return registry.Artifact{}, err
	}

	versionsDir := filepath.Join(s.rootDir, VersionsDir)
	if err := os.MkdirAll(versionsDir, 0755); err != nil {
		return registry.Artifact{}, fmt.Errorf("%w: failed to create directories: %w", registry.ErrStorageWrite, err)
	}
	if _, err := os.Lstat(finalDir); err == nil {
		return registry.Artifact{}, fmt.Errorf("%w: storage unit %s already exists", registry.ErrVersionCollision, location)
	}

	stagingDir := filepath.Join(versionsDir, stagingPrefix+uuid.NewString())
	if err := os.Mkdir(stagingDir, 0755); err != nil {
		return registry.Artifact{}, fmt.Errorf("%w: failed to create staging directory: %w", registry.ErrStorageWrite, err)
	}

	success := false
	defer func() {
		if !success {
			_ = os.RemoveAll(stagingDir)
		}
	}()

	size, digest, err := writeBlob(ctx, filepath.Join(stagingDir, s.artifactName), blob)
	if err != nil {
		return registry.Artifact{}, fmt.Errorf("%w: %w", registry.ErrStorageWrite, err)
	}
	if err := syncDir(stagingDir); err != nil {
		return registry.Artifact{}, fmt.Errorf("%w: %w", registry.ErrStorageWrite, err)
	}
	if err := os.Rename(stagingDir, finalDir); err != nil {
		return registry.Artifact{}, fmt.Errorf("%w: failed to move unit into place: %w", registry.ErrStorageWrite, err)
	}
	success = true

	if err := syncDir(versionsDir); err != nil {
		// The rename happened; only durability of the directory entry is in doubt.
		return registry.Artifact{}, fmt.Errorf("%w: %w", registry.ErrStorageWrite, err)
	}

	return registry.Artifact{
		Location: location,
		Name:     s.artifactName,
		Size:     size,
		Digest:   digest,
	}, nil
}

func (s *localStorage) Remove(location string) error {
	dir, err := s.unitDir(location)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: failed to remove %s: %w", registry.ErrStorageWrite, location, err)
	}
	return nil
}

func (s *localStorage) Path(location, name string) (string, error) {
	dir, err := s.unitDir(location)
	if err != nil {
		return "", err
	}
	if name == "" {
		name = s.artifactName
	}

	p := filepath.Join(dir, name)
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", registry.ErrUnitMissing, p)
		}
		return "", fmt.Errorf("%w: %w", registry.ErrStorageRead, err)
	}
	return p, nil
}

// Units lists every entry under versions/, staging directories included.
func (s *localStorage) Units() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.rootDir, VersionsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: failed to list units: %w", registry.ErrStorageRead, err)
	}

	units := make([]string, 0, len(entries))
	for _, e := range entries {
		units = append(units, path.Join(VersionsDir, e.Name()))
	}
	return units, nil
}

// UpdateLatest points the root "latest" symlink at location. The link is a
// convenience for humans and tools; the index stays authoritative.
func (s *localStorage) UpdateLatest(location string) error {
	if _, err := s.unitDir(location); err != nil {
		return err
	}

	tmp := filepath.Join(s.rootDir, ".latest-"+uuid.NewString())
	if err := os.Symlink(filepath.FromSlash(location), tmp); err != nil {
		return fmt.Errorf("failed to create latest link: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.rootDir, LatestLinkName)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace latest link: %w", err)
	}
	return nil
}

func (s *localStorage) unitDir(location string) (string, error) {
	local := filepath.FromSlash(location)
	if location == "" || location == "." || !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: invalid storage location %q", registry.ErrIndexCorrupt, location)
	}
	return filepath.Join(s.rootDir, local), nil
}

func writeBlob(ctx context.Context, dst string, blob io.Reader) (int64, string, error) {
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create artifact file: %w", err)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), &contextReader{ctx: ctx, r: blob})
	if err != nil {
		_ = f.Close()
		return 0, "", fmt.Errorf("failed to copy artifact: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return 0, "", fmt.Errorf("failed to sync artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, "", fmt.Errorf("failed to close artifact: %w", err)
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

// contextReader stops a copy between chunks once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open directory for sync: %w", err)
	}
	defer d.Close()

	if err := d.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return fmt.Errorf("failed to sync directory: %w", err)
	}
	return nil
}
