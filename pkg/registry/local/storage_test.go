package localregistry

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ignitionstack/modelreg/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocalStorage(t *testing.T) (*localStorage, string, func()) {
	tmpDir, err := os.MkdirTemp("", "local-storage-test-*")
	require.NoError(t, err, "failed to create temp directory")

	storage := NewLocalStorage(tmpDir, "").(*localStorage)

	cleanup := func() {
		os.RemoveAll(tmpDir)
	}

	return storage, tmpDir, cleanup
}

// failingReader returns some bytes and then an error, like a pipe that breaks
// halfway through an upload.
type failingReader struct {
	data []byte
	sent bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.sent {
		f.sent = true
		return copy(p, f.data), nil
	}
	return 0, errors.New("connection reset")
}

func TestPut(t *testing.T) {
	storage, tmpDir, cleanup := setupLocalStorage(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("writes unit with digest", func(t *testing.T) {
		content := []byte("serialized pipeline")
		art, err := storage.Put(ctx, "v_20240601_120000_000000000", bytes.NewReader(content))
		require.NoError(t, err)

		sum := sha256.Sum256(content)
		assert.Equal(t, "versions/v_20240601_120000_000000000", art.Location)
		assert.Equal(t, DefaultArtifactName, art.Name)
		assert.Equal(t, int64(len(content)), art.Size)
		assert.Equal(t, hex.EncodeToString(sum[:]), art.Digest)

		data, err := os.ReadFile(filepath.Join(tmpDir, "versions", "v_20240601_120000_000000000", DefaultArtifactName))
		require.NoError(t, err)
		assert.Equal(t, content, data)
	})

	t.Run("existing unit is a collision", func(t *testing.T) {
		_, err := storage.Put(ctx, "v_20240601_120000_000000000", bytes.NewReader([]byte("other")))
		assert.ErrorIs(t, err, registry.ErrVersionCollision)
	})

	t.Run("failed copy leaves nothing behind", func(t *testing.T) {
		before, err := storage.Units()
		require.NoError(t, err)

		_, err = storage.Put(ctx, "v_20240601_130000_000000000", &failingReader{data: []byte("partial")})
		assert.ErrorIs(t, err, registry.ErrStorageWrite)

		after, err := storage.Units()
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("cancelled context aborts write", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := storage.Put(cctx, "v_20240601_140000_000000000", bytes.NewReader([]byte("data")))
		assert.ErrorIs(t, err, registry.ErrStorageWrite)
		assert.ErrorIs(t, err, context.Canceled)

		_, statErr := os.Stat(filepath.Join(tmpDir, "versions", "v_20240601_140000_000000000"))
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestPath(t *testing.T) {
	storage, tmpDir, cleanup := setupLocalStorage(t)
	defer cleanup()

	art, err := storage.Put(context.Background(), "v_1", bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	t.Run("existing unit", func(t *testing.T) {
		p, err := storage.Path(art.Location, art.Name)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tmpDir, "versions", "v_1", DefaultArtifactName), p)
	})

	t.Run("empty name uses default artifact", func(t *testing.T) {
		p, err := storage.Path(art.Location, "")
		require.NoError(t, err)
		assert.Equal(t, DefaultArtifactName, filepath.Base(p))
	})

	t.Run("missing unit", func(t *testing.T) {
		_, err := storage.Path("versions/v_2", "")
		assert.ErrorIs(t, err, registry.ErrUnitMissing)
	})

	t.Run("location escaping root", func(t *testing.T) {
		_, err := storage.Path("../outside", "")
		assert.ErrorIs(t, err, registry.ErrIndexCorrupt)
	})
}

func TestRemoveAndUnits(t *testing.T) {
	storage, _, cleanup := setupLocalStorage(t)
	defer cleanup()
	ctx := context.Background()

	units, err := storage.Units()
	require.NoError(t, err)
	assert.Empty(t, units)

	for _, id := range []string{"v_a", "v_b"} {
		_, err := storage.Put(ctx, id, bytes.NewReader([]byte(id)))
		require.NoError(t, err)
	}

	units, err = storage.Units()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"versions/v_a", "versions/v_b"}, units)

	require.NoError(t, storage.Remove("versions/v_a"))
	require.NoError(t, storage.Remove("versions/v_a"), "remove is idempotent")

	units, err = storage.Units()
	require.NoError(t, err)
	assert.Equal(t, []string{"versions/v_b"}, units)
}

func TestUpdateLatest(t *testing.T) {
	storage, tmpDir, cleanup := setupLocalStorage(t)
	defer cleanup()
	ctx := context.Background()

	for _, id := range []string{"v_a", "v_b"} {
		art, err := storage.Put(ctx, id, bytes.NewReader([]byte(id)))
		require.NoError(t, err)
		require.NoError(t, storage.UpdateLatest(art.Location))
	}

	target, err := os.Readlink(filepath.Join(tmpDir, LatestLinkName))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("versions", "v_b"), target)

	data, err := os.ReadFile(filepath.Join(tmpDir, LatestLinkName, DefaultArtifactName))
	require.NoError(t, err)
	assert.Equal(t, "v_b", string(data))
}
