package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	localregistry "github.com/ignitionstack/modelreg/pkg/registry/local"
	"github.com/ignitionstack/modelreg/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (ModelService, *localregistry.Registry) {
	t.Helper()
	reg, err := localregistry.New(filepath.Join(t.TempDir(), "registry"))
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return NewModelService(reg), reg
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func initRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	writeFile(t, dir, "train.py", "print('fit')\n")
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("train.py")
	require.NoError(t, err)

	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "trainer", Email: "trainer@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, hash.String()
}

func TestRegisterModel(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	work := t.TempDir()

	artifact := writeFile(t, work, "pipeline.bin", "weights")
	manifestPath := writeFile(t, work, "run.yaml", "description: from file\nmetrics:\n  R2: 0.5\n  MSE: 1.5\n")

	rec, err := svc.RegisterModel(ctx, RegisterRequest{
		ArtifactPath: artifact,
		ManifestPath: manifestPath,
		Metrics:      []string{"R2=0.75"},
		Labels:       []string{"dataset=housing"},
	})
	require.NoError(t, err)

	assert.Equal(t, "from file", rec.Description)
	assert.Equal(t, registry.Metrics{"R2": 0.75, "MSE": 1.5}, rec.Metrics)
	assert.Equal(t, "housing", rec.Labels["dataset"])
	assert.Equal(t, int64(len("weights")), rec.Size)
	assert.NotEmpty(t, rec.Digest)
}

func TestRegisterModelErrors(t *testing.T) {
	svc, reg := setupService(t)
	ctx := context.Background()
	work := t.TempDir()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"no artifact", RegisterRequest{}},
		{"missing artifact", RegisterRequest{ArtifactPath: filepath.Join(work, "nope.bin")}},
		{"directory artifact", RegisterRequest{ArtifactPath: work}},
		{"bad metric", RegisterRequest{ArtifactPath: writeFile(t, work, "a.bin", "x"), Metrics: []string{"R2"}}},
		{"bad manifest", RegisterRequest{ArtifactPath: writeFile(t, work, "b.bin", "x"), ManifestPath: filepath.Join(work, "run.ini")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterModel(ctx, tt.req)
			assert.Error(t, err)
		})
	}

	versions, err := reg.ListVersions(ctx)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestRegisterModelGitProvenance(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	repoDir, commit := initRepo(t)

	artifact := writeFile(t, t.TempDir(), "pipeline.bin", "weights")

	rec, err := svc.RegisterModel(ctx, RegisterRequest{ArtifactPath: artifact, SourceDir: repoDir})
	require.NoError(t, err)
	assert.Equal(t, commit, rec.Labels[LabelGitCommit])
	assert.Equal(t, "false", rec.Labels[LabelGitDirty])

	t.Run("explicit label wins", func(t *testing.T) {
		rec, err := svc.RegisterModel(ctx, RegisterRequest{
			ArtifactPath: artifact,
			SourceDir:    repoDir,
			Labels:       []string{LabelGitCommit + "=pinned"},
		})
		require.NoError(t, err)
		assert.Equal(t, "pinned", rec.Labels[LabelGitCommit])
	})

	t.Run("outside a repository", func(t *testing.T) {
		rec, err := svc.RegisterModel(ctx, RegisterRequest{ArtifactPath: artifact, SourceDir: t.TempDir()})
		require.NoError(t, err)
		assert.NotContains(t, rec.Labels, LabelGitCommit)
	})
}

func TestSourceRevision(t *testing.T) {
	svc, _ := setupService(t)
	repoDir, commit := initRepo(t)

	sub := filepath.Join(repoDir, "models")
	require.NoError(t, os.MkdirAll(sub, 0755))

	rev, err := svc.SourceRevision(sub)
	require.NoError(t, err)
	assert.Equal(t, commit, rev.Commit)
	assert.False(t, rev.Dirty)

	writeFile(t, repoDir, "train.py", "print('refit')\n")
	rev, err = svc.SourceRevision(repoDir)
	require.NoError(t, err)
	assert.True(t, rev.Dirty)

	_, err = svc.SourceRevision(t.TempDir())
	assert.ErrorIs(t, err, git.ErrRepositoryNotExists)
}

func TestPreviewCleanup(t *testing.T) {
	svc, reg := setupService(t)
	ctx := context.Background()
	artifact := writeFile(t, t.TempDir(), "pipeline.bin", "weights")

	deleted, err := svc.PreviewCleanup(ctx, registry.CleanupPolicy{KeepLastN: registry.KeepLast(1)})
	require.NoError(t, err)
	assert.Empty(t, deleted)

	var ids []string
	for i := 0; i < 3; i++ {
		rec, err := svc.RegisterModel(ctx, RegisterRequest{ArtifactPath: artifact})
		require.NoError(t, err)
		ids = append(ids, rec.VersionID)
	}

	deleted, err = svc.PreviewCleanup(ctx, registry.CleanupPolicy{KeepLastN: registry.KeepLast(1)})
	require.NoError(t, err)
	assert.Equal(t, ids[:2], registry.VersionIDs(deleted))

	versions, err := reg.ListVersions(ctx)
	require.NoError(t, err)
	assert.Len(t, versions, 3, "preview must not delete")

	_, err = svc.PreviewCleanup(ctx, registry.CleanupPolicy{KeepLastN: registry.KeepLast(-2)})
	assert.ErrorIs(t, err, registry.ErrInvalidPolicy)
}
