package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/ignitionstack/modelreg/pkg/manifest"
	"github.com/ignitionstack/modelreg/pkg/registry"
)

// LabelGitCommit and LabelGitDirty are set on versions registered from inside
// a git work tree.
const (
	LabelGitCommit = "git_commit"
	LabelGitDirty  = "git_dirty"
)

// ModelService defines the registry operations the CLI runs on top of a
// registry.Registry
type ModelService interface {
	// RegisterModel stores the artifact at req.ArtifactPath as a new version
	RegisterModel(ctx context.Context, req RegisterRequest) (*registry.VersionRecord, error)

	// PreviewCleanup reports what Cleanup would delete without taking the lock
	PreviewCleanup(ctx context.Context, policy registry.CleanupPolicy) ([]registry.VersionRecord, error)

	// SourceRevision returns the HEAD commit of the repository containing dir
	SourceRevision(dir string) (*Revision, error)
}

// RegisterRequest collects everything `modelreg register` accepts
type RegisterRequest struct {
	ArtifactPath string
	ManifestPath string
	Description  string
	Metrics      []string // NAME=VALUE
	Labels       []string // KEY=VALUE
	SourceDir    string   // work tree used for git provenance; empty skips it
}

// Revision identifies the source a model was trained from
type Revision struct {
	Commit string
	Dirty  bool
}

type modelService struct {
	registry registry.Registry
	clock    func() time.Time
}

// NewModelService creates a new instance of the model service
func NewModelService(reg registry.Registry) ModelService {
	return &modelService{registry: reg, clock: time.Now}
}

func (s *modelService) RegisterModel(ctx context.Context, req RegisterRequest) (*registry.VersionRecord, error) {
	if req.ArtifactPath == "" {
		return nil, errors.New("artifact path cannot be empty")
	}

	m := &manifest.ModelManifest{}
	if req.ManifestPath != "" {
		parsed, err := manifest.ParseModelFile(req.ManifestPath)
		if err != nil {
			return nil, err
		}
		m = parsed
	}

	metrics, err := manifest.ParseMetricFlags(req.Metrics)
	if err != nil {
		return nil, err
	}
	labels, err := manifest.ParseLabelFlags(req.Labels)
	if err != nil {
		return nil, err
	}

	if req.SourceDir != "" {
		rev, err := s.SourceRevision(req.SourceDir)
		switch {
		case err == nil:
			if _, set := labels[LabelGitCommit]; !set {
				labels[LabelGitCommit] = rev.Commit
				labels[LabelGitDirty] = fmt.Sprintf("%t", rev.Dirty)
			}
		case errors.Is(err, git.ErrRepositoryNotExists):
			// not a git checkout, nothing to record
		default:
			return nil, err
		}
	}
	m.Merge(req.Description, metrics, labels)

	f, err := os.Open(req.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat artifact: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("artifact %s is a directory", req.ArtifactPath)
	}

	id, err := s.registry.Register(ctx, f, m.RegistryMetrics(), m.Description, registry.WithLabels(m.Labels))
	if err != nil {
		return nil, err
	}
	return s.registry.GetVersionInfo(ctx, id)
}

func (s *modelService) PreviewCleanup(ctx context.Context, policy registry.CleanupPolicy) ([]registry.VersionRecord, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	versions, err := s.registry.ListVersions(ctx)
	if err != nil {
		return nil, err
	}
	latest, err := s.registry.LatestVersion(ctx)
	if err != nil && !errors.Is(err, registry.ErrEmptyRegistry) {
		return nil, err
	}

	_, deleted := policy.Plan(versions, latest, s.clock())
	return deleted, nil
}

func (s *modelService) SourceRevision(dir string) (*Revision, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open work tree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read work tree status: %w", err)
	}

	return &Revision{Commit: head.Hash().String(), Dirty: !status.IsClean()}, nil
}
