package localregistry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ignitionstack/modelreg/pkg/registry"
	"go.uber.org/zap"
)

var _ registry.Registry = (*Registry)(nil)

// Registry is a single-host model registry rooted at one directory:
//
//	<root>/index.json              version index (or index.db/ with Badger)
//	<root>/.lock                   writer lock
//	<root>/latest                  symlink to the latest unit
//	<root>/versions/<version_id>/  one unit per version
type Registry struct {
	root        string
	index       registry.IndexStore
	storage     registry.Storage
	logger      *zap.Logger
	clock       func() time.Time
	lockTimeout time.Duration
	debounce    time.Duration
	writer      chan struct{}
}

// New opens the registry at root, creating the directory layout if needed.
func New(root string, opts ...Option) (*Registry, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if root == "" {
		return nil, fmt.Errorf("registry root must not be empty")
	}
	if err := os.MkdirAll(filepath.Join(root, VersionsDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	index := o.IndexStore
	if index == nil {
		index = NewFileIndexStore(filepath.Join(root, IndexFileName))
	}

	return &Registry{
		root:        root,
		index:       index,
		storage:     NewLocalStorage(root, o.ArtifactName),
		logger:      o.Logger,
		clock:       o.Clock,
		lockTimeout: o.LockTimeout,
		debounce:    o.WatchDebounce,
		writer:      make(chan struct{}, 1),
	}, nil
}

// Root returns the directory the registry lives in.
func (r *Registry) Root() string {
	return r.root
}

func (r *Registry) Register(ctx context.Context, artifact io.Reader, metrics registry.Metrics, description string, opts ...registry.RegisterOption) (string, error) {
	o := registry.ApplyRegisterOptions(opts...)

	var versionID string
	err := r.withWriteLock(ctx, "register", func() error {
		idx, err := r.index.Load(ctx)
		if err != nil {
			return err
		}

		id, created, err := registry.NextVersion(r.clock(), idx)
		if err != nil {
			return err
		}

		art, err := r.storage.Put(ctx, id, artifact)
		if err != nil {
			return err
		}

		idx.Append(registry.VersionRecord{
			VersionID:        id,
			CreatedAt:        created,
			Metrics:          copyMetrics(metrics),
			Description:      description,
			ArtifactLocation: art.Location,
			ArtifactName:     art.Name,
			Size:             art.Size,
			Digest:           art.Digest,
			Labels:           o.Labels,
		})

		if err := r.index.Save(ctx, idx); err != nil {
			if rmErr := r.storage.Remove(art.Location); rmErr != nil {
				r.logger.Warn("unit left orphaned after failed index save",
					zap.String("version", id), zap.String("location", art.Location), zap.Error(rmErr))
			}
			return err
		}

		versionID = id
		r.refreshLatest(art.Location)
		r.logger.Info("registered model version",
			zap.String("version", id),
			zap.Int64("size", art.Size),
			zap.Any("metrics", metrics))
		return nil
	})
	if err != nil {
		return "", registry.WrapOp("register", "", err)
	}
	return versionID, nil
}

func (r *Registry) Resolve(ctx context.Context, versionID string) (string, error) {
	idx, err := r.index.Load(ctx)
	if err != nil {
		return "", registry.WrapOp("resolve", versionID, err)
	}

	rec, err := lookup(idx, versionID)
	if err != nil {
		return "", registry.WrapOp("resolve", versionID, err)
	}

	p, err := r.storage.Path(rec.ArtifactLocation, rec.ArtifactName)
	if err != nil {
		if errors.Is(err, registry.ErrUnitMissing) {
			err = fmt.Errorf("%w: indexed version has no artifact: %w", registry.ErrIndexCorrupt, err)
		}
		return "", registry.WrapOp("resolve", rec.VersionID, err)
	}
	return p, nil
}

func (r *Registry) LatestVersion(ctx context.Context) (string, error) {
	idx, err := r.index.Load(ctx)
	if err != nil {
		return "", registry.WrapOp("latest", "", err)
	}
	if idx.LatestVersion == "" {
		return "", registry.WrapOp("latest", "", registry.ErrEmptyRegistry)
	}
	return idx.LatestVersion, nil
}

func (r *Registry) ListVersions(ctx context.Context) ([]registry.VersionRecord, error) {
	idx, err := r.index.Load(ctx)
	if err != nil {
		return nil, registry.WrapOp("list", "", err)
	}
	return idx.Versions, nil
}

func (r *Registry) GetVersionInfo(ctx context.Context, versionID string) (*registry.VersionRecord, error) {
	idx, err := r.index.Load(ctx)
	if err != nil {
		return nil, registry.WrapOp("info", versionID, err)
	}

	rec, ok := idx.Find(versionID)
	if !ok {
		return nil, registry.WrapOp("info", versionID, registry.ErrVersionNotFound)
	}
	return rec, nil
}

func (r *Registry) Cleanup(ctx context.Context, policy registry.CleanupPolicy) ([]string, error) {
	if err := policy.Validate(); err != nil {
		return nil, registry.WrapOp("cleanup", "", err)
	}

	deleted := []string{}
	err := r.withWriteLock(ctx, "cleanup", func() error {
		idx, err := r.index.Load(ctx)
		if err != nil {
			return err
		}

		if orphans, err := r.reconcileLocked(idx); err != nil {
			if errors.Is(err, registry.ErrIndexCorrupt) {
				return err
			}
			r.logger.Warn("reconcile before cleanup failed", zap.Error(err))
		} else if len(orphans) > 0 {
			r.logger.Info("removed orphaned units", zap.Strings("units", orphans))
		}

		retained, drop := policy.Plan(idx.Versions, idx.LatestVersion, r.clock())
		if len(drop) == 0 {
			return nil
		}

		// The index goes first: a failure after this point can only leave
		// orphaned units, which reconciliation removes.
		next := &registry.Index{Versions: retained, LatestVersion: idx.LatestVersion}
		if err := r.index.Save(ctx, next); err != nil {
			return err
		}

		var removeErrs []error
		for _, rec := range drop {
			deleted = append(deleted, rec.VersionID)
			if err := r.storage.Remove(rec.ArtifactLocation); err != nil {
				removeErrs = append(removeErrs, err)
			}
		}

		r.logger.Info("cleanup finished",
			zap.Stringer("policy", policy),
			zap.Strings("deleted", deleted),
			zap.Int("retained", len(retained)))
		return errors.Join(removeErrs...)
	})
	if err != nil {
		return deleted, registry.WrapOp("cleanup", "", err)
	}
	return deleted, nil
}

func (r *Registry) DeleteVersion(ctx context.Context, versionID string) (bool, error) {
	removed := false
	err := r.withWriteLock(ctx, "delete", func() error {
		idx, err := r.index.Load(ctx)
		if err != nil {
			return err
		}

		rec, ok := idx.Find(versionID)
		if !ok || versionID == idx.LatestVersion {
			return nil
		}

		next := &registry.Index{
			Versions:      make([]registry.VersionRecord, 0, len(idx.Versions)-1),
			LatestVersion: idx.LatestVersion,
		}
		for _, v := range idx.Versions {
			if v.VersionID != versionID {
				next.Versions = append(next.Versions, v)
			}
		}
		if err := r.index.Save(ctx, next); err != nil {
			return err
		}

		removed = true
		r.logger.Info("deleted model version", zap.String("version", versionID))
		return r.storage.Remove(rec.ArtifactLocation)
	})
	if err != nil {
		return removed, registry.WrapOp("delete", versionID, err)
	}
	return removed, nil
}

func (r *Registry) Reconcile(ctx context.Context) ([]string, error) {
	var removed []string
	err := r.withWriteLock(ctx, "reconcile", func() error {
		idx, err := r.index.Load(ctx)
		if err != nil {
			return err
		}

		removed, err = r.reconcileLocked(idx)
		if err != nil {
			return err
		}
		if last, ok := idx.Last(); ok {
			r.refreshLatest(last.ArtifactLocation)
		}
		return nil
	})
	if err != nil {
		return nil, registry.WrapOp("reconcile", "", err)
	}
	if len(removed) > 0 {
		r.logger.Info("reconciled storage", zap.Strings("removed", removed))
	}
	return removed, nil
}

func (r *Registry) Close() error {
	return r.index.Close()
}

// reconcileLocked removes units no record references. A record whose unit is
// missing makes the whole pass fail with ErrIndexCorrupt before anything is
// removed. Must hold the writer lock.
func (r *Registry) reconcileLocked(idx *registry.Index) ([]string, error) {
	referenced := make(map[string]struct{}, len(idx.Versions))
	var missing []string
	for _, rec := range idx.Versions {
		referenced[path.Clean(rec.ArtifactLocation)] = struct{}{}
		if _, err := r.storage.Path(rec.ArtifactLocation, rec.ArtifactName); err != nil {
			if errors.Is(err, registry.ErrUnitMissing) {
				missing = append(missing, rec.VersionID)
				continue
			}
			return nil, err
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: no storage unit for %s", registry.ErrIndexCorrupt, strings.Join(missing, ", "))
	}

	units, err := r.storage.Units()
	if err != nil {
		return nil, err
	}

	removed := make([]string, 0)
	for _, unit := range units {
		if _, ok := referenced[unit]; ok {
			continue
		}
		if err := r.storage.Remove(unit); err != nil {
			return removed, err
		}
		r.logger.Debug("removed orphaned unit", zap.String("location", unit))
		removed = append(removed, unit)
	}
	sort.Strings(removed)
	return removed, nil
}

func (r *Registry) withWriteLock(ctx context.Context, op string, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	release, err := acquireSlot(lockCtx, r.writer)
	if err != nil {
		return err
	}
	defer release()

	lock, err := acquireFileLock(lockCtx, filepath.Join(r.root, LockFileName))
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.release(); err != nil {
			r.logger.Warn("failed to release registry lock", zap.String("op", op), zap.Error(err))
		}
	}()

	return fn()
}

func (r *Registry) refreshLatest(location string) {
	if err := r.storage.UpdateLatest(location); err != nil {
		r.logger.Warn("failed to refresh latest link", zap.String("location", location), zap.Error(err))
	}
}

func lookup(idx *registry.Index, versionID string) (*registry.VersionRecord, error) {
	if versionID == "" {
		if idx.LatestVersion == "" {
			return nil, registry.ErrEmptyRegistry
		}
		versionID = idx.LatestVersion
	}

	rec, ok := idx.Find(versionID)
	if !ok {
		return nil, registry.ErrVersionNotFound
	}
	return rec, nil
}

func copyMetrics(m registry.Metrics) registry.Metrics {
	out := make(registry.Metrics, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
