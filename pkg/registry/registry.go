package registry

import (
	"context"
	"io"
)

// Registry is the transactional surface over an IndexStore and a Storage.
type Registry interface {
	// Register stores the artifact and returns its new version id.
	Register(ctx context.Context, artifact io.Reader, metrics Metrics, description string, opts ...RegisterOption) (string, error)
	// Resolve returns the artifact path for versionID, or for the latest
	// version when versionID is empty.
	Resolve(ctx context.Context, versionID string) (string, error)
	LatestVersion(ctx context.Context) (string, error)
	ListVersions(ctx context.Context) ([]VersionRecord, error)
	GetVersionInfo(ctx context.Context, versionID string) (*VersionRecord, error)
	// Cleanup enforces policy and returns the deleted ids in creation order.
	Cleanup(ctx context.Context, policy CleanupPolicy) ([]string, error)
	DeleteVersion(ctx context.Context, versionID string) (bool, error)
	// Reconcile removes storage units no record references.
	Reconcile(ctx context.Context) ([]string, error)
	Watch(ctx context.Context) (<-chan string, error)
	Close() error
}

// RegisterOptions carries optional Register inputs.
type RegisterOptions struct {
	Labels map[string]string
}

type RegisterOption func(*RegisterOptions)

// WithLabels attaches provenance labels to the new record.
func WithLabels(labels map[string]string) RegisterOption {
	return func(o *RegisterOptions) {
		if len(labels) == 0 {
			return
		}
		if o.Labels == nil {
			o.Labels = make(map[string]string, len(labels))
		}
		for k, v := range labels {
			o.Labels[k] = v
		}
	}
}

// ApplyRegisterOptions folds opts into a RegisterOptions value.
func ApplyRegisterOptions(opts ...RegisterOption) RegisterOptions {
	var o RegisterOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
