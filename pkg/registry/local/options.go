package localregistry

import (
	"time"

	"github.com/ignitionstack/modelreg/pkg/registry"
	"go.uber.org/zap"
)

// Options configures a Registry.
type Options struct {
	Logger        *zap.Logger
	Clock         func() time.Time
	LockTimeout   time.Duration
	ArtifactName  string
	IndexStore    registry.IndexStore
	WatchDebounce time.Duration
}

type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Logger:        zap.NewNop(),
		Clock:         time.Now,
		LockTimeout:   DefaultLockTimeout,
		ArtifactName:  DefaultArtifactName,
		WatchDebounce: 200 * time.Millisecond,
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithClock replaces time.Now for id allocation and age-based cleanup.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) {
		if clock != nil {
			o.Clock = clock
		}
	}
}

// WithLockTimeout bounds how long a mutating call waits for the writer lock
// before failing with registry.ErrRegistryBusy.
func WithLockTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		if timeout > 0 {
			o.LockTimeout = timeout
		}
	}
}

func WithArtifactName(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.ArtifactName = name
		}
	}
}

// WithIndexStore overrides the default index.json store. The registry takes
// ownership and closes it in Close.
func WithIndexStore(store registry.IndexStore) Option {
	return func(o *Options) {
		o.IndexStore = store
	}
}

func WithWatchDebounce(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.WatchDebounce = d
		}
	}
}
