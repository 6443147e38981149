package di

import (
	"fmt"
	"path/filepath"

	"github.com/ignitionstack/modelreg/internal/config"
	"github.com/ignitionstack/modelreg/internal/services"
	"github.com/ignitionstack/modelreg/pkg/registry"
	localregistry "github.com/ignitionstack/modelreg/pkg/registry/local"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// OpenRegistry opens the registry described by cfg with the configured index
// backend.
func OpenRegistry(cfg *config.Config, logger *zap.Logger) (*localregistry.Registry, error) {
	opts := []localregistry.Option{
		localregistry.WithLogger(logger.Named("registry")),
		localregistry.WithLockTimeout(cfg.Registry.LockTimeout),
		localregistry.WithArtifactName(cfg.Registry.ArtifactName),
	}

	var store registry.IndexStore
	if cfg.Registry.IndexBackend == config.IndexBackendBadger {
		var err error
		store, err = localregistry.OpenBadgerIndexStore(filepath.Join(cfg.Registry.Root, localregistry.BadgerIndexDir))
		if err != nil {
			return nil, fmt.Errorf("failed to open registry database: %w", err)
		}
		opts = append(opts, localregistry.WithIndexStore(store))
	}

	reg, err := localregistry.New(cfg.Registry.Root, opts...)
	if err != nil {
		if store != nil {
			// Badger holds a directory lock until closed.
			_ = store.Close()
		}
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}
	return reg, nil
}

// BuildContainer builds the dependency injection container used by the
// one-shot commands.
func BuildContainer(cfg *config.Config, logger *zap.Logger) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() *config.Config {
		return cfg
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func() *zap.Logger {
		return logger
	}); err != nil {
		return nil, err
	}

	// Register registry
	if err := container.Provide(OpenRegistry); err != nil {
		return nil, err
	}

	if err := container.Provide(func(reg *localregistry.Registry) registry.Registry {
		return reg
	}); err != nil {
		return nil, err
	}

	// Register model service
	if err := container.Provide(services.NewModelService); err != nil {
		return nil, err
	}

	return container, nil
}

// GetRegistry retrieves the Registry from the container.
func GetRegistry(container *dig.Container) (*localregistry.Registry, error) {
	var reg *localregistry.Registry
	if err := container.Invoke(func(r *localregistry.Registry) {
		reg = r
	}); err != nil {
		return nil, err
	}
	return reg, nil
}

// GetModelService retrieves the ModelService from the container.
func GetModelService(container *dig.Container) (services.ModelService, error) {
	var service services.ModelService
	if err := container.Invoke(func(svc services.ModelService) {
		service = svc
	}); err != nil {
		return nil, err
	}
	return service, nil
}
