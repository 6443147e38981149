package model

import (
	"errors"
	"fmt"

	"github.com/ignitionstack/modelreg/internal/config"
	"github.com/ignitionstack/modelreg/internal/di"
	"github.com/ignitionstack/modelreg/internal/services"
	"github.com/ignitionstack/modelreg/internal/ui"
	"github.com/ignitionstack/modelreg/pkg/logging"
	"github.com/ignitionstack/modelreg/pkg/registry"
	localregistry "github.com/ignitionstack/modelreg/pkg/registry/local"
	"go.uber.org/zap"
)

// session bundles what a one-shot command needs.
type session struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *localregistry.Registry
	service  services.ModelService
}

func openSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}

	container, err := di.BuildContainer(cfg, logger)
	if err != nil {
		return nil, err
	}
	reg, err := di.GetRegistry(container)
	if err != nil {
		return nil, err
	}
	svc, err := di.GetModelService(container)
	if err != nil {
		_ = reg.Close()
		return nil, err
	}

	return &session{cfg: cfg, logger: logger, registry: reg, service: svc}, nil
}

func (s *session) Close() error {
	_ = s.logger.Sync()
	return s.registry.Close()
}

// withSession opens the registry, runs fn and closes it again.
func withSession(fn func(s *session) error) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// explain adds a hint for the errors users hit most.
func explain(err error) error {
	switch {
	case registry.IsNotFound(err):
		return fmt.Errorf("%w (run `modelreg list` to see registered versions)", err)
	case errors.Is(err, registry.ErrEmptyRegistry):
		return fmt.Errorf("%w (register a model with `modelreg register` first)", err)
	case errors.Is(err, registry.ErrRegistryBusy):
		return fmt.Errorf("%w (another writer holds the lock)", err)
	case errors.Is(err, registry.ErrIndexCorrupt):
		return fmt.Errorf("%w (the index and the stored artifacts disagree; restore the missing units or the index)", err)
	}
	return err
}

func versionLabel(id, latest string) string {
	if id != latest {
		return id
	}
	if config.Plain {
		return id + " (latest)"
	}
	return ui.LatestStyle.Render(id + " " + ui.LatestSymbol)
}
