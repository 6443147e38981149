package di

import (
	"context"

	"github.com/ignitionstack/modelreg/internal/config"
	"github.com/ignitionstack/modelreg/internal/services"
	"github.com/ignitionstack/modelreg/pkg/registry"
	localregistry "github.com/ignitionstack/modelreg/pkg/registry/local"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// SchedulerConfig is supplied by `modelreg cleanup --every`.
type SchedulerConfig struct {
	Policy registry.CleanupPolicy
}

// Module wires the long-running cleanup scheduler. The caller supplies
// *config.Config, *zap.Logger and SchedulerConfig.
var Module = fx.Module("modelreg",
	fx.Provide(
		provideRegistry,
		func(reg *localregistry.Registry) registry.Registry { return reg },
		provideScheduler,
	),
	fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: logger.Named("fx")}
	}),
)

func provideRegistry(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*localregistry.Registry, error) {
	reg, err := OpenRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return reg.Close()
		},
	})
	return reg, nil
}

func provideScheduler(lc fx.Lifecycle, reg registry.Registry, cfg *config.Config, sc SchedulerConfig, logger *zap.Logger) *services.CleanupScheduler {
	scheduler := services.NewCleanupScheduler(reg, sc.Policy, cfg.Cleanup.Interval, logger.Named("scheduler"))
	lc.Append(fx.Hook{
		OnStart: scheduler.Start,
		OnStop:  scheduler.Stop,
	})
	return scheduler
}
