package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ignitionstack/modelreg/pkg/registry"
	"go.uber.org/zap"
)

// CleanupScheduler applies a retention policy on a fixed interval. A run that
// finds the registry busy is skipped and retried on the next tick.
type CleanupScheduler struct {
	registry registry.Registry
	policy   registry.CleanupPolicy
	interval time.Duration
	logger   *zap.Logger

	// OnRun, when set, receives the result of every run.
	OnRun func(deleted []string, err error)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCleanupScheduler(reg registry.Registry, policy registry.CleanupPolicy, interval time.Duration, logger *zap.Logger) *CleanupScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupScheduler{
		registry: reg,
		policy:   policy,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the first cleanup immediately and then once per interval until
// Stop is called.
func (s *CleanupScheduler) Start(ctx context.Context) error {
	if err := s.policy.Validate(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.RunOnce(runCtx)
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.RunOnce(runCtx)
			}
		}
	}()

	s.logger.Info("scheduled cleanup started",
		zap.Stringer("policy", s.policy),
		zap.Duration("interval", s.interval))
	return nil
}

// Stop cancels the loop and waits for an in-flight run to return.
func (s *CleanupScheduler) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce applies the policy a single time.
func (s *CleanupScheduler) RunOnce(ctx context.Context) {
	deleted, err := s.registry.Cleanup(ctx, s.policy)
	switch {
	case err == nil:
		if len(deleted) > 0 {
			s.logger.Info("scheduled cleanup deleted versions", zap.Strings("deleted", deleted))
		}
	case registry.IsRetryable(err):
		s.logger.Warn("registry busy, skipping cleanup run", zap.Error(err))
	case errors.Is(err, context.Canceled):
	default:
		s.logger.Error("scheduled cleanup failed", zap.Error(err))
	}

	if s.OnRun != nil {
		s.OnRun(deleted, err)
	}
}
