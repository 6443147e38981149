package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ignitionstack/modelreg/internal/config"
	"github.com/ignitionstack/modelreg/internal/di"
	"github.com/ignitionstack/modelreg/internal/services"
	"github.com/ignitionstack/modelreg/internal/ui"
	"github.com/ignitionstack/modelreg/internal/ui/operations"
	"github.com/ignitionstack/modelreg/pkg/logging"
	"github.com/ignitionstack/modelreg/pkg/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
)

func NewCleanupCommand() *cobra.Command {
	var (
		keepLast  int
		maxAge    time.Duration
		minMetric string
		dryRun    bool
		yes       bool
		every     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete versions that fall outside a retention policy",
		Long: `Apply a retention policy. A version survives only if it passes every given
filter: among the newest --keep-last, younger than --max-age, and with the
--min-metric at or above the threshold. The latest version always survives.

Without filter flags the cleanup section of the config file is used.`,
		Example: `  # Keep the five most recent versions
  modelreg cleanup --keep-last 5 --yes

  # Preview what a metric threshold would remove
  modelreg cleanup --min-metric R2=0.5 --dry-run

  # Enforce a 30 day retention every hour until interrupted
  modelreg cleanup --max-age 720h --every 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			policy := cfg.Cleanup.Policy()
			if policyFlagsChanged(cmd.Flags()) {
				policy, err = policyFromFlags(cmd, keepLast, maxAge, minMetric)
				if err != nil {
					return err
				}
			}
			if policy.IsEmpty() {
				return fmt.Errorf("no retention filter given; use --keep-last, --max-age or --min-metric")
			}
			if err := policy.Validate(); err != nil {
				return err
			}

			if every > 0 {
				cfg.Cleanup.Interval = every
				return runScheduled(cmd.Context(), cfg, policy)
			}

			return withSession(func(s *session) error {
				ctx := cmd.Context()

				preview, err := s.service.PreviewCleanup(ctx, policy)
				if err != nil {
					return explain(err)
				}
				if dryRun || len(preview) == 0 {
					ids := registry.VersionIDs(preview)
					remaining, latest, err := remainingVersions(ctx, s.registry, ids)
					if err != nil {
						return explain(err)
					}
					writeCleanupReport(os.Stdout, ids, remaining, latest, dryRun)
					return nil
				}

				title := fmt.Sprintf("Delete %d version(s)?", len(preview))
				if err := confirmDeletion(yes, title, strings.Join(registry.VersionIDs(preview), "\n")); err != nil {
					return err
				}

				deleted, err := operations.WithSpinner("Cleaning up...", config.Plain, func() ([]string, error) {
					return s.registry.Cleanup(ctx, policy)
				})
				if err != nil {
					return explain(err)
				}
				remaining, latest, err := remainingVersions(ctx, s.registry, nil)
				if err != nil {
					return explain(err)
				}
				writeCleanupReport(os.Stdout, deleted, remaining, latest, false)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&keepLast, "keep-last", "k", 0, "Keep only the N most recent versions")
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Delete versions older than this (e.g. 720h)")
	cmd.Flags().StringVar(&minMetric, "min-metric", "", "Delete versions whose metric is below a threshold, as NAME=VALUE")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only show what would be deleted")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().DurationVar(&every, "every", 0, "Keep running and apply the policy at this interval")
	return cmd
}

// policyFlagsChanged reports whether any retention filter was set on the
// command line, which then replaces the configured policy entirely.
func policyFlagsChanged(flags *pflag.FlagSet) bool {
	changed := false
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "keep-last", "max-age", "min-metric":
			changed = true
		}
	})
	return changed
}

func policyFromFlags(cmd *cobra.Command, keepLast int, maxAge time.Duration, minMetric string) (registry.CleanupPolicy, error) {
	var policy registry.CleanupPolicy
	if cmd.Flags().Changed("keep-last") {
		policy.KeepLastN = registry.KeepLast(keepLast)
	}
	policy.MaxAge = maxAge
	if minMetric != "" {
		name, raw, ok := strings.Cut(minMetric, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return policy, fmt.Errorf("invalid --min-metric %q, expected NAME=VALUE", minMetric)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return policy, fmt.Errorf("invalid --min-metric threshold %q: %w", raw, err)
		}
		policy.MinMetric = &registry.MetricThreshold{Name: strings.TrimSpace(name), Min: v}
	}
	return policy, nil
}

// remainingVersions lists the versions left after a cleanup, leaving out
// the ids a dry run would delete.
func remainingVersions(ctx context.Context, reg registry.Registry, exclude []string) ([]registry.VersionRecord, string, error) {
	versions, err := reg.ListVersions(ctx)
	if err != nil {
		return nil, "", err
	}
	latest, err := reg.LatestVersion(ctx)
	if err != nil && !errors.Is(err, registry.ErrEmptyRegistry) {
		return nil, "", err
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	remaining := make([]registry.VersionRecord, 0, len(versions))
	for _, v := range versions {
		if _, ok := skip[v.VersionID]; !ok {
			remaining = append(remaining, v)
		}
	}
	return remaining, latest, nil
}

// writeCleanupReport prints the deleted ids followed by the versions that
// survived.
func writeCleanupReport(w io.Writer, deleted []string, remaining []registry.VersionRecord, latest string, dryRun bool) {
	verb := "Deleted"
	if dryRun {
		verb = "Would delete"
	}

	if config.Plain {
		fmt.Fprintf(w, "%s %d version(s):\n", verb, len(deleted))
		for _, id := range deleted {
			fmt.Fprintln(w, id)
		}
		fmt.Fprintf(w, "Remaining %d version(s):\n", len(remaining))
		if len(remaining) > 0 {
			fmt.Fprint(w, renderVersions(remaining, latest))
		}
		return
	}

	if len(deleted) == 0 {
		fmt.Fprintln(w, ui.DimStyle.Render("Nothing to delete."))
	} else {
		fmt.Fprintln(w, ui.SuccessStyle.Render(fmt.Sprintf("%s %s %d version(s)", ui.SuccessSymbol, verb, len(deleted))))
		for _, id := range deleted {
			fmt.Fprintln(w, "  "+id)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.TitleStyle.Render(fmt.Sprintf("Remaining %d version(s)", len(remaining))))
	if len(remaining) > 0 {
		fmt.Fprint(w, renderVersions(remaining, latest))
	}
}

// runScheduled hosts the cleanup loop in an fx application until ctx is
// cancelled.
func runScheduled(ctx context.Context, cfg *config.Config, policy registry.CleanupPolicy) error {
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return err
	}
	defer logger.Sync()

	app := fx.New(
		fx.Supply(cfg, logger, di.SchedulerConfig{Policy: policy}),
		di.Module,
		fx.Invoke(func(*services.CleanupScheduler) {}),
		fx.StartTimeout(30*time.Second),
		fx.StopTimeout(30*time.Second),
	)

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cleanup scheduler: %w", err)
	}

	if !config.Plain {
		ui.PrintInfo("Policy", policy.String())
		ui.PrintInfo("Interval", cfg.Cleanup.Interval.String())
		fmt.Println(ui.DimStyle.Render("Press Ctrl+C to stop"))
	}

	select {
	case <-ctx.Done():
	case <-app.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	return nil
}
