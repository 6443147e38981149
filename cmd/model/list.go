package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/ignitionstack/modelreg/internal/config"
	"github.com/ignitionstack/modelreg/internal/ui"
	"github.com/ignitionstack/modelreg/pkg/registry"
	"github.com/spf13/cobra"
)

func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered versions, oldest first",
		Example: `  # Show all versions with their metrics
  modelreg list

  # Plain output for scripts
  modelreg list --plain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(func(s *session) error {
				ctx := cmd.Context()
				versions, err := s.registry.ListVersions(ctx)
				if err != nil {
					return explain(err)
				}
				if len(versions) == 0 {
					ui.PrintEmptyState("No models registered yet.")
					return nil
				}

				latest, err := s.registry.LatestVersion(ctx)
				if err != nil && !errors.Is(err, registry.ErrEmptyRegistry) {
					return explain(err)
				}

				fmt.Print(renderVersions(versions, latest))
				return nil
			})
		},
	}
	return cmd
}

func renderVersions(versions []registry.VersionRecord, latest string) string {
	table := ui.NewTable([]string{"VERSION", "CREATED", "METRICS", "SIZE", "DESCRIPTION"})
	for _, v := range versions {
		table.AddRow(
			versionLabel(v.VersionID, latest),
			v.CreatedAt.Local().Format(time.DateTime),
			ui.FormatMetrics(v.Metrics),
			ui.FormatSize(v.Size),
			ui.TruncateWithEllipsis(v.Description, 40),
		)
	}
	if config.Plain {
		return ui.RenderPlainTable(table)
	}
	return ui.RenderTable(table)
}
