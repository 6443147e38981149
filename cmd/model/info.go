package model

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ignitionstack/modelreg/internal/config"
	"github.com/ignitionstack/modelreg/internal/ui"
	"github.com/ignitionstack/modelreg/pkg/manifest"
	"github.com/ignitionstack/modelreg/pkg/registry"
	"github.com/spf13/cobra"
)

func NewInfoCommand() *cobra.Command {
	var (
		asJSON     bool
		exportPath string
	)

	cmd := &cobra.Command{
		Use:   "info [version]",
		Short: "Show the metadata of a version (latest by default)",
		Example: `  # Metadata of the latest version
  modelreg info

  # Full record as JSON
  modelreg info v_20240601_120000_000000000 --json

  # Write the version's metrics and labels as a manifest for re-registration
  modelreg info --export run.toml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(s *session) error {
				ctx := cmd.Context()

				versionID := ""
				if len(args) == 1 {
					versionID = args[0]
				} else {
					latest, err := s.registry.LatestVersion(ctx)
					if err != nil {
						return explain(err)
					}
					versionID = latest
				}

				rec, err := s.registry.GetVersionInfo(ctx, versionID)
				if err != nil {
					return explain(err)
				}

				if exportPath != "" {
					data, err := manifest.FromRecord(rec).Encode(exportPath)
					if err != nil {
						return err
					}
					if err := os.WriteFile(exportPath, data, 0644); err != nil {
						return fmt.Errorf("failed to write manifest: %w", err)
					}
					if !config.Plain {
						ui.PrintSuccess("Wrote " + exportPath)
					}
					return nil
				}

				if asJSON {
					data, err := json.MarshalIndent(rec, "", "  ")
					if err != nil {
						return err
					}
					if config.Plain {
						fmt.Println(string(data))
					} else {
						fmt.Println(ui.HighlightJSON(string(data)))
					}
					return nil
				}

				path, err := s.registry.Resolve(ctx, rec.VersionID)
				if err != nil {
					return explain(err)
				}
				renderRecord(rec, path)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the record as JSON")
	cmd.Flags().StringVar(&exportPath, "export", "", "Write metrics, description and labels to a manifest file (.yaml, .toml, .json)")
	return cmd
}

func renderRecord(rec *registry.VersionRecord, path string) {
	if !config.Plain {
		fmt.Println(ui.TitleStyle.Render(rec.VersionID))
	}
	ui.PrintInfo("Created", rec.CreatedAt.Local().Format(time.RFC3339))
	ui.PrintInfo("Artifact", path)
	ui.PrintInfo("Size", ui.FormatSize(rec.Size))
	if rec.Digest != "" {
		ui.PrintInfo("Digest", rec.Digest)
	}
	ui.PrintInfo("Metrics", ui.FormatMetrics(rec.Metrics))

	if len(rec.Labels) > 0 {
		keys := make([]string, 0, len(rec.Labels))
		for k := range rec.Labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ui.PrintMetadata(k, rec.Labels[k])
		}
	}

	if rec.Description != "" {
		fmt.Println()
		fmt.Println(ui.Wrap(rec.Description, ui.TerminalWidth(), 2))
	}
}
