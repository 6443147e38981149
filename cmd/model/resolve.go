package model

import (
	"fmt"

	"github.com/ignitionstack/modelreg/internal/config"
	"github.com/ignitionstack/modelreg/internal/ui"
	"github.com/spf13/cobra"
)

func NewResolveCommand() *cobra.Command {
	var copyPath bool

	cmd := &cobra.Command{
		Use:   "resolve [version]",
		Short: "Print the artifact path of a version (latest by default)",
		Long: `Print the local path of a registered artifact so serving code can load it.
Without a version the latest registration is resolved.`,
		Example: `  # Latest artifact
  modelreg resolve

  # A pinned version, copied to the clipboard
  modelreg resolve v_20240601_120000_000000000 --copy`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			versionID := ""
			if len(args) == 1 {
				versionID = args[0]
			}

			return withSession(func(s *session) error {
				path, err := s.registry.Resolve(cmd.Context(), versionID)
				if err != nil {
					return explain(err)
				}
				fmt.Println(path)

				if copyPath {
					if err := ui.CopyToClipboard(path); err != nil {
						return fmt.Errorf("failed to copy path: %w", err)
					}
					if !config.Plain {
						ui.PrintSuccess("Copied to clipboard")
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&copyPath, "copy", false, "Also copy the path to the clipboard")
	return cmd
}
