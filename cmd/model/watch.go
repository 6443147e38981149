package model

import (
	"fmt"
	"time"

	"github.com/ignitionstack/modelreg/internal/config"
	"github.com/ignitionstack/modelreg/internal/ui"
	"github.com/spf13/cobra"
)

func NewWatchCommand() *cobra.Command {
	var resolvePaths bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print each new latest version as it is registered",
		Long: `Follow the registry and print the id of every new latest version, including
ones registered by other processes. Serving code can pipe this into a reload.`,
		Example: `  # Reload the model server whenever a new version lands
  modelreg watch --path --plain | while read p; do curl -X POST localhost:8000/reload -d "$p"; done`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(func(s *session) error {
				ctx := cmd.Context()
				updates, err := s.registry.Watch(ctx)
				if err != nil {
					return err
				}

				if !config.Plain {
					fmt.Println(ui.DimStyle.Render("Watching " + s.registry.Root() + ", press Ctrl+C to stop"))
				}

				for id := range updates {
					out := id
					if resolvePaths {
						path, err := s.registry.Resolve(ctx, id)
						if err != nil {
							s.logger.Sugar().Warnw("failed to resolve new version", "version", id, "error", err)
							continue
						}
						out = path
					}

					if config.Plain {
						fmt.Println(out)
					} else {
						fmt.Printf("%s %s\n", ui.DimStyle.Render(time.Now().Format(time.TimeOnly)), ui.LatestStyle.Render(out))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&resolvePaths, "path", false, "Print artifact paths instead of version ids")
	return cmd
}
