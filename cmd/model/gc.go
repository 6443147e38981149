package model

import (
	"fmt"

	"github.com/ignitionstack/modelreg/internal/config"
	"github.com/ignitionstack/modelreg/internal/ui"
	"github.com/spf13/cobra"
)

func NewGCCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Remove stored artifacts no version refers to",
		Long: `Reconcile storage with the index. Artifacts left behind by interrupted
registrations or cleanups are removed. If a version in the index has lost its
artifact nothing is removed and the command fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(func(s *session) error {
				removed, err := s.registry.Reconcile(cmd.Context())
				if err != nil {
					return explain(err)
				}

				if config.Plain {
					for _, unit := range removed {
						fmt.Println(unit)
					}
					return nil
				}
				if len(removed) == 0 {
					ui.PrintEmptyState("Storage is consistent with the index.")
					return nil
				}
				ui.PrintSuccess(fmt.Sprintf("Removed %d orphaned unit(s)", len(removed)))
				for _, unit := range removed {
					fmt.Println("  " + unit)
				}
				return nil
			})
		},
	}
	return cmd
}
