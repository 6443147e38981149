package model

import (
	"fmt"

	"github.com/ignitionstack/modelreg/internal/config"
	"github.com/ignitionstack/modelreg/internal/ui"
	"github.com/spf13/cobra"
)

func NewDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <version>",
		Aliases: []string{"rm"},
		Short:   "Delete a single version",
		Long: `Remove one version and its artifact. The latest version is never deleted;
the command reports that nothing was removed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			versionID := args[0]

			if err := confirmDeletion(yes, "Delete "+versionID+"?", "The artifact is removed from disk."); err != nil {
				return err
			}

			return withSession(func(s *session) error {
				removed, err := s.registry.DeleteVersion(cmd.Context(), versionID)
				if err != nil {
					return explain(err)
				}

				switch {
				case config.Plain:
					fmt.Println(removed)
				case removed:
					ui.PrintSuccess("Deleted " + versionID)
				default:
					ui.PrintWarning(versionID + " was not deleted (unknown or latest version)")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

var errNotConfirmed = fmt.Errorf("aborted")

// confirmDeletion asks before a destructive command unless --yes was given.
// Plain mode can't prompt, so it requires --yes.
func confirmDeletion(yes bool, title, description string) error {
	if yes {
		return nil
	}
	if config.Plain {
		return fmt.Errorf("refusing to delete without --yes in plain mode")
	}
	ok, err := ui.Confirm(title, description)
	if err != nil {
		return err
	}
	if !ok {
		return errNotConfirmed
	}
	return nil
}
