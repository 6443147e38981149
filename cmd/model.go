package cmd

import (
	"github.com/ignitionstack/modelreg/cmd/model"
)

func init() {
	rootCmd.AddCommand(model.NewRegisterCommand())
	rootCmd.AddCommand(model.NewResolveCommand())
	rootCmd.AddCommand(model.NewListCommand())
	rootCmd.AddCommand(model.NewInfoCommand())
	rootCmd.AddCommand(model.NewDeleteCommand())
	rootCmd.AddCommand(model.NewCleanupCommand())
	rootCmd.AddCommand(model.NewGCCommand())
	rootCmd.AddCommand(model.NewWatchCommand())
}
