package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignitionstack/modelreg/internal/config"
	"github.com/ignitionstack/modelreg/internal/ui"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "modelreg",
	Short: "Versioned registry for trained model artifacts",
	Long: `modelreg stores trained model artifacts as immutable, timestamped versions
together with their evaluation metrics, and tells serving code which artifact to load.

Key capabilities:
* Register an artifact with its metrics and description
* Resolve the latest (or a specific) version to a local path
* Inspect and list versions with their metrics
* Apply retention policies by count, age or metric threshold
* Watch for new latest versions`,
	Example: `  # Register a freshly trained model
  modelreg register ./model.bin --metric R2=0.81 --metric MSE=0.42 -d "nightly retrain"

  # Path of the artifact serving should load
  modelreg resolve

  # Keep the five most recent versions
  modelreg cleanup --keep-last 5

  # Use a custom config file
  modelreg --config ~/.modelreg/custom.yaml list`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if config.Plain {
			os.Stderr.WriteString("Error: " + err.Error() + "\n")
		} else {
			ui.PrintError(err.Error())
		}
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&config.ConfigPath, "config", "c", config.DefaultConfigPath, "Path to the configuration file")
	flags.StringVarP(&config.RootOverride, "root", "r", "", "Registry root directory (overrides config)")
	flags.StringVar(&config.LogLevelOverride, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flags.StringVar(&config.LogFileOverride, "log-file", "", "Write logs to this file instead of stderr")
	flags.BoolVar(&config.Plain, "plain", ui.IsCI(), "Plain output without colors, spinners or prompts")
}
