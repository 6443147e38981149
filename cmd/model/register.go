package model

import (
	"fmt"

	"github.com/ignitionstack/modelreg/internal/config"
	"github.com/ignitionstack/modelreg/internal/services"
	"github.com/ignitionstack/modelreg/internal/ui"
	"github.com/ignitionstack/modelreg/internal/ui/operations"
	"github.com/ignitionstack/modelreg/pkg/registry"
	"github.com/spf13/cobra"
)

func NewRegisterCommand() *cobra.Command {
	var (
		manifestPath string
		description  string
		metrics      []string
		labels       []string
		sourceDir    string
		noGit        bool
	)

	cmd := &cobra.Command{
		Use:   "register <artifact>",
		Short: "Register a trained model artifact as a new version",
		Long: `Copy a serialized model into the registry as a new immutable version and make
it the latest one.

Metrics and a description can come from a manifest file (YAML, TOML or JSON)
and from flags; flag values win. When run inside a git checkout the HEAD commit
is recorded as the git_commit label.`,
		Example: `  # Register with metrics from flags
  modelreg register ./model.bin --metric R2=0.81 --metric MSE=0.42 -d "nightly retrain"

  # Register with metrics from the training run's report
  modelreg register ./model.bin --manifest ./run.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := services.RegisterRequest{
				ArtifactPath: args[0],
				ManifestPath: manifestPath,
				Description:  description,
				Metrics:      metrics,
				Labels:       labels,
			}
			if !noGit {
				req.SourceDir = sourceDir
			}

			return withSession(func(s *session) error {
				ctx := cmd.Context()
				rec, err := operations.WithSpinner("Registering model...", config.Plain, func() (*registry.VersionRecord, error) {
					return s.service.RegisterModel(ctx, req)
				})
				if err != nil {
					return explain(err)
				}

				if config.Plain {
					fmt.Println(rec.VersionID)
					return nil
				}
				ui.PrintSuccess("Registered " + rec.VersionID)
				ui.PrintInfo("Metrics", ui.FormatMetrics(rec.Metrics))
				ui.PrintInfo("Size", ui.FormatSize(rec.Size))
				ui.PrintInfo("Digest", registry.TruncateDigest(rec.Digest, 12))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Manifest file with metrics, description and labels")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Free-text description of the training run")
	cmd.Flags().StringArrayVar(&metrics, "metric", nil, "Metric as NAME=VALUE (repeatable)")
	cmd.Flags().StringArrayVarP(&labels, "label", "l", nil, "Label as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&sourceDir, "source", ".", "Directory whose git HEAD is recorded")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "Do not record git provenance")
	return cmd
}
