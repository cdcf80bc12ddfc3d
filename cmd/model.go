package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/klug-labs/closing-cli/internal/artifact"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect the trained model artifacts",
}

var modelInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print artifact metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		arts, err := artifact.Load(cfg.Model.ArtifactDir)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"artifact_dir": cfg.Model.ArtifactDir,
			"version":      arts.Meta.Version,
			"trained_at":   arts.Meta.TrainedAt,
			"samples":      arts.Meta.Samples,
			"mae_days":     arts.Meta.MAE,
			"r2":           arts.Meta.R2,
			"features":     len(arts.Meta.FeatureNames),
			"trees":        len(arts.Model.Trees),
		})
	},
}

func init() {
	modelCmd.AddCommand(modelInfoCmd)
	rootCmd.AddCommand(modelCmd)
}
