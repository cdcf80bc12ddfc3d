package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klug-labs/closing-cli/internal/artifact"
	"github.com/klug-labs/closing-cli/internal/enrich"
	"github.com/klug-labs/closing-cli/internal/model"
	"github.com/klug-labs/closing-cli/internal/schema"
	"github.com/klug-labs/closing-cli/internal/train"
)

var (
	trainFile   string
	trainAlias  string
	trainEnrich bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the closing-time estimator from a CRM export",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("train"); err != nil {
			return err
		}

		records, headers, err := loadRecords(ctx, trainFile, trainAlias)
		if err != nil {
			return err
		}
		if err := schema.RequireColumns(headers, model.ColSearchCycleDate, model.ColSaleDate); err != nil {
			return err
		}

		if trainEnrich {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := enrich.Run(ctx, initEnricher(st), records)
			if err != nil {
				return eris.Wrap(err, "enrich training set")
			}
			zap.L().Info("training set enriched",
				zap.Int("looked_up", stats.LookedUp),
				zap.Int("cache_hits", stats.CacheHits),
				zap.Int("failed", stats.Failed),
			)
		}

		result, err := train.Run(records, modelParams())
		if err != nil {
			return err
		}

		if err := artifact.Save(cfg.Model.ArtifactDir, result.Artifacts); err != nil {
			return err
		}

		zap.L().Info("artifacts written", zap.String("dir", cfg.Model.ArtifactDir))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"samples":  result.Artifacts.Meta.Samples,
			"features": len(result.Artifacts.Encoder.FeatureNames),
			"mae_days": result.Artifacts.Meta.MAE,
			"r2":       result.Artifacts.Meta.R2,
		})
	},
}

func init() {
	trainCmd.Flags().StringVar(&trainFile, "file", "", "training spreadsheet (path or URL, required)")
	trainCmd.Flags().StringVar(&trainAlias, "alias-file", "", "YAML column alias file")
	trainCmd.Flags().BoolVar(&trainEnrich, "enrich", false, "enrich records with registry data before training")
	_ = trainCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(trainCmd)
}
