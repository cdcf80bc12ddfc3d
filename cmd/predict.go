package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klug-labs/closing-cli/internal/artifact"
	"github.com/klug-labs/closing-cli/internal/enrich"
	"github.com/klug-labs/closing-cli/internal/fetcher"
	"github.com/klug-labs/closing-cli/internal/model"
	"github.com/klug-labs/closing-cli/internal/predict"
	sfpkg "github.com/klug-labs/closing-cli/pkg/salesforce"
)

var (
	predictFile       string
	predictJSON       string
	predictSalesforce bool
	predictAlias      string
	predictEnrich     bool
	predictOutput     string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict closing dates for open opportunities",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("predict"); err != nil {
			return err
		}

		records, err := predictionInput(cmd)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return eris.New("no input records")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if predictEnrich {
			stats, err := enrich.Run(ctx, initEnricher(st), records)
			if err != nil {
				return eris.Wrap(err, "enrich prediction set")
			}
			zap.L().Info("prediction set enriched",
				zap.Int("looked_up", stats.LookedUp),
				zap.Int("cache_hits", stats.CacheHits),
				zap.Int("failed", stats.Failed),
			)
		}

		arts, err := artifact.Load(cfg.Model.ArtifactDir)
		if err != nil {
			return err
		}

		run, err := predict.New(arts).Run(records)
		if err != nil {
			return err
		}
		if err := st.SavePredictionRun(ctx, run); err != nil {
			return eris.Wrap(err, "save prediction run")
		}

		out := os.Stdout
		if predictOutput != "" {
			f, err := os.Create(predictOutput)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"run":        run,
			"projection": predict.Project(run.Predictions, time.Now()),
		})
	},
}

// predictionInput resolves the one input source the flags select.
func predictionInput(cmd *cobra.Command) ([]model.Opportunity, error) {
	ctx := cmd.Context()

	sources := 0
	for _, set := range []bool{predictFile != "", predictJSON != "", predictSalesforce} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, eris.New("exactly one of --file, --json, or --salesforce is required")
	}

	switch {
	case predictFile != "":
		records, _, err := loadRecords(ctx, predictFile, predictAlias)
		return records, err
	case predictJSON != "":
		f, err := os.Open(predictJSON)
		if err != nil {
			return nil, eris.Wrap(err, "open json input")
		}
		defer f.Close()
		return fetcher.ReadOpportunities(f)
	default:
		sf, err := initSalesforce()
		if err != nil {
			return nil, err
		}
		return sfpkg.FetchOpenOpportunities(ctx, sf)
	}
}

func init() {
	predictCmd.Flags().StringVar(&predictFile, "file", "", "spreadsheet with open opportunities (path or URL)")
	predictCmd.Flags().StringVar(&predictJSON, "json", "", "JSON file with opportunity records")
	predictCmd.Flags().BoolVar(&predictSalesforce, "salesforce", false, "fetch open opportunities from Salesforce")
	predictCmd.Flags().StringVar(&predictAlias, "alias-file", "", "YAML column alias file")
	predictCmd.Flags().BoolVar(&predictEnrich, "enrich", false, "enrich records with registry data before scoring")
	predictCmd.Flags().StringVar(&predictOutput, "output", "", "write results to a file instead of stdout")
	rootCmd.AddCommand(predictCmd)
}
