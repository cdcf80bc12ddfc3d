package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klug-labs/closing-cli/internal/enrich"
	"github.com/klug-labs/closing-cli/internal/fetcher"
	"github.com/klug-labs/closing-cli/internal/schema"
)

var (
	enrichFile   string
	enrichAlias  string
	enrichOutput string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a CRM export with company registry data",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("enrich"); err != nil {
			return err
		}

		records, _, err := loadRecords(ctx, enrichFile, enrichAlias)
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

		stats, err := enrich.Run(ctx, initEnricher(st), records)
		if err != nil {
			return err
		}
		zap.L().Info("enrichment finished",
			zap.Int("records", stats.Records),
			zap.Int("distinct", stats.Distinct),
			zap.Int("looked_up", stats.LookedUp),
			zap.Int("cache_hits", stats.CacheHits),
			zap.Int("not_found", stats.NotFound),
			zap.Int("invalid", stats.Invalid),
			zap.Int("failed", stats.Failed),
		)

		headers, rows := schema.RenderRecords(records)

		out, err := os.Create(enrichOutput)
		if err != nil {
			return eris.Wrap(err, "create output file")
		}
		defer out.Close()

		return fetcher.WriteCSV(out, &fetcher.Table{Headers: headers, Rows: rows})
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichFile, "file", "", "spreadsheet to enrich (path or URL, required)")
	enrichCmd.Flags().StringVar(&enrichAlias, "alias-file", "", "YAML column alias file")
	enrichCmd.Flags().StringVar(&enrichOutput, "output", "enriched.csv", "enriched CSV output path")
	_ = enrichCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(enrichCmd)
}
