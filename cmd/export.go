package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klug-labs/closing-cli/internal/model"
	"github.com/klug-labs/closing-cli/internal/store"
	notionpkg "github.com/klug-labs/closing-cli/pkg/notion"
)

var (
	exportRunID    string
	exportNotionDB string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Push a prediction run to a Notion database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if exportNotionDB != "" {
			cfg.Notion.PredictionDB = exportNotionDB
		}
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := loadRun(cmd, st, exportRunID)
		if err != nil {
			return err
		}

		client := notionpkg.NewClient(cfg.Notion.Token)
		created, err := notionpkg.ExportRun(ctx, client, cfg.Notion.PredictionDB, run)
		if err != nil {
			return eris.Wrapf(err, "export run %s (%d pages created)", run.ID, created)
		}

		zap.L().Info("run exported to notion",
			zap.String("run_id", run.ID),
			zap.Int("pages", created),
		)
		return nil
	},
}

// loadRun fetches the requested run, or the most recent one when no ID is
// given.
func loadRun(cmd *cobra.Command, st store.Store, id string) (run *model.PredictionRun, err error) {
	ctx := cmd.Context()
	if id != "" {
		run, err = st.GetPredictionRun(ctx, id)
	} else {
		run, err = st.LatestPredictionRun(ctx)
	}
	if err != nil {
		if eris.Is(err, store.ErrRunNotFound) {
			return nil, eris.New("no prediction run found, run `closing-cli predict` first")
		}
		return nil, err
	}
	return run, nil
}

func init() {
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "prediction run ID (default latest)")
	exportCmd.Flags().StringVar(&exportNotionDB, "notion-db", "", "target Notion database ID (default from config)")
	rootCmd.AddCommand(exportCmd)
}
