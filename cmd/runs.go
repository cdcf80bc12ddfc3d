package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored prediction runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListPredictionRuns(ctx, runsLimit)
		if err != nil {
			return err
		}

		type runSummary struct {
			ID        string    `json:"id"`
			Status    string    `json:"status"`
			Total     int       `json:"total"`
			Predicted int       `json:"predicted"`
			Excluded  int       `json:"excluded"`
			CreatedAt time.Time `json:"created_at"`
		}
		summaries := make([]runSummary, 0, len(runs))
		for _, r := range runs {
			summaries = append(summaries, runSummary{
				ID:        r.ID,
				Status:    string(r.Status),
				Total:     r.Total,
				Predicted: len(r.Predictions),
				Excluded:  r.Excluded,
				CreatedAt: r.CreatedAt,
			})
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
