package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/klug-labs/closing-cli/internal/assistant"
	"github.com/klug-labs/closing-cli/internal/predict"
	anthropicpkg "github.com/klug-labs/closing-cli/pkg/anthropic"
)

var askRunID string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the assistant about the latest prediction run",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("assistant"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := loadRun(cmd, st, askRunID)
		if err != nil {
			return err
		}

		a := assistant.New(
			anthropicpkg.NewClient(cfg.Anthropic.Key),
			assistant.WithModel(cfg.Anthropic.Model),
		)

		question := strings.Join(args, " ")
		answer, err := a.Answer(ctx, question, run, predict.Project(run.Predictions, time.Now()))
		if err != nil {
			return err
		}

		fmt.Println(answer)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askRunID, "run", "", "prediction run ID (default latest)")
	rootCmd.AddCommand(askCmd)
}
