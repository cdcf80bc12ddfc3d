package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klug-labs/closing-cli/internal/artifact"
	"github.com/klug-labs/closing-cli/internal/assistant"
	"github.com/klug-labs/closing-cli/internal/server"
	anthropicpkg "github.com/klug-labs/closing-cli/pkg/anthropic"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the prediction API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		arts, err := artifact.Load(cfg.Model.ArtifactDir)
		if err != nil {
			return eris.Wrap(err, "load model artifacts")
		}

		opts := []server.Option{}
		if cfg.Anthropic.Key != "" {
			a := assistant.New(
				anthropicpkg.NewClient(cfg.Anthropic.Key),
				assistant.WithModel(cfg.Anthropic.Model),
			)
			opts = append(opts, server.WithAssistant(a))
		} else {
			zap.L().Info("no anthropic key configured, assistant endpoint disabled")
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: server.New(st, arts, opts...).Router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.Time("model_trained_at", arts.Meta.TrainedAt),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
