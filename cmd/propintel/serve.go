package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/adapter/httpadapter"
	kafkaadapter "github.com/TristanSnyder/Property-Intelligence-Platform/internal/adapter/kafka"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/observability"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the Kafka analysis worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.NewLogger(cfg)

		engine, err := newEngine(cfg, logger, metrics)
		if err != nil {
			return err
		}

		reader := kafkaadapter.NewReader(cfg, logger)
		writer := kafkaadapter.NewWriter(cfg, logger)
		processor := pipeline.NewProcessor(engine, logger)

		p := pipeline.New(reader, processor, writer, logger, metrics, cfg.BatchSize)

		srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.AllReady{engine, p}, engine, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			logger.Info("http server listening", "addr", cfg.HTTPAddr)
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()

		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

func init() { rootCmd.AddCommand(serveCmd) }
