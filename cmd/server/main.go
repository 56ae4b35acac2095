package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/finflow/muleguard/internal/api"
	"github.com/finflow/muleguard/internal/config"
	"github.com/finflow/muleguard/internal/export"
	"github.com/finflow/muleguard/internal/httpserver"
	"github.com/finflow/muleguard/internal/logging"
	"github.com/finflow/muleguard/internal/telemetry"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	_, shutdownTracing, err := telemetry.NewTracerProvider(telemetry.TracingConfig{
		Enabled:     true,
		ServiceName: "muleguard",
	})
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	exportClient, err := buildExportClient(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create export client", "error", err)
		os.Exit(1)
	}
	var bridge *export.Bridge
	var prober api.HealthProber
	if exportClient != nil {
		defer func() {
			if err := exportClient.Close(context.Background()); err != nil {
				logger.Warn("closing export client failed", "error", err)
			}
		}()
		bridge = export.NewBridge(exportClient)
		prober = exportClient
	}

	handler := api.NewHandler(logger, cfg.Detectors.ToEngineConfig(), bridge, prober)
	router := api.NewRouter(logger, api.RouterDependencies{
		Handler:          handler,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	srv := httpserver.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildExportClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (export.Client, error) {
	if cfg.Export.URI == "" {
		logger.Info("export bridge disabled: no EXPORT_NEO4J_URI configured")
		return nil, nil
	}

	opts := export.Options{
		URI:            cfg.Export.URI,
		Database:       cfg.Export.Database,
		Username:       cfg.Export.Username,
		Password:       cfg.Export.Password,
		MaxConnections: cfg.Export.MaxConnections,
	}
	return export.NewNeo4jClient(ctx, opts)
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
