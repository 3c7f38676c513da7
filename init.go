package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/tournevent/shipmentmentor/internal/config"
	"github.com/tournevent/shipmentmentor/internal/telemetry"
	"github.com/tournevent/shipmentmentor/pkg/shipmentmentor"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// app bundles what every command needs.
type app struct {
	cfg    *config.Config
	logger *otelzap.Logger
	client *shipmentmentor.Client

	shutdownTracer func(context.Context) error
}

func setup(cmd *cobra.Command, logOutput string) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if env, _ := cmd.Flags().GetString("env"); env != "" {
		cfg.Environment = env
	}

	logger, err := initLogger(cfg.LogLevel, logOutput)
	if err != nil {
		return nil, err
	}

	tracer, shutdown, err := initTracer(cmd.Context(), cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
		shutdown = func(context.Context) error { return nil }
	}

	return &app{
		cfg:            cfg,
		logger:         logger,
		client:         shipmentmentor.New(cfg.Client(), logger, tracer),
		shutdownTracer: shutdown,
	}, nil
}

func (a *app) Close(ctx context.Context) {
	a.shutdownTracer(context.WithoutCancel(ctx))
	a.logger.Sync()
}

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level, output string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level, output)
}

// initTracer returns a nil tracer when tracing is disabled; the client
// falls back to a no-op tracer.
func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}

	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Attributes()...)
}
