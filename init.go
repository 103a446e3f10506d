package main

import (
	"context"

	"github.com/tournevent/skynet/internal/config"
	"github.com/tournevent/skynet/internal/telemetry"
	"github.com/tournevent/skynet/pkg/skynet"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
)

func loadConfig(envFile string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if envFile != "" {
		cfg, err = config.Load(envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogger logs to stderr; stdout is reserved for response bodies.
func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level, "stderr")
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

func newClient(cfg *config.Config, logger *otelzap.Logger) *skynet.Client {
	tracer := otel.GetTracerProvider().Tracer(cfg.ServiceName)
	return skynet.New(cfg.ClientConfig(), logger, tracer)
}
