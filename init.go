package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tournevent/pakettikauppa/internal/config"
	"github.com/tournevent/pakettikauppa/internal/telemetry"
	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa"
	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa/mock"
)

// app carries the wiring shared by every command.
type app struct {
	cfg      *config.Config
	logger   *otelzap.Logger
	tracer   trace.Tracer
	registry *prometheus.Registry
	metrics  *telemetry.Metrics
	sender   pakettikauppa.RequestSender
	shutdown telemetry.ShutdownFunc
}

func newApp(ctx context.Context, logOutput string) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := initLogger(cfg.LogLevel, logOutput)
	if err != nil {
		return nil, err
	}

	tracer, shutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
		tracer, shutdown = telemetry.NoopTracer(), noShutdown
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		tracer:   tracer,
		registry: registry,
		metrics:  telemetry.NewMetrics(registry),
		sender:   initSender(cfg),
		shutdown: shutdown,
	}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn("Failed to shut down tracer", zap.Error(err))
	}
	a.logger.Sync()
}

func (a *app) merchantDispatcher() (*pakettikauppa.Dispatcher, error) {
	creds, err := pakettikauppa.MerchantCredentials(a.cfg.APIKey, a.cfg.Secret, a.cfg.TestMode)
	if err != nil {
		return nil, err
	}
	return a.dispatcher(creds), nil
}

func (a *app) resellerDispatcher() (*pakettikauppa.Dispatcher, error) {
	creds, err := pakettikauppa.ResellerCredentials(a.cfg.ResellerAPIKey, a.cfg.ResellerSecret, a.cfg.TestMode)
	if err != nil {
		return nil, err
	}
	return a.dispatcher(creds), nil
}

func (a *app) dispatcher(creds *pakettikauppa.Credentials) *pakettikauppa.Dispatcher {
	opts := []pakettikauppa.Option{
		pakettikauppa.WithLogger(a.logger),
		pakettikauppa.WithTracer(a.tracer),
		pakettikauppa.WithRecorder(a.metrics),
	}
	if a.cfg.BaseURL != "" {
		opts = append(opts, pakettikauppa.WithBaseURL(a.cfg.BaseURL))
	}
	return pakettikauppa.NewDispatcher(creds, a.sender, opts...)
}

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level, output string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level, output)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, telemetry.ShutdownFunc, error) {
	if !cfg.OTELEnabled {
		return telemetry.NoopTracer(), noShutdown, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Attributes()...)
}

func initSender(cfg *config.Config) pakettikauppa.RequestSender {
	if cfg.UseMock {
		return mock.NewSender()
	}
	return pakettikauppa.NewHTTPSender(pakettikauppa.HTTPSenderConfig{
		Timeout: cfg.Timeout,
		Debug:   cfg.HTTPDebug,
	})
}

func noShutdown(context.Context) error { return nil }
