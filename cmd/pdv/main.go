package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mercearia/pdv/internal/application/checkout"
	"github.com/mercearia/pdv/internal/domain/catalog"
	"github.com/mercearia/pdv/internal/infrastructure/backend"
	"github.com/mercearia/pdv/internal/infrastructure/cache"
	"github.com/mercearia/pdv/internal/infrastructure/config"
	"github.com/mercearia/pdv/internal/infrastructure/logger"
	"github.com/mercearia/pdv/internal/infrastructure/telemetry"
	"github.com/mercearia/pdv/internal/interfaces/terminal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pdv:", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	log, logFile, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
		_ = logFile.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	// Telemetry
	telCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}
	tp, err := telemetry.NewTracerProvider(ctx, telCfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	mp, err := telemetry.NewMeterProvider(ctx, telCfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telCfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize log export: %w", err)
	}
	if lp.IsEnabled() {
		log = telemetry.BridgeLogger(log, telemetry.NewZapOTELCore(lp, cfg.Telemetry.ServiceName, zapcore.InfoLevel))
	}
	defer shutdownTelemetry(log, tp, mp, lp)

	log.Info("Starting PDV",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("store_id", cfg.Backend.StoreID),
		zap.String("backend", cfg.Backend.BaseURL),
	)

	metrics, err := telemetry.NewCheckoutMetrics(mp.Meter("pdv/checkout"), cfg.Backend.StoreID, log)
	if err != nil {
		return fmt.Errorf("failed to register checkout metrics: %w", err)
	}

	// Backend gateway
	clientOpts := []backend.Option{backend.WithLogger(log.Named("backend"))}
	if cfg.Cache.Enabled {
		searchCache, err := cache.NewFactory(cfg.Cache.Backend, cfg.Cache.TTL, cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cache.WithLogger(log)).Create()
		if err != nil {
			return fmt.Errorf("failed to create search cache: %w", err)
		}
		defer searchCache.Close()
		clientOpts = append(clientOpts, backend.WithResponseCache(searchCache))
	}

	client, err := backend.NewClient(backend.Config{
		BaseURL:     cfg.Backend.BaseURL,
		Timeout:     cfg.Backend.Timeout,
		AuthToken:   cfg.Backend.AuthToken,
		SearchQPS:   cfg.Search.RateLimitQPS,
		SearchBurst: cfg.Search.RateLimitBurst,
		Breaker: backend.BreakerConfig{
			MaxRequests:         cfg.Breaker.MaxRequests,
			Interval:            cfg.Breaker.Interval,
			Timeout:             cfg.Breaker.Timeout,
			ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
		},
	}, clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	// Checkout session
	opts, err := sessionOptions(cfg)
	if err != nil {
		return err
	}
	checkoutLog := log.Named("checkout")
	session := checkout.NewSession(cfg.Backend.StoreID, opts,
		checkout.WithLogger(checkoutLog),
		checkout.WithRecorder(metrics),
	)
	executor := checkout.NewExecutor(client, checkoutLog,
		checkout.WithExecutorRecorder(metrics),
		checkout.WithMaxResults(cfg.Search.MaxResults),
	)

	ctx, _ = logger.WithStoreID(ctx, log, cfg.Backend.StoreID)
	model := terminal.NewModel(ctx, session, executor,
		terminal.WithPrinter(terminal.NewPrinter(cfg.App.Language)),
		terminal.WithLogger(checkoutLog),
	)
	defer model.Close()

	// All-motion tracking reports hover without a pressed button
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal: %w", err)
	}

	log.Info("PDV stopped", zap.String("breaker_state", client.BreakerState().String()))
	return nil
}

// sessionOptions maps configuration onto checkout options
func sessionOptions(cfg *config.Config) (checkout.Options, error) {
	opts := checkout.DefaultOptions()
	opts.Debounce = cfg.Search.Debounce
	opts.MinQueryLength = cfg.Search.MinQueryLength
	opts.NoticeTTL = cfg.Checkout.NoticeTTL
	opts.FailureNoticeTTL = cfg.Checkout.FailureNoticeTTL

	def := catalog.ParseQuantity(catalog.UnitContinuous, cfg.Checkout.ContinuousDefaultQuantity)
	if !def.IsPositive() {
		return opts, fmt.Errorf("checkout.continuous_default_quantity must be positive, got %q", cfg.Checkout.ContinuousDefaultQuantity)
	}
	opts.ContinuousDefault = def
	return opts, nil
}

func shutdownTelemetry(log *zap.Logger, tp *telemetry.TracerProvider, mp *telemetry.MeterProvider, lp *telemetry.LoggerProvider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := lp.Shutdown(ctx); err != nil {
		log.Error("Error shutting down log export", zap.Error(err))
	}
	if err := mp.Shutdown(ctx); err != nil {
		log.Error("Error shutting down metrics", zap.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracing", zap.Error(err))
	}
}
