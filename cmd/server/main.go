package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/sanrakshak/herbtrace/api/handler"
	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/internal/config"
	"github.com/sanrakshak/herbtrace/internal/infrastructure/archive"
	"github.com/sanrakshak/herbtrace/internal/infrastructure/monitor"
	"github.com/sanrakshak/herbtrace/internal/infrastructure/outbox"
	"github.com/sanrakshak/herbtrace/internal/metrics"
	"github.com/sanrakshak/herbtrace/internal/middleware"
	"github.com/sanrakshak/herbtrace/internal/router"
	"github.com/sanrakshak/herbtrace/internal/services"
	"github.com/sanrakshak/herbtrace/internal/services/lifecycle"
	"github.com/sanrakshak/herbtrace/pkg/httpcontext"
	"github.com/sanrakshak/herbtrace/pkg/logger"
	auditUC "github.com/sanrakshak/herbtrace/usecase/audit"
	"github.com/sanrakshak/herbtrace/usecase/intake"
	ledgerUC "github.com/sanrakshak/herbtrace/usecase/ledger"
	registryUC "github.com/sanrakshak/herbtrace/usecase/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Service:     cfg.AppName,
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	store, err := openStorage(appCtx, cfg, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("storage setup failed", zap.Error(err))
	}

	outboxStore, err := outbox.Open(cfg.Outbox.Path, "outbox")
	if err != nil {
		zapLogger.Fatal("failed to open outbox store", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	var archiver services.Archiver
	archiveCfg := archive.Config{
		Bucket:    cfg.Archive.Bucket,
		Region:    cfg.Archive.Region,
		Endpoint:  cfg.Archive.Endpoint,
		Prefix:    cfg.Archive.Prefix,
		PathStyle: cfg.Archive.PathStyle,
	}
	probes := append([]monitor.Option{monitor.WithOutbox(outboxStore)}, store.probes...)
	if archiveCfg.Enabled() {
		s3Archiver, err := archive.New(appCtx, archiveCfg, zapLogger)
		if err != nil {
			zapLogger.Fatal("archive setup failed", zap.Error(err))
		}
		archiver = s3Archiver
		probes = append(probes, monitor.WithProbe("archive", s3Archiver.Ping, false, 0))
	}

	mon := monitor.New(cfg.Outbox.MonitorInterval, zapLogger, probes...)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	recorder := metrics.New()

	outboxProcessor := services.NewOutboxProcessor(
		outboxStore,
		mon,
		store.events,
		archiver,
		recorder,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Outbox.SyncInterval,
			BatchSize:  cfg.Outbox.BatchSize,
			MaxRetries: cfg.Outbox.MaxRetry,
			Retention:  cfg.OutboxRetention(),
		},
	)
	outboxProcessor.Start()
	manager.Register("outbox_processor", func(ctx context.Context) error {
		outboxProcessor.Stop(ctx)
		return outboxProcessor.Drain(ctx)
	})

	mode, err := domain.ParseTransitionMode(cfg.Ledger.TransitionMode)
	if err != nil {
		zapLogger.Fatal("invalid transition mode", zap.Error(err))
	}

	policy, err := intakePolicy(cfg.Ledger.PolicyFile, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to load intake policy", zap.Error(err))
	}

	ledger := ledgerUC.New(
		store.batches,
		intake.New(policy),
		ledgerUC.WithPublisher(services.NewOutboxBridge(outboxProcessor, archiver != nil)),
		ledgerUC.WithMetrics(recorder),
		ledgerUC.WithLogger(zapLogger),
		ledgerUC.WithTransitionMode(mode),
		ledgerUC.WithVerifyPath(cfg.Ledger.VerifyPath),
	)
	registry := registryUC.New(store.farmers, nil, zapLogger)
	audit := auditUC.New(store.batches, store.events)

	ctxAdapter := httpcontext.NewAdapter(appCtx, cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Batch:  apiHandler.NewBatchHandler(ledger, audit, ctxAdapter, zapLogger),
		Farmer: apiHandler.NewFarmerHandler(registry, ledger, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, cfg.Storage.Driver, ctxAdapter, zapLogger),
	}

	gate := middleware.NewRoleGate(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	if !gate.Enabled() {
		zapLogger.Warn("JWT_SECRET is empty; role checks are disabled")
	}

	routerOpts := router.Options{EnablePprof: cfg.HTTP.EnablePprof}
	if cfg.HTTP.EnableMetrics {
		routerOpts.Metrics = recorder.Registry()
	}
	r := router.New(handlers, gate.Require, routerOpts)

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		Concurrency:        cfg.HTTP.MaxConn,
		Name:               cfg.AppName,
		MaxRequestBodySize: 1 << 20,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("transition_mode", string(mode)))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
