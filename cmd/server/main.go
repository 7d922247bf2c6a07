package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	billingapp "github.com/microlend/backend/internal/application/billing"
	lendingapp "github.com/microlend/backend/internal/application/lending"
	offeringapp "github.com/microlend/backend/internal/application/offering"
	reportapp "github.com/microlend/backend/internal/application/report"
	"github.com/microlend/backend/internal/domain/shared"
	"github.com/microlend/backend/internal/infrastructure/auth"
	"github.com/microlend/backend/internal/infrastructure/cache"
	"github.com/microlend/backend/internal/infrastructure/config"
	"github.com/microlend/backend/internal/infrastructure/event"
	"github.com/microlend/backend/internal/infrastructure/logger"
	"github.com/microlend/backend/internal/infrastructure/persistence"
	"github.com/microlend/backend/internal/infrastructure/relay"
	"github.com/microlend/backend/internal/infrastructure/scheduler"
	"github.com/microlend/backend/internal/infrastructure/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting microlend backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("driver", cfg.Database.Driver),
	)

	ctx := context.Background()

	// Telemetry bootstrap; a disabled config yields a no-op provider
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	// Database connection with the zap-backed gorm logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := persistence.AutoMigrate(db.DB); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database connected")

	// Event bus
	bus := event.NewInMemoryEventBus(log)
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Repositories and transactional plumbing
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	proposalRepo := persistence.NewGormProposalRepository(db.DB)
	offerRepo := persistence.NewGormOfferRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	sequence := persistence.NewGormSequence(db.DB)
	txManager := persistence.NewGormTxManager(db.DB)

	// The inner services buffer their events; the orchestrator flushes
	// the buffer to the bus after commit
	deferred := shared.NewDeferredPublisher(bus)

	billingService := billingapp.NewBillingService(customerRepo, sequence, cfg.Policy.AutoRegisterOnPrivilegedWrite)
	billingService.SetEventPublisher(deferred)

	offeringService := offeringapp.NewOfferingService(proposalRepo, offerRepo, productRepo, sequence)
	offeringService.SetEventPublisher(deferred)

	var authorizer lendingapp.Authorizer
	if cfg.JWT.Secret != "" {
		authorizer = auth.NewJWTAuthorizer(auth.NewJWTService(cfg.JWT))
	} else {
		// Development only; config validation rejects this in production
		authorizer = auth.AllowAllAuthorizer{}
		log.Warn("JWT secret not set, operator authorization disabled")
	}

	lendingService := lendingapp.NewLendingService(billingService, offeringService, authorizer, txManager)
	lendingService.SetEventPublisher(bus)

	reportingService := reportapp.NewReportingService(customerRepo, proposalRepo, offerRepo, productRepo)

	// Operator relay
	var dedupeStore cache.DedupeStore
	if cfg.Relay.Enabled {
		if cfg.Redis.Enabled {
			dedupeStore, err = cache.NewRedisDedupeStore(cfg.Redis)
			if err != nil {
				log.Fatal("Failed to connect to Redis", zap.Error(err))
			}
		} else {
			dedupeStore = cache.NewInMemoryDedupeStore()
		}
		forwarder := relay.NewForwarder(cfg.Relay, cfg.Policy.EmitEmptyOffers, proposalRepo, dedupeStore, log)
		bus.Subscribe(forwarder)
		log.Info("Operator relay subscribed", zap.String("endpoint", cfg.Relay.Endpoint))
	}

	// Periodic reporting digest
	reportingScheduler := scheduler.NewReportingScheduler(reportingService, log, time.Hour)
	reportingScheduler.Start(ctx)

	// Startup summary from the ledger
	if proposals, err := lendingService.ProposalsCount(ctx); err == nil {
		offers, _ := lendingService.OffersCount(ctx)
		log.Info("Ledger loaded",
			zap.Int64("proposals", proposals),
			zap.Int64("offers", offers),
		)
	}

	log.Info("Microlend backend started")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	reportingScheduler.Stop()
	if dedupeStore != nil {
		if err := dedupeStore.Close(); err != nil {
			log.Error("Error closing dedupe store", zap.Error(err))
		}
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
