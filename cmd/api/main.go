package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wms-platform/carrier-selection/internal/application"
	"github.com/wms-platform/carrier-selection/internal/config"
	"github.com/wms-platform/carrier-selection/internal/infrastructure/sqlstore"
	"github.com/wms-platform/carrier-selection/pkg/cloudevents"
	"github.com/wms-platform/carrier-selection/pkg/kafka"
	"github.com/wms-platform/carrier-selection/pkg/logging"
	"github.com/wms-platform/carrier-selection/pkg/metrics"
	"github.com/wms-platform/carrier-selection/pkg/outbox"
	"github.com/wms-platform/carrier-selection/pkg/temporal"
	"github.com/wms-platform/carrier-selection/pkg/tracing"
)

const serviceName = "carrier-selection-service"

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	logger := logging.New(logging.DefaultConfig(serviceName))
	logger.SetDefault()

	logger.Info("Starting carrier-selection API")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	ctx := context.Background()

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.Enabled = cfg.Tracing.Enabled
	tracingConfig.OTLPEndpoint = cfg.Tracing.Endpoint
	tracingConfig.SampleRate = cfg.Tracing.SampleRate
	tracingConfig.Environment = cfg.Env

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))

	db, err := sqlstore.Open(ctx, cfg.Database())
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if !cfg.IsProduction() {
		if err := sqlstore.Migrate(db); err != nil {
			logger.WithError(err).Error("Failed to migrate database")
			os.Exit(1)
		}
	}
	logger.Info("Connected to database", "driver", cfg.Database().Driver, "env", cfg.Env)

	store := sqlstore.NewStore(db, m, logger)
	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceCarrierSelection)

	reference := sqlstore.NewCachedReferenceRepository(
		sqlstore.NewReferenceRepository(store),
		cfg.Selection.ReferenceCacheTTL,
		m,
		logger,
	)
	pickings := sqlstore.NewPickingRepository(store)
	selections := sqlstore.NewSelectionRepository(store, eventFactory, kafka.Topics.ShippingEvents)

	selectionService := application.NewCarrierSelectionService(
		pickings,
		reference,
		selections,
		application.SelectionSettings{
			ShipOrigin:        cfg.Selection.ShipOrigin,
			MaxLeadTimeSpan:   cfg.Selection.MaxLeadTimeSpan,
			UnassignedCarrier: cfg.Selection.UnassignedCarrier,
		},
		m,
		logger,
	)
	pickingService := application.NewPickingService(pickings, cfg.Selection.UnassignedCarrier, logger)

	if cfg.Kafka.Enabled {
		kafkaConfig := kafka.DefaultConfig()
		kafkaConfig.Brokers = cfg.Kafka.Brokers
		producer := kafka.NewProducer(kafkaConfig, logger, m)
		defer producer.Close()

		publisher := outbox.NewPublisher(
			sqlstore.NewOutboxRepository(store),
			producer,
			logger,
			m,
			&outbox.PublisherConfig{
				PollInterval: cfg.Outbox.PollInterval,
				BatchSize:    cfg.Outbox.BatchSize,
				Retention:    cfg.Outbox.Retention,
			},
		)
		if err := publisher.Start(ctx); err != nil {
			logger.WithError(err).Error("Failed to start outbox publisher")
			os.Exit(1)
		}
		defer publisher.Stop()
		logger.Info("Outbox publisher started", "brokers", cfg.Kafka.Brokers)
	}

	var starter batchStarter
	if cfg.Temporal.Enabled {
		temporalConfig := temporal.DefaultConfig()
		temporalConfig.HostPort = cfg.Temporal.HostPort
		temporalConfig.Namespace = cfg.Temporal.Namespace
		temporalConfig.Identity = serviceName

		temporalClient, err := temporal.NewClient(ctx, temporalConfig, logger)
		if err != nil {
			// async batches answer 503 until the service is restarted
			logger.WithError(err).Warn("Temporal unavailable, async batches disabled")
		} else {
			defer temporalClient.Close()
			starter = &temporalBatchStarter{client: temporalClient}
			logger.Info("Connected to Temporal", "hostPort", temporalConfig.HostPort)
		}
	}

	router := newRouter(routerDeps{
		selector: selectionService,
		pickings: pickingService,
		starter:  starter,
		ready:    store.HealthCheck,
		metrics:  m,
		logger:   logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", cfg.Server.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
