package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/workflow"

	"github.com/wms-platform/carrier-selection/internal/activities"
	"github.com/wms-platform/carrier-selection/internal/application"
	"github.com/wms-platform/carrier-selection/internal/config"
	"github.com/wms-platform/carrier-selection/internal/infrastructure/sqlstore"
	"github.com/wms-platform/carrier-selection/internal/workflows"
	"github.com/wms-platform/carrier-selection/pkg/cloudevents"
	"github.com/wms-platform/carrier-selection/pkg/kafka"
	"github.com/wms-platform/carrier-selection/pkg/logging"
	"github.com/wms-platform/carrier-selection/pkg/metrics"
	"github.com/wms-platform/carrier-selection/pkg/temporal"
)

const serviceName = "carrier-selection-worker"

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	logger := logging.New(logging.DefaultConfig(serviceName))
	logger.SetDefault()

	logger.Info("Starting carrier-selection worker")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	ctx := context.Background()

	db, err := sqlstore.Open(ctx, cfg.Database())
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Connected to database", "driver", cfg.Database().Driver, "env", cfg.Env)

	m := metrics.New(metrics.DefaultConfig(serviceName))
	store := sqlstore.NewStore(db, m, logger)
	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceCarrierSelection)

	pickings := sqlstore.NewPickingRepository(store)
	selectionService := application.NewCarrierSelectionService(
		pickings,
		sqlstore.NewCachedReferenceRepository(sqlstore.NewReferenceRepository(store), cfg.Selection.ReferenceCacheTTL, m, logger),
		sqlstore.NewSelectionRepository(store, eventFactory, kafka.Topics.ShippingEvents),
		application.SelectionSettings{
			ShipOrigin:        cfg.Selection.ShipOrigin,
			MaxLeadTimeSpan:   cfg.Selection.MaxLeadTimeSpan,
			UnassignedCarrier: cfg.Selection.UnassignedCarrier,
		},
		m,
		logger,
	)

	temporalConfig := temporal.DefaultConfig()
	temporalConfig.HostPort = cfg.Temporal.HostPort
	temporalConfig.Namespace = cfg.Temporal.Namespace

	temporalClient, err := temporal.NewClient(ctx, temporalConfig, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to create Temporal client")
		os.Exit(1)
	}
	defer temporalClient.Close()
	logger.Info("Connected to Temporal", "hostPort", temporalConfig.HostPort)

	selectionActivities := activities.NewCarrierSelectionActivities(
		selectionService,
		sqlstore.NewOutboxRepository(store),
		eventFactory,
		kafka.Topics.ShippingEvents,
		logger.Logger,
	)

	w := temporalClient.NewWorker(temporal.DefaultWorkerOptions(temporal.TaskQueues.CarrierSelection))

	w.RegisterWorkflowWithOptions(workflows.CarrierSelectionWorkflow, workflow.RegisterOptions{
		Name: temporal.WorkflowNames.CarrierSelection,
	})
	w.RegisterActivityWithOptions(selectionActivities.SelectCarriersForPicking, activity.RegisterOptions{
		Name: temporal.ActivityNames.SelectCarriersForPicking,
	})
	w.RegisterActivityWithOptions(selectionActivities.PublishBatchCompleted, activity.RegisterOptions{
		Name: temporal.ActivityNames.PublishBatchCompleted,
	})
	logger.Info("Registered workflow and activities", "workflow", temporal.WorkflowNames.CarrierSelection)

	go func() {
		if err := w.Run(nil); err != nil {
			logger.WithError(err).Error("Worker failed")
			os.Exit(1)
		}
	}()
	logger.Info("Worker started", "taskQueue", temporal.TaskQueues.CarrierSelection)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down worker...")

	w.Stop()
	logger.Info("Worker stopped")
}
