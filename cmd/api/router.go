package main

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/carrier-selection/pkg/logging"
	"github.com/wms-platform/carrier-selection/pkg/metrics"
	"github.com/wms-platform/carrier-selection/pkg/middleware"
)

type routerDeps struct {
	selector carrierSelector
	pickings pickingLister
	starter  batchStarter // nil when Temporal is disabled
	ready    func(ctx context.Context) error
	metrics  *metrics.Metrics
	logger   *logging.Logger
}

func newRouter(deps routerDeps) *gin.Engine {
	router := gin.New()

	middleware.Setup(router, middleware.DefaultConfig(serviceName, deps.logger.Logger))
	if deps.metrics != nil {
		router.Use(middleware.MetricsMiddleware(deps.metrics))
	}
	router.Use(middleware.Tracing(serviceName))

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, map[string]middleware.Check{
		"database": deps.ready,
	}))
	if deps.metrics != nil {
		router.GET("/metrics", middleware.MetricsEndpoint(deps.metrics))
	}

	router.GET("/api/pickings/", listPickingsHandler(deps.pickings, deps.logger))

	selection := router.Group("/api/carrier-selection")
	{
		selection.POST("/select", selectCarriersHandler(deps.selector, deps.logger))
		selection.POST("/batch-select", batchSelectHandler(deps.selector, deps.logger))
		selection.POST("/batch-select/async", startBatchHandler(deps.starter, deps.logger))
		selection.GET("/:picking_id", selectCarriersByPathHandler(deps.selector, deps.logger))
	}

	return router
}
