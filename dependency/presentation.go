package dependency

import (
	"context"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/nemaks/recordstore/infrastructure/cache"
	"github.com/nemaks/recordstore/infrastructure/metrics"
	"github.com/nemaks/recordstore/infrastructure/persistence/database"
	"github.com/nemaks/recordstore/presentation/controllers/audit"
	"github.com/nemaks/recordstore/presentation/controllers/search"
	"github.com/nemaks/recordstore/presentation/middlewares"
	"github.com/nemaks/recordstore/presentation/routes"
	"github.com/nemaks/recordstore/presentation/rpc"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func (c *Container) initControllers() {
	c.AuditController = audit.NewAuditController(c.AuditUC)
	c.SearchController = search.NewSearchController(c.SearchUC)

	c.Logger.Info("Controllers initialized successfully")
}

func (c *Container) initGrpc() {
	c.GrpcServer, c.HealthServer = rpc.NewServer(c.AuditUC, c.SearchUC, c.Logger, c.MetricsManager)

	c.Logger.Info("gRPC server initialized successfully")
}

func (c *Container) SetupRouter() *gin.Engine {
	switch c.Config.Server.RunMode {
	case "release", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	binding.Validator = new(middlewares.DefaultValidator)

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         5 * time.Second,
	}))

	if c.Config.IsProduction() {
		router.Use(middlewares.ForceHttps(c.Config))
	}

	router.Use(middlewares.RequestID())
	router.Use(middlewares.GinLogger(c.Logger))
	router.Use(middlewares.HTTPMetrics(c.MetricsManager))
	router.Use(middlewares.CorsMiddleware(c.Config))

	router.GET("/health", c.healthCheckHandler)

	c.registerObservabilityRoutes(router)

	c.registerAPIRoutes(router)

	c.Logger.Info("Router configured successfully")

	return router
}

func (c *Container) registerAPIRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		if limits, enabled := middlewares.RateLimiterConfigByName(c.Config.Server.RateLimit); enabled {
			v1.Use(middlewares.RateLimiterMiddleware(cache.GetRedis(), c.Logger, limits))
		}

		v1.Use(func(ctx *gin.Context) {
			if hub := sentrygin.GetHubFromContext(ctx); hub != nil {
				hub.Scope().SetUser(sentry.User{IPAddress: ctx.ClientIP()})
				hub.Scope().SetTag("request_id", middlewares.GetRequestID(ctx))
			}
			ctx.Next()
		})

		routes.AuditRoutes(v1, c.AuditController)
		routes.SearchRoutes(v1, c.SearchController)
	}
}

func (c *Container) healthCheckHandler(ctx *gin.Context) {
	status := "healthy"
	code := http.StatusOK

	if sqlDB, err := c.DB.DB(); err != nil || sqlDB.PingContext(ctx.Request.Context()) != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	ctx.JSON(code, gin.H{
		"status": status,
		"search": c.SearchUC.State().String(),
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (c *Container) registerObservabilityRoutes(router *gin.Engine) {
	metricsGroup := router.Group("/observability")
	{
		metrics.GetHandler(metricsGroup, c.MetricsManager)
	}
}

func (c *Container) Shutdown() error {
	c.Logger.Info("Shutting down dependencies...")

	if c.HealthServer != nil {
		c.HealthServer.SetServingStatus(rpc.AuditServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		c.HealthServer.SetServingStatus(rpc.SearchServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	}

	if c.IndexStatsJob != nil {
		c.IndexStatsJob.Stop()
	}

	// Stops the consumers; the audit batcher flushes what it holds before returning.
	if c.cancel != nil {
		c.cancel()
	}
	c.closeConsumers()

	if c.TracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.TracerProvider.Shutdown(ctx); err != nil {
			c.Logger.Error("failed to shutdown tracer provider", zap.Error(err))
		}
	}

	if c.MeterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.MeterProvider.Shutdown(ctx); err != nil {
			c.Logger.Error("failed to shutdown meter provider", zap.Error(err))
		}
	}

	if err := c.SearchUC.Close(); err != nil {
		c.Logger.Error("failed to close text index", zap.Error(err))
	}

	if c.SearchCache != nil {
		c.SearchCache.Close()
	}
	if err := cache.CloseRedis(); err != nil {
		c.Logger.Error("failed to close redis", zap.Error(err))
	}

	c.flushSentry()

	c.Logger.Info("Dependencies shut down successfully")

	if err := c.Logger.Sync(); err != nil {
		c.Logger.Debug("failed to sync logger", zap.Error(err))
	}

	return database.CloseDb()
}
