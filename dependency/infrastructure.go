package dependency

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/nemaks/recordstore/infrastructure/cache"
	"github.com/nemaks/recordstore/infrastructure/metrics"
	"github.com/nemaks/recordstore/infrastructure/metrics/exporters"
	"github.com/nemaks/recordstore/infrastructure/persistence/database"
	"github.com/nemaks/recordstore/infrastructure/persistence/migration"
	"go.uber.org/zap"
)

func (c *Container) initInfrastructure() error {
	if c.Config.Jaeger.Enabled {
		tracerProvider, err := exporters.InitJaegerExporter(c.Config.Jaeger)
		if err != nil {
			c.Logger.Error("failed to initialize Jaeger exporter", zap.Error(err))
			c.Logger.Warn("Using noop tracer provider as fallback")
		} else {
			c.TracerProvider = tracerProvider
			c.Logger.Info("Jaeger exporter initialized successfully",
				zap.String("endpoint", c.Config.Jaeger.Endpoint),
				zap.String("service", c.Config.Jaeger.ServiceName),
			)
		}
	}

	meter, meterProvider, err := exporters.Prometheus(c.Config.Jaeger.ServiceName, c.Config.Jaeger.ServiceVersion)
	if err != nil {
		return fmt.Errorf("failed to initialize Prometheus exporter: %w", err)
	}
	c.MeterProvider = meterProvider
	c.MetricsManager = metrics.NewMetricsManager(meter, c.Logger)
	metrics.RegisterDefaults(c.MetricsManager)
	c.Logger.Info("Metrics initialized successfully")

	c.initSentry()

	if err := database.InitDb(c.Config, c.Logger); err != nil {
		return err
	}
	c.DB = database.GetDb()

	if c.Config.Database.AutoMigrate {
		if err := migration.Up1(c.DB, c.Logger); err != nil {
			return err
		}
	}

	if c.Config.Search.CacheEnabled {
		options := cache.DefaultOptions()
		options.MaxItems = c.Config.Search.CacheSize
		c.SearchCache = cache.NewDistributedCache(cache.GetRedis(), "recordstore:search:", options, c.Config.Search.CacheTTL)
		c.Logger.Info("Search result cache initialized",
			zap.Int("maxItems", c.Config.Search.CacheSize),
			zap.Bool("redis", cache.GetRedis() != nil),
		)
	}

	return nil
}

func (c *Container) initSentry() {
	if c.Config.Sentry.Dsn == "" {
		return
	}

	hostname, _ := os.Hostname()
	err := sentry.Init(sentry.ClientOptions{
		Dsn:            c.Config.Sentry.Dsn,
		Debug:          c.Config.Sentry.Debug,
		SendDefaultPII: c.Config.Sentry.SendDefaultPII,
		Environment:    c.Config.Server.RunMode,
		Release:        c.Config.Jaeger.ServiceName + "@" + c.Config.Jaeger.ServiceVersion,
		ServerName:     hostname,
	})
	if err != nil {
		c.Logger.Error("failed to initialize Sentry", zap.Error(err))
		return
	}
	c.sentryEnabled = true
	c.Logger.Info("Sentry initialized", zap.String("environment", c.Config.Server.RunMode))
}

func (c *Container) flushSentry() {
	if c.sentryEnabled {
		sentry.Flush(2 * time.Second)
	}
}
