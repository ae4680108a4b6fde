package dependency

import (
	"context"
	"fmt"
	"sync"

	auditUseCase "github.com/nemaks/recordstore/application/usecases/audit"
	searchUseCase "github.com/nemaks/recordstore/application/usecases/search"
	"github.com/nemaks/recordstore/domain/repository"
	"github.com/nemaks/recordstore/infrastructure/cache"
	"github.com/nemaks/recordstore/infrastructure/config"
	"github.com/nemaks/recordstore/infrastructure/jobs"
	"github.com/nemaks/recordstore/infrastructure/logger"
	"github.com/nemaks/recordstore/infrastructure/metrics"
	"github.com/nemaks/recordstore/infrastructure/queue"
	"github.com/nemaks/recordstore/presentation/controllers/audit"
	"github.com/nemaks/recordstore/presentation/controllers/search"
	metricSdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"gorm.io/gorm"
)

type Container struct {
	Config *config.Config
	Logger *logger.Logger

	TracerProvider *trace.TracerProvider
	MeterProvider  *metricSdk.MeterProvider
	MetricsManager metrics.Manager

	DB          *gorm.DB
	SearchCache *cache.DistributedCache

	AuditRepo   repository.AuditLogRepository
	MessageRepo repository.MessageSearchRepository

	AuditUC  auditUseCase.AuditUseCase
	SearchUC searchUseCase.SearchUseCase

	AuditController  audit.AuditController
	SearchController search.SearchController

	GrpcServer   *grpc.Server
	HealthServer *health.Server

	AuditConsumer *queue.AuditBatchConsumer
	IndexConsumer *queue.KafkaConsumer
	IndexStatsJob *jobs.IndexStatsJob
	sentryEnabled bool

	consumers sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewContainer() (*Container, error) {
	c := &Container{}

	c.Config = config.GetConfig()

	loggerInstance, err := logger.NewLogger(c.Config.Logger)
	if err != nil {
		return nil, fmt.Errorf("error initializing logger: %w", err)
	}
	c.Logger = loggerInstance

	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.Logger.Info("Initializing recordstore dependencies",
		zap.String("mode", c.Config.Server.RunMode),
		zap.String("database", c.Config.Database.Driver),
	)
	if err := cache.InitRedis(c.Config); err != nil {
		return nil, fmt.Errorf("error initializing cache: %w", err)
	}

	if err := c.initInfrastructure(); err != nil {
		return nil, fmt.Errorf("error initializing infrastructure: %w", err)
	}

	c.initRepositories()

	c.initUseCases()

	c.initSearchIndex()

	c.initControllers()

	c.initGrpc()

	c.initConsumers()

	c.initBackgroundJobs()

	c.Logger.Info("All dependencies initialized successfully")

	return c, nil
}
