package rpc

import (
	"github.com/nemaks/recordstore/application/usecases/audit"
	"github.com/nemaks/recordstore/application/usecases/search"
	"github.com/nemaks/recordstore/infrastructure/logger"
	"github.com/nemaks/recordstore/infrastructure/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewServer builds a gRPC server exposing both services plus the standard health service.
func NewServer(
	auditUC audit.AuditUseCase,
	searchUC search.SearchUseCase,
	log *logger.Logger,
	m metrics.Manager,
	opts ...grpc.ServerOption,
) (*grpc.Server, *health.Server) {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		RequestIDInterceptor(),
		LoggingInterceptor(log.Named("grpc"), m),
		RecoveryInterceptor(log),
	))
	srv := grpc.NewServer(opts...)

	RegisterAuditServiceServer(srv, NewAuditServer(auditUC))
	RegisterSearchServiceServer(srv, NewSearchServer(searchUC))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(AuditServiceName, healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(SearchServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthServer)

	return srv, healthServer
}
