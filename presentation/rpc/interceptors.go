package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/nemaks/recordstore/infrastructure/logger"
	"github.com/nemaks/recordstore/infrastructure/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDKey = "x-request-id"

type requestIDCtxKey struct{}

// RequestIDFromContext returns the id assigned by RequestIDInterceptor.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}

func extractRequestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(requestIDKey); len(ids) > 0 && ids[0] != "" {
			return ids[0]
		}
	}
	return uuid.NewString()
}

func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := extractRequestID(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDKey, id))
		return handler(context.WithValue(ctx, requestIDCtxKey{}, id), req)
	}
}

func LoggingInterceptor(log *logger.Logger, m metrics.Manager) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		latency := time.Since(start)
		code := status.Code(err)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", latency),
			zap.String("requestId", RequestIDFromContext(ctx)),
		}
		if err != nil {
			log.Error("RPC error", append(fields, zap.Error(err))...)
		} else {
			log.Info("RPC", fields...)
		}

		labels := []attribute.KeyValue{
			attribute.String("method", info.FullMethod),
			attribute.String("code", code.String()),
		}
		m.IncrementCounter(ctx, metrics.GRPCRequestsTotal, labels...)
		m.RecordHistogram(ctx, metrics.GRPCRequestDuration, latency.Seconds(), labels...)
		return resp, err
	}
}

// RecoveryInterceptor turns a handler panic into codes.Internal and reports it to Sentry.
func RecoveryInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		hub := sentry.GetHubFromContext(ctx)
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
			ctx = sentry.SetHubOnContext(ctx, hub)
		}

		defer func() {
			if r := recover(); r != nil {
				hub.WithScope(func(scope *sentry.Scope) {
					scope.SetTag("rpc.method", info.FullMethod)
					scope.SetTag("request_id", RequestIDFromContext(ctx))
					hub.RecoverWithContext(ctx, r)
				})
				log.Error("RPC panic recovered",
					zap.String("method", info.FullMethod),
					zap.String("panic", fmt.Sprint(r)),
				)
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}
		}()

		return handler(ctx, req)
	}
}
