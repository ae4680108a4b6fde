package audit

import (
	"context"
	"time"

	"github.com/nemaks/recordstore/domain/apperror"
	"github.com/nemaks/recordstore/domain/filter"
	"github.com/nemaks/recordstore/domain/model"
	"github.com/nemaks/recordstore/domain/repository"
	"github.com/nemaks/recordstore/infrastructure/logger"
	"github.com/nemaks/recordstore/infrastructure/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	opLogEvent       = "audit.LogEvent"
	opBatchLogEvents = "audit.BatchLogEvents"
	opGetLogs        = "audit.GetLogs"
)

type AuditUseCase interface {
	// LogEvent persists one entry and returns it with the store-assigned id and timestamp.
	LogEvent(ctx context.Context, event model.AuditEvent) (model.AuditLog, error)
	// BatchLogEvents persists what it can and returns how many entries were kept.
	BatchLogEvents(ctx context.Context, events []model.AuditEvent) (int, error)
	GetLogs(ctx context.Context, f filter.AuditLogFilter, page, limit int64) (model.AuditLogPage, error)
}

type auditUseCase struct {
	repository repository.AuditLogRepository
	metrics    metrics.Manager
	tracer     trace.Tracer
	logger     *logger.Logger
}

func NewAuditUseCase(
	repository repository.AuditLogRepository,
	metricsManager metrics.Manager,
	logger *logger.Logger,
) AuditUseCase {
	return &auditUseCase{
		repository: repository,
		metrics:    metricsManager,
		tracer:     otel.Tracer("recordstore/audit"),
		logger:     logger,
	}
}

func (uc *auditUseCase) LogEvent(ctx context.Context, event model.AuditEvent) (model.AuditLog, error) {
	ctx, span := uc.tracer.Start(ctx, opLogEvent, trace.WithAttributes(
		attribute.String("audit.action", event.Action),
		attribute.Int64("audit.user_id", int64(event.UserID)),
	))
	defer span.End()

	if !event.UserIDInRange() {
		span.SetStatus(codes.Error, "user_id out of range")
		return model.AuditLog{}, apperror.Invalid(opLogEvent, "user_id out of range")
	}

	entry, err := uc.repository.Create(ctx, event.ToModel())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "database error")
		uc.logger.Error("failed to store audit entry", zap.String("action", event.Action), zap.Error(err))
		return model.AuditLog{}, apperror.Store(opLogEvent, "database error", err)
	}

	uc.metrics.IncrementCounter(ctx, metrics.AuditEntriesWritten, attribute.String("mode", "single"))
	span.SetAttributes(attribute.Int64("audit.id", int64(entry.ID)))
	return entry, nil
}

func (uc *auditUseCase) BatchLogEvents(ctx context.Context, events []model.AuditEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	ctx, span := uc.tracer.Start(ctx, opBatchLogEvents, trace.WithAttributes(attribute.Int("audit.batch_size", len(events))))
	defer span.End()

	// out-of-range ids are rejected like any other row the store refuses
	entries := make([]model.AuditLog, 0, len(events))
	for _, e := range events {
		if e.UserIDInRange() {
			entries = append(entries, e.ToModel())
		}
	}

	kept, err := uc.repository.CreateBatch(ctx, entries)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction failed")
		uc.logger.Error("audit batch failed", zap.Int("size", len(events)), zap.Error(err))
		return 0, apperror.Store(opBatchLogEvents, "transaction failed", err)
	}

	if rejected := len(events) - kept; rejected > 0 {
		uc.logger.Debug("audit batch partially stored", zap.Int("kept", kept), zap.Int("rejected", rejected))
		uc.metrics.AddCounter(ctx, metrics.AuditEntriesRejected, int64(rejected))
	}
	uc.metrics.AddCounter(ctx, metrics.AuditEntriesWritten, int64(kept), attribute.String("mode", "batch"))
	span.SetAttributes(attribute.Int("audit.kept", kept))
	return kept, nil
}

func (uc *auditUseCase) GetLogs(ctx context.Context, f filter.AuditLogFilter, page, limit int64) (model.AuditLogPage, error) {
	if f.UserID > model.MaxUserID {
		return model.AuditLogPage{}, apperror.Invalid(opGetLogs, "user_id out of range")
	}

	p := filter.NewPagination(page, limit)

	ctx, span := uc.tracer.Start(ctx, opGetLogs, trace.WithAttributes(
		attribute.Int("page", p.Page),
		attribute.Int("limit", p.Limit),
		attribute.Bool("filtered", f.HasFilters()),
	))
	defer span.End()

	start := time.Now()
	result, err := uc.repository.List(ctx, f, p)
	uc.metrics.RecordHistogram(ctx, metrics.AuditQueryDuration, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		uc.logger.Error("failed to fetch audit logs", zap.Error(err))
		return model.AuditLogPage{}, apperror.Store(opGetLogs, "fetch failed", err)
	}

	return result, nil
}
