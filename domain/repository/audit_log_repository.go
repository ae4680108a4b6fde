package repository

import (
	"context"

	"github.com/nemaks/recordstore/domain/filter"
	"github.com/nemaks/recordstore/domain/model"
)

type AuditLogRepository interface {
	Create(ctx context.Context, entry model.AuditLog) (model.AuditLog, error)
	// CreateBatch inserts every entry it can inside one transaction and returns how many were kept.
	CreateBatch(ctx context.Context, entries []model.AuditLog) (int, error)
	List(ctx context.Context, f filter.AuditLogFilter, p filter.Pagination) (model.AuditLogPage, error)
}
