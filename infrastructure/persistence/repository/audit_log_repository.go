package repository

import (
	"context"
	"fmt"

	"github.com/nemaks/recordstore/domain/filter"
	"github.com/nemaks/recordstore/domain/model"
	"github.com/nemaks/recordstore/domain/repository"
	"github.com/nemaks/recordstore/infrastructure/persistence/database"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var auditLogOrder = []string{"created_at DESC", "id DESC"}

type GormAuditLogRepository struct {
	*BaseRepository[model.AuditLog]
}

func NewAuditLogRepository(db *gorm.DB, zapLogger *zap.Logger) repository.AuditLogRepository {
	return &GormAuditLogRepository{
		BaseRepository: NewBaseRepository[model.AuditLog](db, zapLogger),
	}
}

// CreateBatch runs every insert under its own savepoint in a single transaction. A rejected row is
// rolled back to its savepoint and skipped; only begin or commit failures fail the call.
func (r *GormAuditLogRepository) CreateBatch(ctx context.Context, entries []model.AuditLog) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	kept := 0
	err := r.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range entries {
			sp := fmt.Sprintf("audit_batch_%d", i)
			if err := tx.SavePoint(sp).Error; err != nil {
				return errors.Wrapf(err, "savepoint %s", sp)
			}

			if err := tx.Create(&entries[i]).Error; err != nil {
				r.log.Debug("Skipping audit entry in batch",
					zap.Int("index", i),
					zap.String("action", entries[i].Action),
					zap.Error(err),
				)
				if rbErr := tx.RollbackTo(sp).Error; rbErr != nil {
					return errors.Wrapf(rbErr, "rollback to %s", sp)
				}
				continue
			}

			if err := tx.Exec("RELEASE SAVEPOINT " + sp).Error; err != nil {
				return errors.Wrapf(err, "release %s", sp)
			}
			kept++
		}
		return nil
	})
	if err != nil {
		r.logger.Error(ctx, err.Error())
		return 0, errors.Wrap(err, "batch transaction")
	}

	return kept, nil
}

func (r *GormAuditLogRepository) List(ctx context.Context, f filter.AuditLogFilter, p filter.Pagination) (model.AuditLogPage, error) {
	qb := &database.QueryBuilder{}
	qb.AddIf(f.UserID != 0, "user_id = ?", int64(f.UserID))
	qb.AddIf(f.Action != "", "action = ?", f.Action)
	scope := qb.Scope()

	total, err := r.Count(ctx, scope)
	if err != nil {
		return model.AuditLogPage{}, err
	}

	entries, err := r.FindPage(ctx, scope, auditLogOrder, p.GetOffset(), p.GetPageSize())
	if err != nil {
		return model.AuditLogPage{}, err
	}

	return model.AuditLogPage{Entries: entries, Total: total}, nil
}
