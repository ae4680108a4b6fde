package repository

import (
	"context"

	"github.com/nemaks/recordstore/infrastructure/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BaseRepository[TEntity any] struct {
	database *gorm.DB
	logger   *logger.GormZapLogger
	log      *zap.Logger
}

func NewBaseRepository[TEntity any](db *gorm.DB, zapLogger *zap.Logger) *BaseRepository[TEntity] {
	return &BaseRepository[TEntity]{
		database: db,
		logger:   logger.NewGormLogger(zapLogger),
		log:      zapLogger,
	}
}

func (r BaseRepository[TEntity]) Create(ctx context.Context, entity TEntity) (TEntity, error) {
	if err := r.database.WithContext(ctx).Create(&entity).Error; err != nil {
		r.logger.Error(ctx, err.Error())
		return entity, errors.Wrap(err, "insert")
	}
	return entity, nil
}

// Count returns the number of rows matching every scope.
func (r BaseRepository[TEntity]) Count(ctx context.Context, scopes ...func(*gorm.DB) *gorm.DB) (int64, error) {
	var total int64
	err := r.database.WithContext(ctx).
		Model(new(TEntity)).
		Scopes(scopes...).
		Count(&total).
		Error
	if err != nil {
		return 0, errors.Wrap(err, "count")
	}
	return total, nil
}

// FindPage loads one window of rows matching scope in the given order.
func (r BaseRepository[TEntity]) FindPage(ctx context.Context, scope func(*gorm.DB) *gorm.DB, order []string, offset, limit int) ([]TEntity, error) {
	db := r.database.WithContext(ctx).Scopes(scope)
	for _, o := range order {
		db = db.Order(o)
	}

	items := []TEntity{}
	if err := db.Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "find")
	}
	return items, nil
}
