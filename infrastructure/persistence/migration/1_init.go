package migration

import (
	"github.com/nemaks/recordstore/domain/model"
	"github.com/nemaks/recordstore/infrastructure/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Up1 creates the audit table and, for local stores, the chat tables the search fallback reads.
// Existing tables are left untouched.
func Up1(database *gorm.DB, log *logger.Logger) error {
	tables := []any{}

	tables = addNewTable(database, &model.AuditLog{}, tables)
	tables = addNewTable(database, &model.Channel{}, tables)
	tables = addNewTable(database, &model.Message{}, tables)

	if len(tables) == 0 {
		log.Debug("Tables already present")
		return nil
	}

	if err := database.Migrator().CreateTable(tables...); err != nil {
		return errors.Wrap(err, "create tables")
	}
	log.Info("Tables created", zap.Int("count", len(tables)))
	return nil
}

func addNewTable(database *gorm.DB, model any, tables []any) []any {
	if !database.Migrator().HasTable(model) {
		tables = append(tables, model)
	}
	return tables
}
