package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nemaks/recordstore/infrastructure/config"
	"github.com/nemaks/recordstore/infrastructure/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbClient *gorm.DB

func InitDb(cfg *config.Config, log *logger.Logger) error {
	db, err := Open(cfg, log.Log)
	if err != nil {
		return err
	}
	dbClient = db
	log.Info("Database connection established", zap.String("driver", cfg.Database.Driver))
	return nil
}

func GetDb() *gorm.DB {
	return dbClient
}

func CloseDb() error {
	if dbClient == nil {
		return nil
	}
	sqlDB, err := dbClient.DB()
	if err != nil {
		return err
	}
	dbClient = nil
	return sqlDB.Close()
}

// Open connects to the configured relational store and applies pool settings.
func Open(cfg *config.Config, zapLogger *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormLog := logger.NewGormLogger(zapLogger)
	if cfg.Database.SlowThreshold > 0 {
		gormLog.SlowThreshold = cfg.Database.SlowThreshold
	}
	var lg gormlogger.Interface = gormLog
	if cfg.IsDevelopment() {
		lg = gormLog.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 lg,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", cfg.Database.Driver)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}
	if cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	return db, nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		return postgres.Open(cfg.GetPostgresConnectionString()), nil
	case config.DriverSqlite:
		if dir := filepath.Dir(cfg.Database.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(err, "create database directory")
			}
		}
		return sqlite.Open(cfg.Database.Path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
