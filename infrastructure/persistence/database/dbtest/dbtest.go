// Package dbtest opens throwaway SQLite stores with the full schema for tests.
package dbtest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nemaks/recordstore/domain/model"
	"github.com/nemaks/recordstore/infrastructure/config"
	"github.com/nemaks/recordstore/infrastructure/logger"
	"github.com/nemaks/recordstore/infrastructure/persistence/database"
	"github.com/nemaks/recordstore/infrastructure/persistence/migration"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{RunMode: "test"},
		Database: config.DatabaseConfig{
			Driver:       config.DriverSqlite,
			Path:         filepath.Join(t.TempDir(), "store.db"),
			MaxOpenConns: 1,
		},
	}
	log := logger.NewNopLogger()

	db, err := database.Open(cfg, log.Log)
	require.NoError(t, err)
	require.NoError(t, migration.Up1(db, log))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedMessage inserts a channel (if missing) and a message into the chat tables.
func SeedMessage(t testing.TB, db *gorm.DB, msg model.Message, guildID uint64) {
	t.Helper()
	ch := model.Channel{ID: msg.ChannelID, GuildID: guildID}
	require.NoError(t, db.Where(model.Channel{ID: msg.ChannelID}).FirstOrCreate(&ch).Error)
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	require.NoError(t, db.Create(&msg).Error)
}
