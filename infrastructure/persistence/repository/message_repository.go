package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/nemaks/recordstore/domain/filter"
	"github.com/nemaks/recordstore/domain/model"
	"github.com/nemaks/recordstore/domain/repository"
	"github.com/nemaks/recordstore/infrastructure/persistence/database"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const contentMatch = "LOWER(m.content) LIKE ? ESCAPE '" + database.LikeEscape + "'"

type messageRow struct {
	ID        uint64
	Content   string
	AuthorID  uint64
	ChannelID uint64
	GuildID   uint64
	CreatedAt time.Time
}

// GormMessageSearchRepository answers searches with a case-insensitive substring match over the
// chat tables. It has no ranking.
type GormMessageSearchRepository struct {
	database *gorm.DB
	log      *zap.Logger
}

func NewMessageSearchRepository(db *gorm.DB, zapLogger *zap.Logger) repository.MessageSearchRepository {
	return &GormMessageSearchRepository{database: db, log: zapLogger}
}

func (r *GormMessageSearchRepository) matching(ctx context.Context, q filter.MessageQuery) *gorm.DB {
	f := q.Filter.Normalize()

	qb := &database.QueryBuilder{}
	qb.Add(contentMatch, database.ContainsPattern(q.Text))
	qb.AddIf(f.ChannelID != "", "CAST(m.channel_id AS TEXT) = ?", f.ChannelID)
	qb.AddIf(f.GuildID != "", "CAST(c.guild_id AS TEXT) = ?", f.GuildID)
	qb.AddIf(f.AuthorID != "", "CAST(m.author_id AS TEXT) = ?", f.AuthorID)

	return r.database.WithContext(ctx).
		Table("messages AS m").
		Joins("JOIN channels c ON m.channel_id = c.id").
		Scopes(qb.Scope())
}

func (r *GormMessageSearchRepository) SearchContent(ctx context.Context, q filter.MessageQuery) ([]model.SearchResult, error) {
	var rows []messageRow
	err := r.matching(ctx, q).
		Select("m.id AS id, m.content AS content, m.author_id AS author_id, m.channel_id AS channel_id, c.guild_id AS guild_id, m.created_at AS created_at").
		Order("m.created_at DESC").
		Order("m.id DESC").
		Offset(q.Window.Offset).
		Limit(q.Window.Limit).
		Scan(&rows).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "fallback search")
	}

	results := make([]model.SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, model.SearchResult{
			MessageID: row.ID,
			AuthorID:  row.AuthorID,
			ChannelID: strconv.FormatUint(row.ChannelID, 10),
			GuildID:   strconv.FormatUint(row.GuildID, 10),
			Content:   row.Content,
			Score:     model.FallbackScore,
			CreatedAt: model.FormatTimestamp(row.CreatedAt),
		})
	}
	return results, nil
}

func (r *GormMessageSearchRepository) CountContent(ctx context.Context, q filter.MessageQuery) (int64, error) {
	var total int64
	if err := r.matching(ctx, q).Count(&total).Error; err != nil {
		return 0, errors.Wrap(err, "fallback count")
	}
	return total, nil
}
