package repository

import (
	"context"
	"testing"
	"time"

	"github.com/nemaks/recordstore/domain/filter"
	"github.com/nemaks/recordstore/domain/model"
	"github.com/nemaks/recordstore/infrastructure/persistence/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func seedMessages(t *testing.T, db *gorm.DB) {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dbtest.SeedMessage(t, db, model.Message{ID: 1, ChannelID: 10, AuthorID: 100, Content: "Hello world", CreatedAt: base}, 1000)
	dbtest.SeedMessage(t, db, model.Message{ID: 2, ChannelID: 10, AuthorID: 101, Content: "say HELLO again", CreatedAt: base.Add(time.Minute)}, 1000)
	dbtest.SeedMessage(t, db, model.Message{ID: 3, ChannelID: 20, AuthorID: 100, Content: "hello from another guild", CreatedAt: base.Add(2 * time.Minute)}, 2000)
	dbtest.SeedMessage(t, db, model.Message{ID: 4, ChannelID: 20, AuthorID: 100, Content: "100% off_sale", CreatedAt: base.Add(3 * time.Minute)}, 2000)
	dbtest.SeedMessage(t, db, model.Message{ID: 5, ChannelID: 20, AuthorID: 100, Content: "1000 offxsale", CreatedAt: base.Add(4 * time.Minute)}, 2000)
}

func query(text string, f filter.MessageFilter) filter.MessageQuery {
	return filter.MessageQuery{Text: text, Filter: f, Window: filter.NewWindow(10, 0)}
}

func TestMessageSearchRepository_CaseInsensitiveNewestFirst(t *testing.T) {
	db := dbtest.Open(t)
	seedMessages(t, db)
	repo := NewMessageSearchRepository(db, zap.NewNop())

	results, err := repo.SearchContent(context.Background(), query("hello", filter.MessageFilter{}))
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, []uint64{3, 2, 1}, []uint64{results[0].MessageID, results[1].MessageID, results[2].MessageID})
	for _, r := range results {
		assert.Equal(t, model.FallbackScore, r.Score)
	}
	assert.Equal(t, "20", results[0].ChannelID)
	assert.Equal(t, "2000", results[0].GuildID)
	assert.Equal(t, "2026-03-01T12:02:00Z", results[0].CreatedAt)
}

func TestMessageSearchRepository_Filters(t *testing.T) {
	db := dbtest.Open(t)
	seedMessages(t, db)
	repo := NewMessageSearchRepository(db, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name string
		f    filter.MessageFilter
		want []uint64
	}{
		{"channel", filter.MessageFilter{ChannelID: "10"}, []uint64{2, 1}},
		{"guild", filter.MessageFilter{GuildID: "2000"}, []uint64{3}},
		{"author", filter.MessageFilter{AuthorID: " 100 "}, []uint64{3, 1}},
		{"combined", filter.MessageFilter{ChannelID: "10", AuthorID: "101"}, []uint64{2}},
		{"no match", filter.MessageFilter{GuildID: "9"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := repo.SearchContent(ctx, query("hello", tt.f))
			require.NoError(t, err)
			var ids []uint64
			for _, r := range results {
				ids = append(ids, r.MessageID)
			}
			assert.Equal(t, tt.want, ids)

			total, err := repo.CountContent(ctx, query("hello", tt.f))
			require.NoError(t, err)
			assert.EqualValues(t, len(tt.want), total)
		})
	}
}

func TestMessageSearchRepository_WildcardsAreLiteral(t *testing.T) {
	db := dbtest.Open(t)
	seedMessages(t, db)
	repo := NewMessageSearchRepository(db, zap.NewNop())

	results, err := repo.SearchContent(context.Background(), query("0% off_", filter.MessageFilter{}))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.EqualValues(t, 4, results[0].MessageID)
}

func TestMessageSearchRepository_Window(t *testing.T) {
	db := dbtest.Open(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 15; i++ {
		dbtest.SeedMessage(t, db, model.Message{ID: uint64(i), ChannelID: 1, AuthorID: 1, Content: "status report", CreatedAt: base.Add(time.Duration(i) * time.Second)}, 1)
	}
	repo := NewMessageSearchRepository(db, zap.NewNop())

	q := filter.MessageQuery{Text: "report", Window: filter.NewWindow(10, 10)}
	results, err := repo.SearchContent(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, results, 5)
	assert.EqualValues(t, 5, results[0].MessageID)
}
