package textindex

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/nemaks/recordstore/domain/filter"
	"github.com/nemaks/recordstore/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	dir := t.TempDir()
	idx, err := Open(context.Background(), dir, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx, dir
}

func search(t *testing.T, idx *Index, text string, f filter.MessageFilter) model.SearchPage {
	t.Helper()
	page, err := idx.Search(context.Background(), filter.MessageQuery{Text: text, Filter: f, Window: filter.NewWindow(10, 0)})
	require.NoError(t, err)
	return page
}

func TestIndex_IndexThenSearch(t *testing.T) {
	idx, _ := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, model.IndexDocument{
		MessageID: 42, Content: "Deploy finished on staging", AuthorID: 7, ChannelID: "3", GuildID: "1", CreatedAt: "2026-05-01T10:00:00Z",
	}))

	page := search(t, idx, "deploy", filter.MessageFilter{})
	require.Len(t, page.Results, 1)
	assert.EqualValues(t, 1, page.TotalHits)
	assert.True(t, page.Ranked)

	r := page.Results[0]
	assert.EqualValues(t, 42, r.MessageID)
	assert.EqualValues(t, 7, r.AuthorID)
	assert.Equal(t, "3", r.ChannelID)
	assert.Equal(t, "1", r.GuildID)
	assert.Equal(t, "Deploy finished on staging", r.Content)
	assert.Equal(t, "2026-05-01T10:00:00Z", r.CreatedAt)
	assert.Greater(t, r.Score, 0.0)
	assert.LessOrEqual(t, r.Score, 1.0)
}

func TestIndex_AllWordsMustMatchAndStemming(t *testing.T) {
	idx, _ := openTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, model.IndexDocument{MessageID: 1, Content: "the servers are running hot"}))
	require.NoError(t, idx.Index(ctx, model.IndexDocument{MessageID: 2, Content: "server restarted"}))

	assert.Len(t, search(t, idx, "server", filter.MessageFilter{}).Results, 2)
	assert.Len(t, search(t, idx, "run", filter.MessageFilter{}).Results, 1)
	assert.Len(t, search(t, idx, "server restarted", filter.MessageFilter{}).Results, 1)
	assert.Empty(t, search(t, idx, "server missing", filter.MessageFilter{}).Results)
}

func TestIndex_RanksByRelevance(t *testing.T) {
	idx, _ := openTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, model.IndexDocument{MessageID: 1, Content: "outage report for the database cluster written after a very long week of work", CreatedAt: "2026-01-02T00:00:00Z"}))
	require.NoError(t, idx.Index(ctx, model.IndexDocument{MessageID: 2, Content: "outage outage outage", CreatedAt: "2026-01-01T00:00:00Z"}))
	require.NoError(t, idx.Index(ctx, model.IndexDocument{MessageID: 3, Content: "all quiet", CreatedAt: "2026-01-03T00:00:00Z"}))

	page := search(t, idx, "outage", filter.MessageFilter{})
	require.Len(t, page.Results, 2)
	assert.EqualValues(t, 2, page.Results[0].MessageID)
	assert.GreaterOrEqual(t, page.Results[0].Score, page.Results[1].Score)
}

func TestIndex_ReindexOverwrites(t *testing.T) {
	idx, _ := openTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, model.IndexDocument{MessageID: 9, Content: "first draft"}))
	require.NoError(t, idx.Index(ctx, model.IndexDocument{MessageID: 9, Content: "final version"}))

	assert.Empty(t, search(t, idx, "draft", filter.MessageFilter{}).Results)
	page := search(t, idx, "final", filter.MessageFilter{})
	require.Len(t, page.Results, 1)
	assert.Equal(t, "final version", page.Results[0].Content)

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Documents)
	assert.Equal(t, schemaVersion, stats.SchemaVersion)
}

func TestIndex_Filters(t *testing.T) {
	idx, _ := openTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, model.IndexDocument{MessageID: 1, Content: "ping", AuthorID: 5, ChannelID: "10", GuildID: "100"}))
	require.NoError(t, idx.Index(ctx, model.IndexDocument{MessageID: 2, Content: "ping", AuthorID: 6, ChannelID: "11", GuildID: "100"}))
	require.NoError(t, idx.Index(ctx, model.IndexDocument{MessageID: 3, Content: "ping", AuthorID: 5, ChannelID: "12", GuildID: "200"}))

	tests := []struct {
		name string
		f    filter.MessageFilter
		hits int64
	}{
		{"none", filter.MessageFilter{}, 3},
		{"channel", filter.MessageFilter{ChannelID: "11"}, 1},
		{"guild", filter.MessageFilter{GuildID: "100"}, 2},
		{"author", filter.MessageFilter{AuthorID: "5"}, 2},
		{"guild and author", filter.MessageFilter{GuildID: "100", AuthorID: "5"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := search(t, idx, "ping", tt.f)
			assert.Equal(t, tt.hits, page.TotalHits)
			assert.Len(t, page.Results, int(tt.hits))
		})
	}
}

func TestIndex_TotalHitsCountsBeyondWindow(t *testing.T) {
	idx, _ := openTestIndex(t)
	ctx := context.Background()
	for i := uint64(1); i <= 25; i++ {
		require.NoError(t, idx.Index(ctx, model.IndexDocument{MessageID: i, Content: "heartbeat"}))
	}

	page, err := idx.Search(ctx, filter.MessageQuery{Text: "heartbeat", Window: filter.NewWindow(10, 20)})
	require.NoError(t, err)
	assert.Len(t, page.Results, 5)
	assert.EqualValues(t, 25, page.TotalHits)
}

func TestIndex_OperatorsAreLiteral(t *testing.T) {
	idx, _ := openTestIndex(t)
	require.NoError(t, idx.Index(context.Background(), model.IndexDocument{MessageID: 1, Content: "near the content column"}))

	for _, q := range []string{`NEAR(`, `content:`, `"unbalanced`, `*`, `foo OR`, `!!!`} {
		_, err := idx.Search(context.Background(), filter.MessageQuery{Text: q, Window: filter.NewWindow(10, 0)})
		assert.NoError(t, err, q)
	}
	assert.Empty(t, search(t, idx, "!!!", filter.MessageFilter{}).Results)
	assert.Len(t, search(t, idx, "content:", filter.MessageFilter{}).Results, 1)
}

func TestIndex_ReopenKeepsDocuments(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := Open(ctx, dir, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, idx.Index(ctx, model.IndexDocument{MessageID: 1, Content: "persisted"}))
	require.NoError(t, idx.Close())

	idx, err = Open(ctx, dir, zap.NewNop())
	require.NoError(t, err)
	defer idx.Close()
	assert.Len(t, search(t, idx, "persisted", filter.MessageFilter{}).Results, 1)
}

func TestMatchExpression(t *testing.T) {
	assert.Equal(t, `"Hello" "world"`, matchExpression("  Hello, world! "))
	assert.Equal(t, `"café" "42"`, matchExpression("café-42"))
	assert.Equal(t, "", matchExpression(" ... "))
}

func TestRelevance(t *testing.T) {
	assert.InDelta(t, 0.5, relevance(-1), 1e-9)
	assert.Zero(t, relevance(0))
	assert.Less(t, relevance(-1000), 1.0)
}

func TestIndex_GenerationAdvancesAndPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := Open(ctx, dir, zap.NewNop())
	require.NoError(t, err)
	before, err := idx.Generation(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, before.ID)
	assert.Zero(t, before.Seq)

	require.NoError(t, idx.Index(ctx, model.IndexDocument{MessageID: 1, Content: "one"}))
	require.NoError(t, idx.Index(ctx, model.IndexDocument{MessageID: 1, Content: "one again"}))
	require.NoError(t, idx.Close())

	idx, err = Open(ctx, dir, zap.NewNop())
	require.NoError(t, err)
	defer idx.Close()
	after, err := idx.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.EqualValues(t, 2, after.Seq)

	other, _ := openTestIndex(t)
	otherGen, err := other.Generation(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before.ID, otherGen.ID)
}

func TestIndex_RejectedWriteKeepsGeneration(t *testing.T) {
	idx, _ := openTestIndex(t)
	ctx := context.Background()

	require.Error(t, idx.Index(ctx, model.IndexDocument{MessageID: math.MaxUint64, Content: "too big"}))
	gen, err := idx.Generation(ctx)
	require.NoError(t, err)
	assert.Zero(t, gen.Seq)
}

func TestIndex_SearchTotalMatchesPageDuringWrites(t *testing.T) {
	idx, _ := openTestIndex(t)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		writeErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for id := uint64(1); id <= 60; id++ {
			if err := idx.Index(ctx, model.IndexDocument{MessageID: id, Content: "rollout step"}); err != nil {
				writeErr = err
				return
			}
		}
	}()

	q := filter.MessageQuery{Text: "rollout", Window: filter.NewWindow(100, 0)}
	for i := 0; i < 40; i++ {
		page, err := idx.Search(ctx, q)
		require.NoError(t, err)
		assert.EqualValues(t, len(page.Results), page.TotalHits)
	}
	wg.Wait()
	require.NoError(t, writeErr)

	page, err := idx.Search(ctx, q)
	require.NoError(t, err)
	assert.Len(t, page.Results, 60)
	assert.EqualValues(t, 60, page.TotalHits)
}
