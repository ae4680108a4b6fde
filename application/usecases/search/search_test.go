package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nemaks/recordstore/domain/apperror"
	"github.com/nemaks/recordstore/domain/filter"
	"github.com/nemaks/recordstore/domain/model"
	"github.com/nemaks/recordstore/domain/repository"
	"github.com/nemaks/recordstore/infrastructure/cache"
	"github.com/nemaks/recordstore/infrastructure/logger"
	"github.com/nemaks/recordstore/infrastructure/metrics"
	"github.com/nemaks/recordstore/infrastructure/persistence/database/dbtest"
	repositories "github.com/nemaks/recordstore/infrastructure/persistence/repository"
	"github.com/nemaks/recordstore/infrastructure/textindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeIndex struct {
	searches  atomic.Int32
	writes    atomic.Int32
	searchErr error
	writeErr  error
	page      model.SearchPage
}

func (f *fakeIndex) Index(ctx context.Context, doc model.IndexDocument) error {
	f.writes.Add(1)
	return f.writeErr
}

func (f *fakeIndex) Search(ctx context.Context, q filter.MessageQuery) (model.SearchPage, error) {
	f.searches.Add(1)
	return f.page, f.searchErr
}

func (f *fakeIndex) Generation(ctx context.Context) (repository.IndexGeneration, error) {
	return repository.IndexGeneration{ID: "fake", Seq: uint64(f.writes.Load())}, nil
}

func (f *fakeIndex) Stats(ctx context.Context) (repository.IndexStats, error) {
	return repository.IndexStats{Documents: int64(f.writes.Load()), SchemaVersion: 1}, nil
}

func (f *fakeIndex) Close() error { return nil }

type fakeMessages struct {
	calls   atomic.Int32
	results []model.SearchResult
	total   int64
	err     error
}

func (f *fakeMessages) SearchContent(ctx context.Context, q filter.MessageQuery) ([]model.SearchResult, error) {
	f.calls.Add(1)
	return f.results, f.err
}

func (f *fakeMessages) CountContent(ctx context.Context, q filter.MessageQuery) (int64, error) {
	f.calls.Add(1)
	return f.total, f.err
}

func opener(idx repository.TextIndex) IndexOpener {
	return func(context.Context) (repository.TextIndex, error) { return idx, nil }
}

func failingOpener(context.Context) (repository.TextIndex, error) {
	return nil, errors.New("disk is read-only")
}

func newEngine(messages repository.MessageSearchRepository, c *cache.DistributedCache, opts Options) SearchUseCase {
	return NewSearchUseCase(messages, c, opts, metrics.NewNoopManager(), logger.NewNopLogger())
}

func TestSearchMessages_EmptyQueryTouchesNothing(t *testing.T) {
	messages := &fakeMessages{}
	idx := &fakeIndex{}
	uc := newEngine(messages, nil, Options{})
	require.Equal(t, StateReady, uc.Init(context.Background(), opener(idx)))

	for _, q := range []string{"", "   "} {
		page, err := uc.SearchMessages(context.Background(), q, filter.MessageFilter{ChannelID: "1"}, 50, 0)
		require.NoError(t, err)
		assert.Empty(t, page.Results)
		assert.Zero(t, page.TotalHits)
	}
	assert.Zero(t, messages.calls.Load())
	assert.Zero(t, idx.searches.Load())
}

func TestSearchMessages_FallbackWhenIndexUnavailable(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.SeedMessage(t, db, model.Message{ID: 1, ChannelID: 5, AuthorID: 8, Content: "Hello world"}, 77)
	dbtest.SeedMessage(t, db, model.Message{ID: 2, ChannelID: 5, AuthorID: 8, Content: "goodbye"}, 77)

	uc := newEngine(repositories.NewMessageSearchRepository(db, zap.NewNop()), nil, Options{})
	require.Equal(t, StateUnavailable, uc.Init(context.Background(), failingOpener))

	page, err := uc.SearchMessages(context.Background(), "hello", filter.MessageFilter{}, 0, -1)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.EqualValues(t, 1, page.Results[0].MessageID)
	assert.Equal(t, 1.0, page.Results[0].Score)
	assert.Equal(t, "77", page.Results[0].GuildID)
	assert.EqualValues(t, 1, page.TotalHits)
	assert.False(t, page.Ranked)
}

func TestSearchMessages_UninitializedUsesFallback(t *testing.T) {
	messages := &fakeMessages{results: []model.SearchResult{{MessageID: 4, Score: model.FallbackScore}}}
	uc := newEngine(messages, nil, Options{})

	page, err := uc.SearchMessages(context.Background(), "x", filter.MessageFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, page.Results, 1)
	assert.Equal(t, StateUninitialized, uc.State())
}

func TestSearchMessages_IndexThenSearch(t *testing.T) {
	db := dbtest.Open(t)
	uc := newEngine(repositories.NewMessageSearchRepository(db, zap.NewNop()), nil, Options{})
	ctx := context.Background()

	state := uc.Init(ctx, func(ctx context.Context) (repository.TextIndex, error) {
		return textindex.Open(ctx, t.TempDir(), zap.NewNop())
	})
	require.Equal(t, StateReady, state)
	t.Cleanup(func() { _ = uc.Close() })

	require.NoError(t, uc.IndexMessage(ctx, model.IndexDocument{MessageID: 11, Content: "release candidate tagged", AuthorID: 2, ChannelID: "3", GuildID: "4"}))

	page, err := uc.SearchMessages(ctx, "candidate", filter.MessageFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.True(t, page.Ranked)
	assert.EqualValues(t, 11, page.Results[0].MessageID)
	assert.Greater(t, page.Results[0].Score, 0.0)
	assert.LessOrEqual(t, page.Results[0].Score, 1.0)

	stats, err := uc.IndexStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Documents)
}

func TestSearchMessages_IndexFailureFallsBackPermanently(t *testing.T) {
	messages := &fakeMessages{results: []model.SearchResult{{MessageID: 1, Score: model.FallbackScore}}}
	idx := &fakeIndex{searchErr: errors.New("database disk image is malformed")}
	uc := newEngine(messages, nil, Options{})
	require.Equal(t, StateReady, uc.Init(context.Background(), opener(idx)))

	page, err := uc.SearchMessages(context.Background(), "anything", filter.MessageFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, page.Results, 1)
	assert.Equal(t, StateUnavailable, uc.State())

	idx.searchErr = nil
	_, err = uc.SearchMessages(context.Background(), "anything", filter.MessageFilter{}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, idx.searches.Load(), "index must not be queried once unavailable")
	assert.EqualValues(t, 2, messages.calls.Load())

	assert.Equal(t, StateUnavailable, uc.Init(context.Background(), opener(idx)))
}

func TestSearchMessages_FallbackFailure(t *testing.T) {
	uc := newEngine(&fakeMessages{err: errors.New("connection reset")}, nil, Options{})

	_, err := uc.SearchMessages(context.Background(), "hello", filter.MessageFilter{}, 10, 0)
	assert.ErrorIs(t, err, apperror.TransientStore)
	assert.Equal(t, "search failed", apperror.Message(err))
}

func TestSearchMessages_ExactFallbackTotal(t *testing.T) {
	messages := &fakeMessages{results: make([]model.SearchResult, 10), total: 42}

	page, err := newEngine(messages, nil, Options{}).SearchMessages(context.Background(), "q", filter.MessageFilter{}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 10, page.TotalHits)

	page, err = newEngine(messages, nil, Options{ExactFallbackTotal: true}).SearchMessages(context.Background(), "q", filter.MessageFilter{}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 42, page.TotalHits)
}

func TestIndexMessage_WithoutIndex(t *testing.T) {
	uc := newEngine(&fakeMessages{}, nil, Options{})
	uc.Init(context.Background(), failingOpener)

	err := uc.IndexMessage(context.Background(), model.IndexDocument{MessageID: 1, Content: "x"})
	assert.ErrorIs(t, err, apperror.IndexUnavailable)
}

func TestIndexMessage_WriteFailureKeepsState(t *testing.T) {
	idx := &fakeIndex{writeErr: errors.New("disk full")}
	uc := newEngine(&fakeMessages{}, nil, Options{})
	require.Equal(t, StateReady, uc.Init(context.Background(), opener(idx)))

	err := uc.IndexMessage(context.Background(), model.IndexDocument{MessageID: 1, Content: "x"})
	assert.ErrorIs(t, err, apperror.IndexUnavailable)
	assert.Equal(t, StateReady, uc.State())
}

func TestSearchMessages_CacheInvalidatedByIndexWrite(t *testing.T) {
	idx := &fakeIndex{page: model.SearchPage{Results: []model.SearchResult{{MessageID: 1, Score: 0.5}}, TotalHits: 1, Ranked: true}}
	resultCache := cache.NewDistributedCache(nil, "test:", cache.Options{MaxItems: 100}, time.Minute)
	t.Cleanup(resultCache.Close)

	uc := newEngine(&fakeMessages{}, resultCache, Options{CacheTTL: time.Minute})
	require.Equal(t, StateReady, uc.Init(context.Background(), opener(idx)))
	ctx := context.Background()

	first, err := uc.SearchMessages(ctx, "deploy", filter.MessageFilter{}, 10, 0)
	require.NoError(t, err)
	second, err := uc.SearchMessages(ctx, "deploy", filter.MessageFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, idx.searches.Load())

	require.NoError(t, uc.IndexMessage(ctx, model.IndexDocument{MessageID: 2, Content: "deploy again"}))
	_, err = uc.SearchMessages(ctx, "deploy", filter.MessageFilter{}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, idx.searches.Load())
}

func TestSearchMessages_SharedCacheSeesWritesFromOtherEngines(t *testing.T) {
	db := dbtest.Open(t)
	dir := t.TempDir()
	ctx := context.Background()
	resultCache := cache.NewDistributedCache(nil, "test:", cache.Options{MaxItems: 100}, time.Minute)
	t.Cleanup(resultCache.Close)

	start := func() SearchUseCase {
		uc := newEngine(repositories.NewMessageSearchRepository(db, zap.NewNop()), resultCache, Options{CacheTTL: time.Minute})
		state := uc.Init(ctx, func(ctx context.Context) (repository.TextIndex, error) {
			return textindex.Open(ctx, dir, zap.NewNop())
		})
		require.Equal(t, StateReady, state)
		return uc
	}

	first := start()
	page, err := first.SearchMessages(ctx, "deploy", filter.MessageFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	require.NoError(t, first.Close())

	writer := start()
	require.NoError(t, writer.IndexMessage(ctx, model.IndexDocument{MessageID: 1, Content: "deploy done"}))
	require.NoError(t, writer.Close())

	restarted := start()
	t.Cleanup(func() { _ = restarted.Close() })
	page, err = restarted.SearchMessages(ctx, "deploy", filter.MessageFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.EqualValues(t, 1, page.Results[0].MessageID)
	assert.EqualValues(t, 1, page.TotalHits)
}

func TestSearchMessages_GenerationReadFailureFallsBack(t *testing.T) {
	idx := &generationFailingIndex{}
	messages := &fakeMessages{results: []model.SearchResult{{MessageID: 9, Score: model.FallbackScore}}}
	resultCache := cache.NewDistributedCache(nil, "test:", cache.Options{MaxItems: 100}, time.Minute)
	t.Cleanup(resultCache.Close)

	uc := newEngine(messages, resultCache, Options{CacheTTL: time.Minute})
	require.Equal(t, StateReady, uc.Init(context.Background(), opener(idx)))

	page, err := uc.SearchMessages(context.Background(), "x", filter.MessageFilter{}, 10, 0)
	require.NoError(t, err)
	assert.False(t, page.Ranked)
	assert.Len(t, page.Results, 1)
	assert.Equal(t, StateUnavailable, uc.State())
	assert.Zero(t, idx.searches.Load())
}

type generationFailingIndex struct {
	fakeIndex
}

func (g *generationFailingIndex) Generation(ctx context.Context) (repository.IndexGeneration, error) {
	return repository.IndexGeneration{}, errors.New("database disk image is malformed")
}
