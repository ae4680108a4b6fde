package search

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nemaks/recordstore/domain/apperror"
	"github.com/nemaks/recordstore/domain/filter"
	"github.com/nemaks/recordstore/domain/model"
	"github.com/nemaks/recordstore/domain/repository"
	"github.com/nemaks/recordstore/infrastructure/cache"
	"github.com/nemaks/recordstore/infrastructure/logger"
	"github.com/nemaks/recordstore/infrastructure/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	opSearchMessages = "search.SearchMessages"
	opIndexMessage   = "search.IndexMessage"
)

// IndexOpener opens the text index. It is called once by Init.
type IndexOpener func(ctx context.Context) (repository.TextIndex, error)

type SearchUseCase interface {
	Init(ctx context.Context, open IndexOpener) State
	SearchMessages(ctx context.Context, query string, f filter.MessageFilter, limit, offset int64) (model.SearchPage, error)
	IndexMessage(ctx context.Context, doc model.IndexDocument) error
	State() State
	IndexStats(ctx context.Context) (repository.IndexStats, error)
	Close() error
}

type Options struct {
	// ExactFallbackTotal makes the fallback path count every match instead of reporting the page size.
	ExactFallbackTotal bool
	CacheTTL           time.Duration
}

type indexRef struct {
	repository.TextIndex
}

type searchUseCase struct {
	messages repository.MessageSearchRepository
	cache    *cache.DistributedCache
	options  Options
	metrics  metrics.Manager
	tracer   trace.Tracer
	logger   *logger.Logger

	state atomic.Int32
	index atomic.Pointer[indexRef]
}

// NewSearchUseCase builds an engine in the Uninitialized state. resultCache may be nil.
func NewSearchUseCase(
	messages repository.MessageSearchRepository,
	resultCache *cache.DistributedCache,
	options Options,
	metricsManager metrics.Manager,
	logger *logger.Logger,
) SearchUseCase {
	return &searchUseCase{
		messages: messages,
		cache:    resultCache,
		options:  options,
		metrics:  metricsManager,
		tracer:   otel.Tracer("recordstore/search"),
		logger:   logger,
	}
}

func (uc *searchUseCase) State() State {
	return State(uc.state.Load())
}

// Init opens the index and moves the engine to Ready, or to Unavailable when opening fails. Only
// the first call has an effect.
func (uc *searchUseCase) Init(ctx context.Context, open IndexOpener) State {
	if uc.State() != StateUninitialized {
		return uc.State()
	}

	idx, err := open(ctx)
	if err != nil {
		uc.logger.Error("text index unavailable, searches will use the relational fallback", zap.Error(err))
		uc.state.CompareAndSwap(int32(StateUninitialized), int32(StateUnavailable))
		uc.publishState()
		return uc.State()
	}

	uc.index.Store(&indexRef{idx})
	uc.state.CompareAndSwap(int32(StateUninitialized), int32(StateReady))
	uc.publishState()
	uc.logger.Info("text index ready")
	return uc.State()
}

func (uc *searchUseCase) markUnavailable(err error) {
	if uc.state.Swap(int32(StateUnavailable)) != int32(StateUnavailable) {
		uc.logger.Warn("text index query failed, switching to relational fallback", zap.Error(err))
		uc.publishState()
	}
}

func (uc *searchUseCase) publishState() {
	uc.metrics.SetGauge(metrics.SearchEngineState, float64(uc.State()))
}

func (uc *searchUseCase) SearchMessages(ctx context.Context, query string, f filter.MessageFilter, limit, offset int64) (model.SearchPage, error) {
	text := strings.TrimSpace(query)
	if text == "" {
		uc.metrics.IncrementCounter(ctx, metrics.SearchRequestsTotal, attribute.String("path", "empty"))
		return model.SearchPage{Results: []model.SearchResult{}}, nil
	}

	q := filter.MessageQuery{Text: text, Filter: f.Normalize(), Window: filter.NewWindow(limit, offset)}

	ctx, span := uc.tracer.Start(ctx, opSearchMessages, trace.WithAttributes(
		attribute.Int("search.limit", q.Window.Limit),
		attribute.Int("search.offset", q.Window.Offset),
		attribute.Bool("search.filtered", q.Filter.HasFilters()),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		uc.metrics.RecordHistogram(ctx, metrics.SearchDuration, time.Since(start).Seconds())
	}()

	if ref := uc.index.Load(); ref != nil && uc.State() == StateReady {
		page, ok := uc.searchIndex(ctx, ref, q)
		if ok {
			span.SetAttributes(attribute.String("search.path", "index"))
			return page, nil
		}
	}

	span.SetAttributes(attribute.String("search.path", "fallback"))
	page, err := uc.searchFallback(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return model.SearchPage{}, err
	}
	return page, nil
}

// searchIndex answers from the index and the result cache. It reports false when the index failed,
// after moving the engine to Unavailable.
func (uc *searchUseCase) searchIndex(ctx context.Context, ref *indexRef, q filter.MessageQuery) (model.SearchPage, bool) {
	var key string
	if uc.cache != nil {
		gen, err := ref.Generation(ctx)
		if err != nil {
			uc.markUnavailable(err)
			return model.SearchPage{}, false
		}
		key = uc.cacheKey(gen, q)

		var cached model.SearchPage
		found, err := uc.cache.Get(ctx, key, &cached)
		if err != nil {
			uc.logger.Warn("search cache read failed", zap.Error(err))
		}
		if found && err == nil {
			uc.metrics.IncrementCounter(ctx, metrics.SearchRequestsTotal, attribute.String("path", "cache"))
			return cached, true
		}
	}

	page, err := ref.Search(ctx, q)
	if err != nil {
		uc.markUnavailable(err)
		return model.SearchPage{}, false
	}

	uc.metrics.IncrementCounter(ctx, metrics.SearchRequestsTotal, attribute.String("path", "index"))
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, page, uc.options.CacheTTL); err != nil {
			uc.logger.Warn("search cache write failed", zap.Error(err))
		}
	}
	return page, true
}

func (uc *searchUseCase) searchFallback(ctx context.Context, q filter.MessageQuery) (model.SearchPage, error) {
	uc.metrics.IncrementCounter(ctx, metrics.SearchRequestsTotal, attribute.String("path", "fallback"))

	results, err := uc.messages.SearchContent(ctx, q)
	if err != nil {
		uc.logger.Error("fallback search failed", zap.Error(err))
		return model.SearchPage{}, apperror.Store(opSearchMessages, "search failed", err)
	}

	total := int64(len(results))
	if uc.options.ExactFallbackTotal {
		total, err = uc.messages.CountContent(ctx, q)
		if err != nil {
			uc.logger.Error("fallback count failed", zap.Error(err))
			return model.SearchPage{}, apperror.Store(opSearchMessages, "search failed", err)
		}
	}

	return model.SearchPage{Results: results, TotalHits: total}, nil
}

// cacheKey includes the persisted index generation, so a write made by any process sharing the
// index invalidates earlier pages, and pages of different indexes never collide.
func (uc *searchUseCase) cacheKey(gen repository.IndexGeneration, q filter.MessageQuery) string {
	return cache.Key("search:",
		gen.ID,
		strconv.FormatUint(gen.Seq, 10),
		q.Text,
		q.Filter.ChannelID,
		q.Filter.GuildID,
		q.Filter.AuthorID,
		strconv.Itoa(q.Window.Limit),
		strconv.Itoa(q.Window.Offset),
	)
}

// IndexMessage writes doc to the index. A failed write is reported to the caller but does not
// change the engine state.
func (uc *searchUseCase) IndexMessage(ctx context.Context, doc model.IndexDocument) error {
	ctx, span := uc.tracer.Start(ctx, opIndexMessage, trace.WithAttributes(attribute.Int64("message.id", int64(doc.MessageID))))
	defer span.End()

	ref := uc.index.Load()
	if ref == nil {
		span.SetStatus(codes.Error, "index unavailable")
		uc.metrics.IncrementCounter(ctx, metrics.SearchIndexWrites, attribute.String("outcome", "unavailable"))
		return apperror.Index(opIndexMessage, "index unavailable", nil)
	}

	if err := ref.Index(ctx, doc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "index write failed")
		uc.metrics.IncrementCounter(ctx, metrics.SearchIndexWrites, attribute.String("outcome", "error"))
		uc.logger.Error("failed to index message", zap.Uint64("message_id", doc.MessageID), zap.Error(err))
		return apperror.Index(opIndexMessage, "index write failed", err)
	}

	uc.metrics.IncrementCounter(ctx, metrics.SearchIndexWrites, attribute.String("outcome", "ok"))
	return nil
}

func (uc *searchUseCase) IndexStats(ctx context.Context) (repository.IndexStats, error) {
	ref := uc.index.Load()
	if ref == nil {
		return repository.IndexStats{}, apperror.Index("search.IndexStats", "index unavailable", nil)
	}
	stats, err := ref.Stats(ctx)
	if err != nil {
		return stats, apperror.Index("search.IndexStats", "stats failed", err)
	}
	return stats, nil
}

func (uc *searchUseCase) Close() error {
	if ref := uc.index.Swap(nil); ref != nil {
		return ref.Close()
	}
	return nil
}
