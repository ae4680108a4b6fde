package jobs

import (
	"context"
	"time"

	"github.com/nemaks/recordstore/application/usecases/search"
	"github.com/nemaks/recordstore/infrastructure/logger"
	"github.com/nemaks/recordstore/infrastructure/metrics"
	"go.uber.org/zap"
)

// IndexStatsJob periodically publishes the text index size and the search engine state as gauges.
type IndexStatsJob struct {
	searchUseCase search.SearchUseCase
	metrics       metrics.Manager
	logger        *logger.Logger
	interval      time.Duration
	stopChan      chan struct{}
}

func NewIndexStatsJob(searchUseCase search.SearchUseCase, m metrics.Manager, logger *logger.Logger, interval time.Duration) *IndexStatsJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &IndexStatsJob{
		searchUseCase: searchUseCase,
		metrics:       m,
		logger:        logger,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

func (j *IndexStatsJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("Index stats job started",
		zap.Duration("interval", j.interval),
	)

	j.runCollect(ctx)

	for {
		select {
		case <-ticker.C:
			j.runCollect(ctx)
		case <-j.stopChan:
			j.logger.Info("Index stats job stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Index stats job context cancelled")
			return
		}
	}
}

func (j *IndexStatsJob) Stop() {
	close(j.stopChan)
}

func (j *IndexStatsJob) runCollect(ctx context.Context) {
	state := j.searchUseCase.State()
	j.metrics.SetGauge(metrics.SearchEngineState, float64(state))

	if state != search.StateReady {
		return
	}

	stats, err := j.searchUseCase.IndexStats(ctx)
	if err != nil {
		j.logger.Warn("Index stats collection failed", zap.Error(err))
		return
	}
	j.metrics.SetGauge(metrics.SearchIndexDocs, float64(stats.Documents))
	j.logger.Debug("Index stats collected",
		zap.Int64("documents", stats.Documents),
		zap.Int("schemaVersion", stats.SchemaVersion),
	)
}
