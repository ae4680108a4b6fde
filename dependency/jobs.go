package dependency

import (
	"github.com/nemaks/recordstore/infrastructure/jobs"
)

func (c *Container) initBackgroundJobs() {
	c.IndexStatsJob = jobs.NewIndexStatsJob(c.SearchUC, c.MetricsManager, c.Logger, c.Config.Search.StatsInterval)

	go c.IndexStatsJob.Start(c.ctx)

	c.Logger.Info("Background jobs initialized and started successfully")
}
