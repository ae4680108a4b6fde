package dependency

import (
	"github.com/nemaks/recordstore/infrastructure/persistence/repository"
)

func (c *Container) initRepositories() {
	c.AuditRepo = repository.NewAuditLogRepository(c.DB, c.Logger.Log)
	c.MessageRepo = repository.NewMessageSearchRepository(c.DB, c.Logger.Log)

	c.Logger.Info("Repositories initialized successfully")
}
