package dependency

import (
	"context"

	auditUseCase "github.com/nemaks/recordstore/application/usecases/audit"
	searchUseCase "github.com/nemaks/recordstore/application/usecases/search"
	"github.com/nemaks/recordstore/domain/repository"
	"github.com/nemaks/recordstore/infrastructure/textindex"
	"go.uber.org/zap"
)

func (c *Container) initUseCases() {
	c.AuditUC = auditUseCase.NewAuditUseCase(c.AuditRepo, c.MetricsManager, c.Logger)
	c.SearchUC = searchUseCase.NewSearchUseCase(
		c.MessageRepo,
		c.SearchCache,
		searchUseCase.Options{
			ExactFallbackTotal: c.Config.Search.ExactFallbackTotal,
			CacheTTL:           c.Config.Search.CacheTTL,
		},
		c.MetricsManager,
		c.Logger,
	)

	c.Logger.Info("Use cases initialized successfully")
}

// initSearchIndex opens the text index once. Failure leaves search on the relational fallback for
// the rest of the process.
func (c *Container) initSearchIndex() {
	indexPath := c.Config.Search.IndexPath
	state := c.SearchUC.Init(c.ctx, func(ctx context.Context) (repository.TextIndex, error) {
		idx, err := textindex.Open(ctx, indexPath, c.Logger.Log.Named("textindex"))
		if err != nil {
			return nil, err
		}
		return idx, nil
	})

	c.Logger.Info("Search engine initialized",
		zap.String("state", state.String()),
		zap.String("indexPath", indexPath),
	)
}
