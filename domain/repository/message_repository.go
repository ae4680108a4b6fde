package repository

import (
	"context"

	"github.com/nemaks/recordstore/domain/filter"
	"github.com/nemaks/recordstore/domain/model"
)

// MessageSearchRepository is the relational fallback path of message search.
type MessageSearchRepository interface {
	SearchContent(ctx context.Context, q filter.MessageQuery) ([]model.SearchResult, error)
	CountContent(ctx context.Context, q filter.MessageQuery) (int64, error)
}
