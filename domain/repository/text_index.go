package repository

import (
	"context"

	"github.com/nemaks/recordstore/domain/filter"
	"github.com/nemaks/recordstore/domain/model"
)

type IndexStats struct {
	Documents     int64
	SchemaVersion int
}

// IndexGeneration identifies the content of one index. ID is fixed when the index is created and
// Seq grows with every committed write, so equal generations mean equal search results.
type IndexGeneration struct {
	ID  string
	Seq uint64
}

// TextIndex is a ranked full-text index over messages.
type TextIndex interface {
	Index(ctx context.Context, doc model.IndexDocument) error
	Search(ctx context.Context, q filter.MessageQuery) (model.SearchPage, error)
	Generation(ctx context.Context) (IndexGeneration, error)
	Stats(ctx context.Context) (IndexStats, error)
	Close() error
}
