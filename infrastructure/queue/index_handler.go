package queue

import (
	"context"

	"github.com/nemaks/recordstore/application/usecases/search"
	"github.com/nemaks/recordstore/domain/apperror"
	"github.com/segmentio/kafka-go"
)

// IndexHandler feeds message.created events into the text index.
type IndexHandler struct {
	search search.SearchUseCase
}

func NewIndexHandler(search search.SearchUseCase) *IndexHandler {
	return &IndexHandler{search: search}
}

func (h *IndexHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	doc, err := decodeMessageCreated(msg.Value)
	if err != nil {
		return apperror.Wrap(apperror.KindValidation, "queue.IndexHandler", "malformed message event", err)
	}
	return h.search.IndexMessage(ctx, doc)
}
