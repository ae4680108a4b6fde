package queue

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/nemaks/recordstore/application/usecases/audit"
	"github.com/nemaks/recordstore/domain/model"
	"github.com/nemaks/recordstore/infrastructure/logger"
	"github.com/nemaks/recordstore/infrastructure/metrics"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const flushTimeout = 10 * time.Second

// AuditBatchConsumer groups audit events from kafka and stores them with BatchLogEvents, flushing
// when the batch is full or the interval elapses. Offsets are committed only after a successful
// flush. A failed batch is kept and retried on the next tick; while it is full no new messages are
// read.
type AuditBatchConsumer struct {
	reader   MessageReader
	audit    audit.AuditUseCase
	topic    string
	size     int
	interval time.Duration
	logger   *logger.Logger
	metrics  metrics.Manager

	pending []kafka.Message
	events  []model.AuditEvent
	failing bool
}

func NewAuditBatchConsumer(
	reader MessageReader,
	topic string,
	auditUC audit.AuditUseCase,
	size int,
	interval time.Duration,
	logger *logger.Logger,
	m metrics.Manager,
) *AuditBatchConsumer {
	if size <= 0 {
		size = 100
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &AuditBatchConsumer{
		reader:   reader,
		audit:    auditUC,
		topic:    topic,
		size:     size,
		interval: interval,
		logger:   logger,
		metrics:  m,
	}
}

func (c *AuditBatchConsumer) fetch(ctx context.Context, out chan<- kafka.Message) {
	defer close(out)
	retry := newFetchBackOff()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			c.logger.Error("Error reading audit event", zap.Error(err))
			if !waitRetry(ctx, retry) {
				return
			}
			continue
		}
		retry.Reset()
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// Listen blocks until ctx is cancelled, then flushes what is pending.
func (c *AuditBatchConsumer) Listen(ctx context.Context) {
	msgs := make(chan kafka.Message, c.size)
	go c.fetch(ctx, msgs)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("Audit batch consumer started",
		zap.String("topic", c.topic),
		zap.Int("batchSize", c.size),
		zap.Duration("interval", c.interval),
	)

	for {
		in := msgs
		if c.failing && len(c.pending) >= c.size {
			in = nil
		}

		select {
		case msg, ok := <-in:
			if !ok {
				c.drain()
				return
			}
			c.add(ctx, msg)
			if len(c.pending) >= c.size {
				c.flush(ctx)
			}
		case <-ticker.C:
			c.flush(ctx)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *AuditBatchConsumer) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	c.flush(ctx)
	c.logger.Info("Audit batch consumer stopped", zap.String("topic", c.topic))
}

func (c *AuditBatchConsumer) add(ctx context.Context, msg kafka.Message) {
	c.pending = append(c.pending, msg)

	event, err := decodeAuditEvent(msg.Value)
	if err != nil {
		c.logger.Warn("Dropping malformed audit event", zap.Int64("offset", msg.Offset), zap.Error(err))
		c.metrics.IncrementCounter(ctx, metrics.ConsumerMessagesTotal,
			attribute.String("topic", c.topic),
			attribute.String("outcome", "malformed"),
		)
		return
	}
	c.events = append(c.events, event)
}

func (c *AuditBatchConsumer) flush(ctx context.Context) {
	if len(c.pending) == 0 {
		return
	}

	if len(c.events) > 0 {
		kept, err := c.audit.BatchLogEvents(ctx, c.events)
		if err != nil {
			c.logger.Error("Audit batch not stored, will retry",
				zap.Int("events", len(c.events)),
				zap.Error(err),
			)
			c.failing = true
			return
		}
		c.metrics.AddCounter(ctx, metrics.ConsumerMessagesTotal, int64(kept),
			attribute.String("topic", c.topic),
			attribute.String("outcome", "ok"),
		)
	}

	if err := c.reader.CommitMessages(ctx, c.pending...); err != nil {
		c.logger.Error("Error committing audit events", zap.Error(err))
	}
	c.failing = false
	c.pending = nil
	c.events = nil
}

func (c *AuditBatchConsumer) Close() error {
	return c.reader.Close()
}
