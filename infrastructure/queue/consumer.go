package queue

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/nemaks/recordstore/infrastructure/logger"
	"github.com/nemaks/recordstore/infrastructure/metrics"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafka.Reader the consumers use.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ConsumerHandler interface {
	HandleMessage(ctx context.Context, msg kafka.Message) error
}

// newFetchBackOff paces retries after broker errors so an outage does not spin the fetch loop.
func newFetchBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	return b
}

// waitRetry sleeps for the next backoff interval. It reports false when ctx ends first.
func waitRetry(ctx context.Context, b backoff.BackOff) bool {
	timer := time.NewTimer(b.NextBackOff())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  500 * time.Millisecond,
	})
}

// KafkaConsumer hands every message of one topic to a handler and commits it afterwards. A message
// the handler rejects is logged and committed so one bad payload cannot stall the partition.
type KafkaConsumer struct {
	reader  MessageReader
	handler ConsumerHandler
	topic   string
	logger  *logger.Logger
	metrics metrics.Manager
}

func NewKafkaConsumer(reader MessageReader, topic string, handler ConsumerHandler, logger *logger.Logger, m metrics.Manager) *KafkaConsumer {
	return &KafkaConsumer{
		reader:  reader,
		handler: handler,
		topic:   topic,
		logger:  logger,
		metrics: m,
	}
}

// Listen blocks until ctx is cancelled or the reader is closed.
func (kc *KafkaConsumer) Listen(ctx context.Context) {
	kc.logger.Info("Kafka consumer started", zap.String("topic", kc.topic))
	retry := newFetchBackOff()
	for {
		msg, err := kc.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				kc.logger.Info("Kafka consumer stopped", zap.String("topic", kc.topic))
				return
			}
			kc.logger.Error("Error reading message", zap.String("topic", kc.topic), zap.Error(err))
			if !waitRetry(ctx, retry) {
				kc.logger.Info("Kafka consumer stopped", zap.String("topic", kc.topic))
				return
			}
			continue
		}
		retry.Reset()

		outcome := "ok"
		if err := kc.handler.HandleMessage(ctx, msg); err != nil {
			outcome = "error"
			kc.logger.Error("Error handling message",
				zap.String("topic", kc.topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
		kc.metrics.IncrementCounter(ctx, metrics.ConsumerMessagesTotal,
			attribute.String("topic", kc.topic),
			attribute.String("outcome", outcome),
		)

		if err := kc.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			kc.logger.Error("Error committing message", zap.String("topic", kc.topic), zap.Error(err))
		}
	}
}

func (kc *KafkaConsumer) Close() error {
	return kc.reader.Close()
}
