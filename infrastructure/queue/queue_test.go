package queue

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nemaks/recordstore/domain/filter"
	"github.com/nemaks/recordstore/domain/model"
	"github.com/nemaks/recordstore/infrastructure/logger"
	"github.com/nemaks/recordstore/infrastructure/metrics"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves queued messages, then io.EOF once closed or blocks until ctx is done.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	closed    bool
}

func newFakeReader(values ...string) *fakeReader {
	r := &fakeReader{}
	for i, v := range values {
		r.queue = append(r.queue, kafka.Message{Offset: int64(i), Value: []byte(v)})
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	for {
		r.mu.Lock()
		if len(r.queue) > 0 {
			msg := r.queue[0]
			r.queue = r.queue[1:]
			r.mu.Unlock()
			return msg, nil
		}
		closed := r.closed
		r.mu.Unlock()
		if closed {
			return kafka.Message{}, io.EOF
		}
		select {
		case <-ctx.Done():
			return kafka.Message{}, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type recordingAudit struct {
	mu      sync.Mutex
	batches [][]model.AuditEvent
	fail    int
}

func (a *recordingAudit) LogEvent(ctx context.Context, e model.AuditEvent) (model.AuditLog, error) {
	return model.AuditLog{}, nil
}

func (a *recordingAudit) BatchLogEvents(ctx context.Context, events []model.AuditEvent) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail > 0 {
		a.fail--
		return 0, errors.New("store down")
	}
	a.batches = append(a.batches, append([]model.AuditEvent(nil), events...))
	return len(events), nil
}

func (a *recordingAudit) GetLogs(ctx context.Context, f filter.AuditLogFilter, page, limit int64) (model.AuditLogPage, error) {
	return model.AuditLogPage{}, nil
}

func (a *recordingAudit) stored() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, b := range a.batches {
		n += len(b)
	}
	return n
}

func TestAuditBatchConsumer_FlushesBySizeAndSkipsMalformed(t *testing.T) {
	reader := newFakeReader(
		`{"user_id": 1, "action": "a"}`,
		`not json`,
		`{"user_id": 2, "action": "b", "ip_address": "10.0.0.2"}`,
		`{"user_id": 3, "action": "c"}`,
	)
	auditUC := &recordingAudit{}
	c := NewAuditBatchConsumer(reader, "audit.events", auditUC, 2, time.Hour, logger.NewNopLogger(), metrics.NewNoopManager())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Listen(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(reader.commits()) == 4 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, 3, auditUC.stored())
	assert.Equal(t, []int64{0, 1, 2, 3}, reader.commits())
	require.Len(t, auditUC.batches, 2)
	assert.Equal(t, "10.0.0.2", auditUC.batches[1][0].IPAddress)
}

func TestAuditBatchConsumer_FlushesOnInterval(t *testing.T) {
	reader := newFakeReader(`{"user_id": 1, "action": "a"}`)
	auditUC := &recordingAudit{}
	c := NewAuditBatchConsumer(reader, "audit.events", auditUC, 100, 10*time.Millisecond, logger.NewNopLogger(), metrics.NewNoopManager())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Listen(ctx)

	require.Eventually(t, func() bool { return auditUC.stored() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestAuditBatchConsumer_RetriesFailedBatch(t *testing.T) {
	reader := newFakeReader(`{"user_id": 1, "action": "a"}`, `{"user_id": 1, "action": "b"}`)
	auditUC := &recordingAudit{fail: 2}
	c := NewAuditBatchConsumer(reader, "audit.events", auditUC, 2, 10*time.Millisecond, logger.NewNopLogger(), metrics.NewNoopManager())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Listen(ctx)

	require.Eventually(t, func() bool { return len(reader.commits()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, auditUC.stored())
}

func TestAuditBatchConsumer_FlushesOnShutdown(t *testing.T) {
	reader := newFakeReader(`{"user_id": 1, "action": "a"}`)
	auditUC := &recordingAudit{}
	c := NewAuditBatchConsumer(reader, "audit.events", auditUC, 100, time.Hour, logger.NewNopLogger(), metrics.NewNoopManager())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Listen(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		reader.mu.Lock()
		defer reader.mu.Unlock()
		return len(reader.queue) == 0
	}, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, 1, auditUC.stored())
	assert.Equal(t, []int64{0}, reader.commits())
}

type recordingHandler struct {
	mu   sync.Mutex
	seen []string
}

func (h *recordingHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, string(msg.Value))
	if string(msg.Value) == "bad" {
		return errors.New("rejected")
	}
	return nil
}

func TestKafkaConsumer_CommitsEveryMessage(t *testing.T) {
	reader := newFakeReader("one", "bad", "three")
	require.NoError(t, reader.Close())
	handler := &recordingHandler{}
	c := NewKafkaConsumer(reader, "message.created", handler, logger.NewNopLogger(), metrics.NewNoopManager())

	c.Listen(context.Background())

	assert.Equal(t, []string{"one", "bad", "three"}, handler.seen)
	assert.Equal(t, []int64{0, 1, 2}, reader.commits())
}

// brokenReader fails every fetch as a reader does while the brokers are unreachable.
type brokenReader struct {
	fetches atomic.Int32
}

func (r *brokenReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.fetches.Add(1)
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{}, errors.New("dial tcp: connection refused")
}

func (r *brokenReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error { return nil }

func (r *brokenReader) Close() error { return nil }

func TestKafkaConsumer_BacksOffOnBrokerErrors(t *testing.T) {
	reader := &brokenReader{}
	c := NewKafkaConsumer(reader, "message.created", &recordingHandler{}, logger.NewNopLogger(), metrics.NewNoopManager())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		c.Listen(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after the context ended")
	}
	assert.LessOrEqual(t, reader.fetches.Load(), int32(6))
}

func TestAuditBatchConsumer_BacksOffOnBrokerErrors(t *testing.T) {
	reader := &brokenReader{}
	c := NewAuditBatchConsumer(reader, "audit.events", &recordingAudit{}, 10, time.Hour, logger.NewNopLogger(), metrics.NewNoopManager())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	c.Listen(ctx)

	assert.LessOrEqual(t, reader.fetches.Load(), int32(6))
}

func TestDecodeMessageCreated(t *testing.T) {
	doc, err := decodeMessageCreated([]byte(`{"message_id": 5, "content": "hi", "author_id": 2, "channel_id": 30, "guild_id": "40", "created_at": "2026-01-01T00:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, model.IndexDocument{MessageID: 5, Content: "hi", AuthorID: 2, ChannelID: "30", GuildID: "40", CreatedAt: "2026-01-01T00:00:00Z"}, doc)

	_, err = decodeMessageCreated([]byte(`{"content": "no id"}`))
	assert.Error(t, err)
	_, err = decodeMessageCreated([]byte(`{"message_id": 1, "channel_id": [1]}`))
	assert.Error(t, err)
}
