package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_bookstore/orders-service/internal/domain"
	r "github.com/fjod/go_bookstore/orders-service/internal/repository"
	"github.com/fjod/go_bookstore/orders-service/pkg/ordersapi"
	"github.com/google/uuid"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type mockOutbox struct {
	mu        sync.Mutex
	events    []*r.OutboxEvent
	processed []int64
	fetchErr  error
	markErr   error
}

func (m *mockOutbox) GetUnprocessedEvents(_ context.Context, limit int) ([]*r.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []*r.OutboxEvent
	for _, ev := range m.events {
		done := false
		for _, id := range m.processed {
			done = done || id == ev.ID
		}
		if !done {
			out = append(out, ev)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockOutbox) MarkEventAsProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	m.processed = append(m.processed, id)
	return nil
}

func (m *mockOutbox) processedIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.processed...)
}

type mockWriter struct {
	mu      sync.Mutex
	written []kafkaGo.Message
	failOn  int // 1-based call that fails, 0 never
	calls   int
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.calls == w.failOn {
		return errors.New("broker not available")
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *mockWriter) Close() error { return nil }

func event(id int64, user string) *r.OutboxEvent {
	return &r.OutboxEvent{
		ID:          id,
		AggregateID: user,
		EventType:   ordersapi.EventTypeOrderCreated,
		Payload:     []byte(fmt.Sprintf(`{"orderId":"o%d","userId":%q,"cartVersion":1}`, id, user)),
	}
}

func TestProcessUnpublishedEvents_PublishesAndMarks(t *testing.T) {
	repo := &mockOutbox{events: []*r.OutboxEvent{event(1, "u1"), event(2, "u2")}}
	w := &mockWriter{}
	p := newOutboxPoller(repo, w, zap.NewNop(), time.Second)

	assert.Equal(t, 2, p.processUnpublishedEvents(context.Background()))
	assert.Equal(t, []int64{1, 2}, repo.processedIDs())
	require.Len(t, w.written, 2)
	assert.Equal(t, "u1", string(w.written[0].Key))
	assert.Equal(t, "event_type", w.written[0].Headers[0].Key)
	assert.Equal(t, ordersapi.EventTypeOrderCreated, string(w.written[0].Headers[0].Value))

	assert.Equal(t, 0, p.processUnpublishedEvents(context.Background()), "nothing left")
}

func TestProcessUnpublishedEvents_StopsAtFirstFailure(t *testing.T) {
	repo := &mockOutbox{events: []*r.OutboxEvent{event(1, "u1"), event(2, "u1"), event(3, "u1")}}
	w := &mockWriter{failOn: 2}
	p := newOutboxPoller(repo, w, zap.NewNop(), time.Second)

	assert.Equal(t, 1, p.processUnpublishedEvents(context.Background()))
	assert.Equal(t, []int64{1}, repo.processedIDs())

	// next tick resumes from event 2
	assert.Equal(t, 2, p.processUnpublishedEvents(context.Background()))
	assert.Equal(t, []int64{1, 2, 3}, repo.processedIDs())
}

func TestProcessUnpublishedEvents_FetchErrorIsTolerated(t *testing.T) {
	repo := &mockOutbox{fetchErr: errors.New("database connection error")}
	w := &mockWriter{}
	p := newOutboxPoller(repo, w, zap.NewNop(), time.Second)

	assert.Equal(t, 0, p.processUnpublishedEvents(context.Background()))
	assert.Empty(t, w.written)
}

func TestProcessUnpublishedEvents_MarkErrorLeavesEventPending(t *testing.T) {
	repo := &mockOutbox{events: []*r.OutboxEvent{event(1, "u1")}, markErr: errors.New("deadlock")}
	w := &mockWriter{}
	p := newOutboxPoller(repo, w, zap.NewNop(), time.Second)

	assert.Equal(t, 0, p.processUnpublishedEvents(context.Background()))
	assert.Len(t, w.written, 1)
	assert.Empty(t, repo.processedIDs())
}

func TestRun_DrainsWithMemoryRepository(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	repo := r.NewMemoryRepository()
	for i := 0; i < 3; i++ {
		order := &domain.Order{ID: uuid.New(), CheckoutID: uuid.New(), UserID: "u1"}
		require.NoError(t, repo.CreateOrder(context.Background(), order, event(0, "u1")))
	}
	w := &mockWriter{}
	p := newOutboxPoller(repo, w, zap.NewNop(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		events, _ := repo.GetUnprocessedEvents(ctx, 10)
		return len(events) == 0
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-done
	assert.Len(t, w.written, 3)
}

func setupKafka(t *testing.T) string {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	testcontainers.CleanupContainer(t, kafkaContainer)
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")
	return brokers[0]
}

func TestOutboxPoller_PublishesEventsToKafka(t *testing.T) {
	brokerAddr := setupKafka(t)

	repo := &mockOutbox{events: []*r.OutboxEvent{event(1, "user-456")}}
	poller := NewOutboxPoller(repo, zap.NewNop(), brokerAddr)
	defer poller.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	go poller.Run(ctx)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{brokerAddr},
		Topic:    ordersapi.TopicOrdersCreated,
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-456", string(msg.Key))

	var payload ordersapi.OrderCreatedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "o1", payload.OrderID)
	assert.Equal(t, "user-456", payload.UserID)

	require.Eventually(t, func() bool { return len(repo.processedIDs()) == 1 }, 5*time.Second, 100*time.Millisecond)
}
