// Package publisher moves outbox events to Kafka.
package publisher

import (
	"context"
	"time"

	r "github.com/fjod/go_bookstore/orders-service/internal/repository"
	"github.com/fjod/go_bookstore/orders-service/pkg/ordersapi"
	"github.com/fjod/go_bookstore/pkg/metrics"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const batchSize = 100

// Writer is the part of *kafka.Writer the poller uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type OutboxPoller struct {
	timeout   time.Duration
	eventTick time.Duration
	repo      r.OutboxStore
	writer    Writer
	log       *zap.Logger
}

func NewOutboxPoller(repo r.OutboxStore, log *zap.Logger, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  ordersapi.TopicOrdersCreated,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newOutboxPoller(repo, w, log, time.Second)
}

func newOutboxPoller(repo r.OutboxStore, w Writer, log *zap.Logger, tick time.Duration) *OutboxPoller {
	return &OutboxPoller{
		timeout:   5 * time.Second,
		eventTick: tick,
		repo:      repo,
		writer:    w,
		log:       log,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	defer eventTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

// processUnpublishedEvents publishes one batch and reports how many events
// were published and marked. It stops at the first failed publish so events
// for one user leave in outbox order.
func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) int {
	events, err := p.repo.GetUnprocessedEvents(ctx, batchSize)
	if err != nil {
		p.log.Warn("failed to fetch outbox events", zap.Error(err))
		return 0
	}

	published := 0
	for _, event := range events {
		if errPublish := p.publishToKafka(ctx, event); errPublish != nil {
			metrics.UpstreamCalls.WithLabelValues("kafka", "error").Inc()
			p.log.Warn("failed to publish event", zap.Int64("event_id", event.ID), zap.Error(errPublish))
			break
		}
		metrics.UpstreamCalls.WithLabelValues("kafka", "ok").Inc()

		// a failed mark republishes the event on the next tick
		if errMark := p.repo.MarkEventAsProcessed(ctx, event.ID); errMark != nil {
			p.log.Warn("failed to mark event as processed", zap.Int64("event_id", event.ID), zap.Error(errMark))
			break
		}
		published++
	}
	return published
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *r.OutboxEvent) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // user id keeps one user's events ordered
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
