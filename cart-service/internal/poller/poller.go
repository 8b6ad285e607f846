// Package poller clears carts from order events, as a backstop for checkouts
// whose own clear step failed.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_bookstore/orders-service/pkg/ordersapi"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const GroupID = "cart-service-backstop"

// Reader is the part of *kafka.Reader the poller uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Clearer clears a cart only while it is still at the given version.
type Clearer interface {
	ClearIfVersion(ctx context.Context, userID string, version int64) (bool, error)
}

type Poller struct {
	carts   Clearer
	reader  Reader
	log     *zap.Logger
	backoff time.Duration
}

func NewPoller(carts Clearer, log *zap.Logger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    ordersapi.TopicOrdersCreated,
		GroupID:  GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return newPoller(carts, reader, log)
}

func newPoller(carts Clearer, reader Reader, log *zap.Logger) *Poller {
	return &Poller{carts: carts, reader: reader, log: log, backoff: time.Second}
}

// Run consumes until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := p.handleNext(ctx); err != nil && ctx.Err() == nil {
			p.log.Warn("backstop consume failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.backoff):
			}
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warn("error closing reader", zap.Error(err))
	}
}

// handleNext processes one message. The offset is committed only once the
// cart has been handled, so a failed clear is redelivered.
func (p *Poller) handleNext(ctx context.Context) error {
	m, err := p.reader.FetchMessage(ctx)
	if err != nil {
		return err
	}

	var event ordersapi.OrderCreatedEvent
	if errUnmarshal := json.Unmarshal(m.Value, &event); errUnmarshal != nil || event.UserID == "" {
		// poison message: log and skip
		p.log.Error("invalid order event",
			zap.Int64("offset", m.Offset),
			zap.ByteString("value", m.Value),
			zap.Error(errUnmarshal))
		return p.reader.CommitMessages(ctx, m)
	}

	if event.CartVersion <= 0 {
		p.log.Debug("order event without cart version, nothing to clear", zap.String("order_id", event.OrderID))
		return p.reader.CommitMessages(ctx, m)
	}

	cleared, err := p.carts.ClearIfVersion(ctx, event.UserID, event.CartVersion)
	if err != nil {
		return fmt.Errorf("clear cart for %s: %w", event.UserID, err)
	}
	p.log.Info("backstop handled order event",
		zap.String("order_id", event.OrderID),
		zap.String("user_id", event.UserID),
		zap.Int64("cart_version", event.CartVersion),
		zap.Bool("cleared", cleared))

	return p.reader.CommitMessages(ctx, m)
}
