// Package queue forwards domain events to an AMQP broker so that mail and
// analytics consumers outside this service can react to ticket reviews.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/kidsact/admin-console/internal/config"
	"github.com/kidsact/admin-console/internal/events"
)

// Publisher publishes events as persistent JSON messages to a durable queue.
// The connection is opened lazily and re-dialed after any failure.
type Publisher struct {
	url    string
	queue  string
	logger *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher builds a publisher; nothing is dialed until the first event.
func NewPublisher(cfg config.BrokerConfig, logger *zap.Logger) *Publisher {
	return &Publisher{url: cfg.URL, queue: cfg.Queue, logger: logger}
}

// Handle is an events.EventHandler forwarding the event to the broker.
func (p *Publisher) Handle(ctx context.Context, event events.Event) error {
	return p.Publish(ctx, event)
}

// Publish sends one event.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	msg, err := buildPublishing(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		p.logger.Warn("broker unavailable", zap.String("event_type", string(event.Type)), zap.Error(err))
		return err
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		p.resetLocked()
		p.logger.Warn("publish failed", zap.String("event_id", event.ID), zap.Error(err))
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	p.logger.Debug("event published", zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return nil, fmt.Errorf("dial broker: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		p.resetLocked()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		p.resetLocked()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.ch = ch
	return ch, nil
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func buildPublishing(event events.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         string(event.Type),
		Timestamp:    ts.UTC(),
		Body:         body,
	}, nil
}
