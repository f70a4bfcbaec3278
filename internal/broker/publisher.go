// Package broker publishes service events to a RabbitMQ queue.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fairyhunter13/product-delete-service/internal/obs"
)

// ErrChannelClosed is reported when the broker channel was lost after startup.
var ErrChannelClosed = errors.New("broker channel closed")

// Channel is the subset of *amqp.Channel used to publish.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type closer interface {
	IsClosed() bool
}

type envelope struct {
	EventType string `json:"eventType"`
	Data      any    `json:"data"`
}

// Publisher sends JSON events to a durable queue with persistent delivery.
// It never returns an error to the caller: a missing channel or a failed
// publish is logged and dropped.
type Publisher struct {
	mu      sync.Mutex
	ch      Channel
	queue   string
	metrics *obs.DeleteMetrics
}

// NewPublisher returns a Publisher for queue. ch may be nil when the broker
// could not be reached at startup; every Publish is then a logged no-op.
func NewPublisher(ch Channel, queue string, metrics *obs.DeleteMetrics) *Publisher {
	return &Publisher{ch: ch, queue: queue, metrics: metrics}
}

// Connected reports whether the publisher holds an open channel.
func (p *Publisher) Connected() bool {
	if p.ch == nil {
		return false
	}
	if c, ok := p.ch.(closer); ok {
		return !c.IsClosed()
	}
	return true
}

// Queue returns the destination queue name.
func (p *Publisher) Queue() string { return p.queue }

// Publish sends {eventType, data} to the queue. The broker acknowledgement is
// not awaited and failures are not retried.
func (p *Publisher) Publish(ctx context.Context, eventType string, data any) {
	ev := envelope{EventType: eventType, Data: data}
	if !p.Connected() {
		obs.Logger.ErrorContext(ctx, "channel_not_initialized", "queue", p.queue, "event_type", eventType)
		p.metrics.Published(ctx, p.queue, ErrChannelClosed)
		return
	}
	err := p.send(ctx, ev)
	p.metrics.Published(ctx, p.queue, err)
	if err != nil {
		obs.Logger.ErrorContext(ctx, "event_publish_error", "queue", p.queue, "event_type", eventType, "error", err)
		return
	}
	obs.Logger.InfoContext(ctx, "event_published", "queue", p.queue, "event_type", eventType, "data", data)
}

func (p *Publisher) send(ctx context.Context, ev envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("publish panicked: %v", r)
		}
	}()
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	// amqp channels are not safe for concurrent publishes.
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}
