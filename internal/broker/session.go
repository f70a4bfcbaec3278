package broker

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fairyhunter13/product-delete-service/internal/obs"
)

// Session is the broker connection and channel established once at startup.
type Session struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects to url, opens a channel and declares queue as durable.
func Dial(url, queue string) (*Session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	s := &Session{conn: conn, ch: ch}
	go s.watch()
	obs.Logger.Info("broker_connected", "queue", queue)
	return s, nil
}

func (s *Session) watch() {
	if err, ok := <-s.conn.NotifyClose(make(chan *amqp.Error, 1)); ok && err != nil {
		obs.Logger.Error("broker_connection_lost", "error", err)
	}
}

// Channel returns the publishing channel, or nil for a nil Session.
func (s *Session) Channel() Channel {
	if s == nil || s.ch == nil {
		return nil
	}
	return s.ch
}

// Close closes the channel and the connection.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.ch != nil && !s.ch.IsClosed() {
		errs = append(errs, s.ch.Close())
	}
	if s.conn != nil && !s.conn.IsClosed() {
		errs = append(errs, s.conn.Close())
	}
	return errors.Join(errs...)
}
