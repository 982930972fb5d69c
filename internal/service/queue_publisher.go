package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/audiobook-library/internal/queue"
)

// EventPublisher delivers subscription lifecycle events.  Publishing is
// best effort: callers log failures and never roll back on them.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.SubscriptionEvent) error
}

// NopPublisher drops every event.  It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.SubscriptionEvent) error { return nil }

const defaultDialTimeout = 5 * time.Second

// AMQPPublisher publishes events to the durable subscription queue on the
// default exchange.  The connection is dialed lazily and redialed after
// a failure.  Dialing happens outside the lock and never outlasts the
// caller's deadline, so an unreachable broker does not queue requests.
type AMQPPublisher struct {
	url         string
	dialTimeout time.Duration
	dial        func(url string, timeout time.Duration) (*amqp.Connection, error)

	mu   sync.Mutex
	conn *amqp.Connection
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, dialTimeout: defaultDialTimeout, dial: dialAMQP}
}

func dialAMQP(url string, timeout time.Duration) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
}

// Publish sends ev as a persistent JSON message.  Errors name the stage
// that failed; logging is left to the caller.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.SubscriptionEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: encode event: %w", err)
	}

	conn, err := p.connection(ctx)
	if err != nil {
		return fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		p.drop(conn)
		return fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue.SubscriptionQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: declare queue: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(ev.Type),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.SubscriptionQueue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// connection returns the shared connection, dialing a new one when there
// is none.  When two callers dial at once the first to finish wins and the
// other connection is closed.
func (p *AMQPPublisher) connection(ctx context.Context) (*amqp.Connection, error) {
	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn != nil && !conn.IsClosed() {
		return conn, nil
	}

	timeout := p.dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}
	fresh, err := p.dial(p.url, timeout)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && !p.conn.IsClosed() {
		_ = fresh.Close()
		return p.conn, nil
	}
	p.conn = fresh
	return fresh, nil
}

// drop forgets conn if it is still the shared connection.
func (p *AMQPPublisher) drop(conn *amqp.Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == conn {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection, if any.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}
