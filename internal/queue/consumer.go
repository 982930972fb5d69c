package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartAuditConsumer connects to RabbitMQ, declares the subscription queue
// (durable) and appends every event to the file at path, one line each.
// It reconnects with exponential backoff until ctx is cancelled, which is
// the only way it returns.
func StartAuditConsumer(ctx context.Context, url, path string, log *slog.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("audit-consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, path, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("audit-consumer: consume loop ended, reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, path string, log *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("audit-consumer: set QoS failed", "err", err)
	}
	if _, err := ch.QueueDeclare(SubscriptionQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, SubscriptionQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := appendToFile(path, d.Body); err != nil {
			log.Error("audit-consumer: handle message failed", "err", err)
			_ = d.Nack(false, false) // do not requeue; a poison message would loop forever
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func appendToFile(path string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()
	return WriteAuditLine(f, body)
}

// WriteAuditLine decodes a SubscriptionEvent from body and writes a single
// human-readable line for it to w.
func WriteAuditLine(w io.Writer, body []byte) error {
	var ev SubscriptionEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.SubscriptionID == "" {
		return errors.New("event is missing type or subscription id")
	}
	line := fmt.Sprintf("[%s] %s | subscription_id=%s | user_id=%s",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.SubscriptionID, ev.UserID)
	if ev.PlanType != "" {
		line += fmt.Sprintf(" | plan=%s | start=%s | end=%s", ev.PlanType,
			ev.StartDate.UTC().Format(time.RFC3339), ev.EndDate.UTC().Format(time.RFC3339))
	}
	if _, err := io.WriteString(w, line+"\n"); err != nil {
		return fmt.Errorf("write audit line: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
