package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AuditConsumer listens to the booking.events queue and appends one line per
// event to an audit log file.
type AuditConsumer struct {
	URL     string
	LogPath string // defaults to logs/booking.log
	Log     *zap.Logger
}

// Run connects to the broker, declares the queue and consumes until ctx is
// cancelled.  Broken connections are redialled with exponential backoff
// capped at 30s.  Malformed messages are rejected without requeue so they
// cannot spin the loop.
func (c *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return nil
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("audit consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.Log.Warn("audit consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("audit consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				c.Log.Error("audit consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *AuditConsumer) handle(body []byte) error {
	var ev PaymentEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	p := c.LogPath
	if p == "" {
		p = filepath.Join("logs", "booking.log")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return WriteAuditLine(f, ev)
}

// WriteAuditLine renders ev as a single human readable line.
func WriteAuditLine(w io.Writer, ev PaymentEvent) error {
	seat := ev.SeatNumber
	if seat == "" {
		seat = "-"
	}
	_, err := fmt.Fprintf(w, "[%s] %s | payment_id=%d | booking_id=%d | user_id=%d | seat=%s | amount=%d | actor_id=%d\n",
		ev.OccurredAt, ev.Type, ev.PaymentID, ev.BookingID, ev.UserID, seat, ev.Amount, ev.ActorID)
	return err
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
