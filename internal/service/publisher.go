package service

import (
	"context"
	"encoding/json"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/library-seat-booking/internal/queue"
)

// EventPublisher delivers workflow events.  Publishing is best effort: the
// workflow logs a failure and carries on.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.PaymentEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.PaymentEvent) error { return nil }

// defaultDialTimeout bounds the TCP connect and the AMQP handshake.  Publish
// runs on the request path after the commit.
const defaultDialTimeout = 2 * time.Second

// AMQPPublisher publishes events to the durable booking.events queue on the
// default exchange.  It dials per publish; event volume is a handful per
// booking so a long lived channel is not worth the reconnect logic.
type AMQPPublisher struct {
	URL         string
	Log         *zap.Logger
	DialTimeout time.Duration // zero means defaultDialTimeout
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.PaymentEvent) error {
	timeout := p.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, 2*timeout)
	defer cancel()

	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      dialContext(ctx, timeout),
	})
	if err != nil {
		p.Log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.QueueName, true, false, false, false, nil); err != nil {
		p.Log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.QueueName, false, false, msg); err != nil {
		p.Log.Warn("rabbitmq: publish failed", zap.Error(err), zap.String("type", ev.Type))
		return err
	}
	return nil
}

// dialContext connects with ctx and leaves a deadline on the socket that
// covers the AMQP handshake.  amqp091 clears it once the connection is open.
func dialContext(ctx context.Context, timeout time.Duration) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}
