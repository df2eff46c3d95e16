package service

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/library-seat-booking/internal/queue"
)

// silentBroker accepts TCP connections and never answers the AMQP
// handshake, like a wedged broker or a black holed port forward.
func silentBroker(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	return "amqp://guest:guest@" + ln.Addr().String() + "/"
}

func TestAMQPPublisherGivesUpOnSilentBroker(t *testing.T) {
	p := &AMQPPublisher{URL: silentBroker(t), Log: zap.NewNop(), DialTimeout: 200 * time.Millisecond}

	start := time.Now()
	err := p.Publish(context.Background(), queue.PaymentEvent{Type: queue.EventPaymentSubmitted})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAMQPPublisherHonoursContext(t *testing.T) {
	p := &AMQPPublisher{URL: silentBroker(t), Log: zap.NewNop()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := p.Publish(ctx, queue.PaymentEvent{Type: queue.EventPaymentSubmitted})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), defaultDialTimeout)
}
