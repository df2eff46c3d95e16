package queue

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriteAuditLine(t *testing.T) {
	var buf bytes.Buffer
	err := WriteAuditLine(&buf, PaymentEvent{
		Type: EventPaymentApproved, PaymentID: 3, BookingID: 2, UserID: 9,
		SeatNumber: "A-12", Amount: 1000, ActorID: 1, OccurredAt: "2026-01-02T03:04:05Z",
	})
	require.NoError(t, err)
	assert.Equal(t,
		"[2026-01-02T03:04:05Z] payment.approved | payment_id=3 | booking_id=2 | user_id=9 | seat=A-12 | amount=1000 | actor_id=1\n",
		buf.String())
}

func TestHandleAppendsToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "booking.log")
	c := &AuditConsumer{LogPath: path, Log: zap.NewNop()}

	body, err := json.Marshal(PaymentEvent{Type: EventPaymentSubmitted, PaymentID: 1, BookingID: 1, UserID: 5})
	require.NoError(t, err)
	require.NoError(t, c.handle(body))
	require.NoError(t, c.handle(body))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(data, []byte("payment.submitted")))
	assert.Contains(t, string(data), "seat=-")
}

func TestHandleRejectsMalformedBody(t *testing.T) {
	c := &AuditConsumer{LogPath: filepath.Join(t.TempDir(), "x.log"), Log: zap.NewNop()}
	assert.Error(t, c.handle([]byte("{not json")))
}
