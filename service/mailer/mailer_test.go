package mailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTransport records sends and returns a configured error.
type stubTransport struct {
	err     error
	calls   int
	lastTo  string
	lastMsg []byte
}

func (s *stubTransport) Send(from, to string, msg []byte) error {
	s.calls++
	s.lastTo = to
	s.lastMsg = msg
	return s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendReceipt_Success(t *testing.T) {
	transport := &stubTransport{}
	s := NewSender("smtp.example.com", 587, "noreply@example.com", "secret", true, nil, testLogger(),
		WithTransport(transport))

	sent, err := s.SendReceipt(context.Background(), "alice@example.com", decimal.RequireFromString("99.95"), "T123")
	require.NoError(t, err)
	assert.True(t, sent)

	require.Equal(t, 1, transport.calls)
	assert.Equal(t, "alice@example.com", transport.lastTo)

	msg := string(transport.lastMsg)
	assert.Contains(t, msg, "Subject: Payment receipt #T123")
	assert.Contains(t, msg, "T123")
	assert.Contains(t, msg, "99.95")
	assert.Contains(t, msg, "Content-Type: text/html")
}

func TestSendReceipt_DegradedModeWithoutCredentials(t *testing.T) {
	transport := &stubTransport{}
	s := NewSender("smtp.example.com", 587, "", "", true, nil, testLogger(),
		WithTransport(transport))

	// Without credentials the send is a logged no-op that counts as sent.
	sent, err := s.SendReceipt(context.Background(), "alice@example.com", decimal.NewFromInt(10), "T1")
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 0, transport.calls)
}

func TestSendReceipt_TransportFailureIsContained(t *testing.T) {
	transport := &stubTransport{err: errors.New("connection reset")}
	s := NewSender("smtp.example.com", 587, "noreply@example.com", "secret", true, nil, testLogger(),
		WithTransport(transport))

	sent, err := s.SendReceipt(context.Background(), "alice@example.com", decimal.NewFromInt(10), "T1")
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestSendReceipt_InvalidRecipientReturnsNotificationError(t *testing.T) {
	transport := &stubTransport{}
	s := NewSender("smtp.example.com", 587, "noreply@example.com", "secret", true, nil, testLogger(),
		WithTransport(transport))

	sent, err := s.SendReceipt(context.Background(), "not an address", decimal.NewFromInt(10), "T1")
	require.Error(t, err)
	assert.False(t, sent)
	assert.Equal(t, 0, transport.calls)

	var notifErr *NotificationError
	require.ErrorAs(t, err, &notifErr)
	assert.Contains(t, notifErr.Error(), "failed to send receipt email")
}

func TestSendNotification(t *testing.T) {
	transport := &stubTransport{}
	s := NewSender("smtp.example.com", 587, "noreply@example.com", "secret", true, nil, testLogger(),
		WithTransport(transport))

	sent, err := s.SendNotification(context.Background(), "alice@example.com", "hello", "body text")
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Contains(t, string(transport.lastMsg), "Subject: hello")
}

func TestBuildMessage_RequiresSubject(t *testing.T) {
	_, err := buildMessage("noreply@example.com", "alice@example.com", "", "body")
	assert.Error(t, err)
}
