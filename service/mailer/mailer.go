// Package mailer delivers receipt and notification emails over SMTP.
//
// The sender has a deliberate degraded mode: when credentials are not
// configured, sends are logged instead of transmitted and reported as
// successful. This lets the service run in environments without real mail
// credentials (local dev, CI) without changing payment behavior.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/brojonat/centavo/service/metrics"
	"github.com/shopspring/decimal"
)

// NotificationError is returned only when building or initiating a send fails
// in an unexpected way. Ordinary transport failures are contained and reported
// as a false send result, never as an error.
type NotificationError struct {
	Message string
	cause   error
}

func (e *NotificationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *NotificationError) Unwrap() error {
	return e.cause
}

// Transport performs the actual SMTP transmission.
// It exists so tests can stub delivery failures without a mail server.
type Transport interface {
	Send(from, to string, msg []byte) error
}

// Sender sends payment receipts and generic notifications.
type Sender struct {
	host      string
	port      int
	username  string
	password  string
	useTLS    bool
	transport Transport
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures a Sender.
type Option func(*Sender)

// WithTransport overrides the SMTP transport (used by tests).
func WithTransport(t Transport) Option {
	return func(s *Sender) { s.transport = t }
}

// NewSender creates a Sender. If username or password is empty the sender
// operates in logged no-op mode. If metrics is nil, no metrics are recorded.
func NewSender(host string, port int, username, password string, useTLS bool, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Sender {
	s := &Sender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		useTLS:   useTLS,
		metrics:  m,
		logger:   logger,
	}
	s.transport = &smtpTransport{host: host, port: port, username: username, password: password, useTLS: useTLS}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendReceipt emails a payment receipt. It returns whether the receipt was
// transmitted (or skipped in degraded mode, which counts as sent). A transport
// failure yields (false, nil); only an unexpected failure while constructing
// or initiating the send returns a *NotificationError.
func (s *Sender) SendReceipt(ctx context.Context, email string, amount decimal.Decimal, transactionID string) (bool, error) {
	subject := fmt.Sprintf("Payment receipt #%s", transactionID)
	body := receiptBody(amount, transactionID)

	sent, err := s.send(ctx, email, subject, body)
	if err != nil {
		s.recordReceipt("error")
		return false, &NotificationError{Message: "failed to send receipt email", cause: err}
	}
	if sent {
		s.recordReceipt("sent")
	} else {
		s.recordReceipt("failed")
	}
	return sent, nil
}

// SendNotification emails an arbitrary message with the same transmission
// semantics as SendReceipt but no receipt-specific formatting.
func (s *Sender) SendNotification(ctx context.Context, email, subject, message string) (bool, error) {
	return s.send(ctx, email, subject, message)
}

// send transmits one email. Missing credentials turn the send into a logged
// no-op success. Transport failures are logged and reported as (false, nil).
func (s *Sender) send(ctx context.Context, to, subject, body string) (bool, error) {
	if s.username == "" || s.password == "" {
		s.logger.WarnContext(ctx, "SMTP credentials not set, email will be logged instead")
		s.logger.InfoContext(ctx, "would send email", "to", to, "subject", subject)
		return true, nil
	}

	if _, err := mail.ParseAddress(to); err != nil {
		return false, fmt.Errorf("invalid recipient address %q: %w", to, err)
	}

	msg, err := buildMessage(s.username, to, subject, body)
	if err != nil {
		return false, err
	}

	if err := s.transport.Send(s.username, to, msg); err != nil {
		s.logger.ErrorContext(ctx, "failed to send email", "to", to, "error", err)
		return false, nil
	}

	s.logger.InfoContext(ctx, "email sent", "to", to)
	return true, nil
}

func (s *Sender) recordReceipt(status string) {
	if s.metrics != nil {
		s.metrics.RecordReceiptSent(status)
	}
}

// buildMessage assembles an RFC 5322 HTML message.
func buildMessage(from, to, subject, body string) ([]byte, error) {
	if subject == "" {
		return nil, fmt.Errorf("subject must not be empty")
	}
	msg := "From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Date: " + time.Now().Format(time.RFC1123Z) + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"utf-8\"\r\n" +
		"\r\n" +
		body
	return []byte(msg), nil
}

// receiptBody renders the HTML receipt for a successful charge.
func receiptBody(amount decimal.Decimal, transactionID string) string {
	return fmt.Sprintf(`<html>
<body>
	<h2>Payment receipt</h2>
	<p><strong>Transaction ID:</strong> %s</p>
	<p><strong>Amount:</strong> %s</p>
	<p><strong>Status:</strong> paid</p>
	<p>Thank you for your payment!</p>
	<hr>
	<p><small>This is an automated message, please do not reply.</small></p>
</body>
</html>`, transactionID, amount.StringFixed(2))
}
