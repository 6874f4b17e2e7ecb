package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentEvent represents a processed payment published to NATS.
// Events are published to the subject "payments.processed" in JetStream.
type PaymentEvent struct {
	TransactionID string          `json:"transaction_id"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	UserEmail     string          `json:"user_email"`
	Timestamp     time.Time       `json:"timestamp"`

	// Metadata
	PublishedAt time.Time `json:"published_at"`
}
