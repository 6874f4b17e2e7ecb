// Package ledger orchestrates the payment lifecycle: validation, gateway
// invocation, in-memory transaction bookkeeping, and receipt side effects.
//
// The ledger owns its transaction collection for the process lifetime. There
// is no persistence; a restart loses all history.
package ledger

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/brojonat/centavo/service/events"
	"github.com/brojonat/centavo/service/gateway"
	"github.com/brojonat/centavo/service/metrics"
	"github.com/shopspring/decimal"
)

// maxAmount is the largest accepted charge.
var maxAmount = decimal.NewFromInt(1_000_000)

// Charger submits a charge to the external payment gateway.
type Charger interface {
	Charge(ctx context.Context, amount decimal.Decimal, cardToken string) (*gateway.ChargeResult, error)
}

// ReceiptSender delivers a payment receipt to the payer.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, email string, amount decimal.Decimal, transactionID string) (bool, error)
}

// SubmitRequest carries the caller's payment parameters.
type SubmitRequest struct {
	Amount      decimal.Decimal
	CardToken   string
	UserEmail   string
	Description string
}

// Outcome summarizes a completed submission. Success reflects only the
// gateway-reported status, never the receipt delivery result.
type Outcome struct {
	Success       bool            `json:"success"`
	TransactionID string          `json:"transaction_id"`
	Message       string          `json:"message"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Ledger validates payment requests, invokes the gateway, records outcomes,
// and triggers receipt delivery for successful charges.
type Ledger struct {
	charger   Charger
	receipts  ReceiptSender
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger

	mu           sync.RWMutex
	transactions []*Transaction
}

// New creates a Ledger. The publisher is optional: when nil, no payment
// events are published. If metrics is nil, no metrics are recorded.
func New(charger Charger, receipts ReceiptSender, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Ledger {
	return &Ledger{
		charger:   charger,
		receipts:  receipts,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Submit processes one payment end to end.
//
// Validation failures return a *ValidationError before any gateway call.
// Gateway failures propagate as *gateway.GatewayError with no record
// appended. Exactly one record is appended per gateway round-trip that
// returns; receipt failures are absorbed into that record and never change
// the outcome.
func (l *Ledger) Submit(ctx context.Context, req SubmitRequest) (*Outcome, error) {
	if err := l.validate(req); err != nil {
		if l.metrics != nil {
			l.metrics.RecordValidationFailure(err.Rule)
		}
		l.logger.DebugContext(ctx, "payment rejected by validation", "rule", err.Rule, "error", err.Message)
		return nil, err
	}

	result, err := l.charger.Charge(ctx, req.Amount, req.CardToken)
	if err != nil {
		l.logger.ErrorContext(ctx, "payment failed", "error", err)
		return nil, err
	}

	txn := &Transaction{
		ID:           result.TransactionID,
		Amount:       req.Amount,
		Status:       result.Status,
		UserEmail:    req.UserEmail,
		Description:  req.Description,
		Timestamp:    time.Now().UTC(),
		CardLastFour: lastFour(req.CardToken),
	}

	l.mu.Lock()
	l.transactions = append(l.transactions, txn)
	l.mu.Unlock()

	if result.Status == gateway.StatusSuccess {
		l.deliverReceipt(ctx, txn, req)
	} else {
		l.mu.Lock()
		txn.ReceiptSent = false
		l.mu.Unlock()
	}

	l.publishEvent(ctx, txn)

	if l.metrics != nil {
		l.metrics.RecordPaymentSubmitted(result.Status, req.Amount.InexactFloat64())
	}

	success := result.Status == gateway.StatusSuccess
	if success {
		l.logger.InfoContext(ctx, "payment successful", "transaction_id", result.TransactionID)
	} else {
		l.logger.InfoContext(ctx, "payment declined",
			"transaction_id", result.TransactionID,
			"status", result.Status,
		)
	}

	return &Outcome{
		Success:       success,
		TransactionID: result.TransactionID,
		Message:       result.Message,
		Amount:        req.Amount,
		Timestamp:     txn.Timestamp,
	}, nil
}

// deliverReceipt attempts receipt delivery and records the result on the
// already-appended transaction. Only a *NotificationError marks the receipt
// unsent; the transmission result itself is advisory.
func (l *Ledger) deliverReceipt(ctx context.Context, txn *Transaction, req SubmitRequest) {
	sent, err := l.receipts.SendReceipt(ctx, req.UserEmail, req.Amount, txn.ID)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.logger.WarnContext(ctx, "failed to send receipt", "transaction_id", txn.ID, "error", err)
		txn.ReceiptSent = false
		txn.ReceiptError = err.Error()
		return
	}
	if !sent {
		l.logger.WarnContext(ctx, "receipt transmission reported failure", "transaction_id", txn.ID)
	}
	txn.ReceiptSent = true
}

// publishEvent publishes the processed payment, best effort.
func (l *Ledger) publishEvent(ctx context.Context, txn *Transaction) {
	if l.publisher == nil {
		return
	}

	event := &events.PaymentEvent{
		TransactionID: txn.ID,
		Status:        txn.Status,
		Amount:        txn.Amount,
		UserEmail:     txn.UserEmail,
		Timestamp:     txn.Timestamp,
		PublishedAt:   time.Now().UTC(),
	}

	status := "success"
	if err := l.publisher.PublishPayment(ctx, event); err != nil {
		status = "error"
		l.logger.WarnContext(ctx, "failed to publish payment event",
			"transaction_id", txn.ID,
			"error", err,
		)
	}
	if l.metrics != nil {
		l.metrics.RecordPaymentEventPublished(status)
	}
}

// validate applies the submission rules in order and fails fast on the first
// violation. The email check is deliberately weak (non-empty, contains "@");
// full address validation is out of scope for the record of payment.
func (l *Ledger) validate(req SubmitRequest) *ValidationError {
	if !req.Amount.IsPositive() {
		return validationErr(RuleAmountPositive, "payment amount must be positive")
	}
	if req.Amount.GreaterThan(maxAmount) {
		return validationErr(RuleAmountMaximum, "payment amount cannot exceed 1000000")
	}
	if strings.TrimSpace(req.CardToken) == "" {
		return validationErr(RuleCardTokenEmpty, "card token must not be empty")
	}
	if len(req.CardToken) < 10 {
		return validationErr(RuleCardTokenLength, "invalid card token format")
	}
	if req.UserEmail == "" || !strings.Contains(req.UserEmail, "@") {
		return validationErr(RuleEmailFormat, "invalid email format")
	}
	return nil
}

// GetByID returns a copy of the transaction with the given gateway id.
func (l *Ledger) GetByID(id string) (Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, txn := range l.transactions {
		if txn.ID == id {
			return *txn, true
		}
	}
	return Transaction{}, false
}

// GetByUser returns copies of all transactions for the given email, in
// insertion order.
func (l *Ledger) GetByUser(email string) []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Transaction, 0)
	for _, txn := range l.transactions {
		if txn.UserEmail == email {
			out = append(out, *txn)
		}
	}
	return out
}

// All returns a snapshot of every recorded transaction in insertion order.
func (l *Ledger) All() []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Transaction, len(l.transactions))
	for i, txn := range l.transactions {
		out[i] = *txn
	}
	return out
}

// Stats aggregates the recorded transactions. An empty ledger yields zero
// values for every field rather than a division error.
func (l *Ledger) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := Stats{
		TotalAmount:   decimal.Zero,
		AverageAmount: decimal.Zero,
		SuccessRate:   decimal.Zero,
	}

	if len(l.transactions) == 0 {
		return stats
	}

	for _, txn := range l.transactions {
		stats.Total++
		if txn.Status == gateway.StatusSuccess {
			stats.Successful++
		} else {
			stats.Failed++
		}
		stats.TotalAmount = stats.TotalAmount.Add(txn.Amount)
	}

	count := decimal.NewFromInt(int64(stats.Total))
	stats.AverageAmount = stats.TotalAmount.Div(count).Round(2)
	stats.SuccessRate = decimal.NewFromInt(int64(stats.Successful) * 100).Div(count).Round(2)

	return stats
}

// Clear removes every recorded transaction.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.transactions = nil
	l.logger.Info("transaction history cleared")
}
