package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one recorded payment attempt. Records are append-only: after
// creation only the receipt fields are set, exactly once, and only after the
// record already exists in the ledger.
type Transaction struct {
	ID           string          `json:"id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	UserEmail    string          `json:"user_email"`
	Description  string          `json:"description"`
	Timestamp    time.Time       `json:"timestamp"`
	CardLastFour string          `json:"card_last_four"`
	ReceiptSent  bool            `json:"receipt_sent"`
	ReceiptError string          `json:"receipt_error,omitempty"`
}

// Stats summarizes all recorded transactions. AverageAmount and SuccessRate
// are rounded to two decimal places; an empty ledger yields all zeros.
type Stats struct {
	Total         int             `json:"total"`
	Successful    int             `json:"successful"`
	Failed        int             `json:"failed"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AverageAmount decimal.Decimal `json:"average_amount"`
	SuccessRate   decimal.Decimal `json:"success_rate"`
}

// lastFour extracts the trailing four characters of a card token for the
// record. Tokens shorter than four characters are fully masked.
func lastFour(cardToken string) string {
	if len(cardToken) >= 4 {
		return cardToken[len(cardToken)-4:]
	}
	return "****"
}
