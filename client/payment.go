// Package client provides a Go HTTP client for the centavo payment service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a recorded payment attempt as reported by the service.
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

// PaymentOutcome summarizes an accepted payment submission.
type PaymentOutcome struct {
	Success       bool            `json:"success"`
	TransactionID string          `json:"transaction_id"`
	Message       string          `json:"message"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Stats is the aggregate payment statistics report.
type Stats struct {
	Total         int             `json:"total"`
	Successful    int             `json:"successful"`
	Failed        int             `json:"failed"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AverageAmount decimal.Decimal `json:"average_amount"`
	SuccessRate   decimal.Decimal `json:"success_rate"`
}

// Pagination describes one page of the payment history.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// CardValidation is the result of a card token check.
type CardValidation struct {
	Valid     bool   `json:"valid"`
	CardToken string `json:"card_token"`
}

// APIError is an error response from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client is the HTTP client for the centavo payment service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new payment service client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// CreatePayment submits a payment. A declined or rejected payment is surfaced
// as an *APIError carrying the server's message.
func (c *Client) CreatePayment(ctx context.Context, amount decimal.Decimal, cardToken, userEmail, description string) (*PaymentOutcome, error) {
	reqBody := map[string]interface{}{
		"amount":      amount,
		"card_token":  cardToken,
		"user_email":  userEmail,
		"description": description,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, c.parseErrorResponse(resp)
	}

	var envelope struct {
		Data PaymentOutcome `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("payment created", "transaction_id", envelope.Data.TransactionID)
	return &envelope.Data, nil
}

// GetPayment retrieves a transaction by its gateway-assigned id.
func (c *Client) GetPayment(ctx context.Context, transactionID string) (*Transaction, error) {
	u := fmt.Sprintf("%s/api/payments/%s", c.baseURL, url.PathEscape(transactionID))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var envelope struct {
		Data Transaction `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &envelope.Data, nil
}

// Stats retrieves the aggregate payment statistics.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/payments/stats", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var envelope struct {
		Data Stats `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &envelope.Data, nil
}

// HistoryOptions filters and paginates the payment history.
type HistoryOptions struct {
	UserEmail string
	Page      int
	PerPage   int
}

// History retrieves one page of the payment history.
func (c *Client) History(ctx context.Context, opts HistoryOptions) ([]Transaction, *Pagination, error) {
	q := url.Values{}
	if opts.UserEmail != "" {
		q.Set("user_email", opts.UserEmail)
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(opts.PerPage))
	}

	u := c.baseURL + "/api/payments/history"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, c.parseErrorResponse(resp)
	}

	var envelope struct {
		Data struct {
			Transactions []Transaction `json:"transactions"`
			Pagination   Pagination    `json:"pagination"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return envelope.Data.Transactions, &envelope.Data.Pagination, nil
}

// ValidateCard checks a card token against the gateway via the service.
func (c *Client) ValidateCard(ctx context.Context, cardToken string) (*CardValidation, error) {
	body, err := json.Marshal(map[string]string{"card_token": cardToken})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/cards/validate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var envelope struct {
		Data CardValidation `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &envelope.Data, nil
}

// Health checks the service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}
	return nil
}

// parseErrorResponse extracts an error message from a non-success response.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
		return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
}
