package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/brojonat/centavo/service/metrics"
	"github.com/shopspring/decimal"
)

// DefaultChargeTimeout bounds a single charge round-trip.
const DefaultChargeTimeout = 10 * time.Second

// DefaultValidateTimeout bounds a single card validation round-trip.
const DefaultValidateTimeout = 5 * time.Second

// ChargeResult is the gateway's normalized response to a charge request.
type ChargeResult struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

// StatusSuccess is the gateway's sentinel for an approved charge.
// Any other status is treated as a decline.
const StatusSuccess = "success"

// Client talks to the external payment gateway over HTTPS.
// A single failed attempt propagates immediately as a *GatewayError; the
// client never retries.
type Client struct {
	baseURL         string
	apiKey          string
	httpClient      *http.Client
	chargeTimeout   time.Duration
	validateTimeout time.Duration
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeouts overrides the per-call deadlines for charge and validate requests.
func WithTimeouts(charge, validate time.Duration) Option {
	return func(c *Client) {
		c.chargeTimeout = charge
		c.validateTimeout = validate
	}
}

// NewClient creates a gateway client.
// If metrics is nil, no metrics will be recorded.
func NewClient(baseURL, apiKey string, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:         baseURL,
		apiKey:          apiKey,
		httpClient:      &http.Client{},
		chargeTimeout:   DefaultChargeTimeout,
		validateTimeout: DefaultValidateTimeout,
		metrics:         m,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Charge submits a charge to the gateway and returns its reported outcome.
// A decline is NOT an error: the gateway responds 200 with a non-success
// status and the caller decides what to do with it. Errors are always
// *GatewayError with a categorized kind.
func (c *Client) Charge(ctx context.Context, amount decimal.Decimal, cardToken string) (*ChargeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.chargeTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]any{
		"amount":     amount,
		"card_token": cardToken,
		"api_key":    c.apiKey,
	})
	if err != nil {
		return nil, newError(KindOther, "failed to encode charge request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, newError(KindOther, "failed to build charge request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	if err != nil {
		gwErr := classifyTransportError(err)
		c.logger.ErrorContext(ctx, "gateway charge failed",
			"kind", gwErr.Kind.String(),
			"error", err,
		)
		c.recordRequest("charge", gwErr.Kind.String(), duration)
		return nil, gwErr
	}
	defer resp.Body.Close()

	if gwErr := classifyStatusCode(resp.StatusCode); gwErr != nil {
		c.logger.ErrorContext(ctx, "gateway charge rejected",
			"status_code", resp.StatusCode,
			"kind", gwErr.Kind.String(),
		)
		c.recordRequest("charge", gwErr.Kind.String(), duration)
		return nil, gwErr
	}

	var result ChargeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.recordRequest("charge", KindOther.String(), duration)
		return nil, newError(KindOther, "failed to decode gateway response", err)
	}

	c.logger.DebugContext(ctx, "gateway charge completed",
		"status", result.Status,
		"transaction_id", result.TransactionID,
	)
	c.recordRequest("charge", result.Status, duration)

	return &result, nil
}

// ValidateCard asks the gateway whether a card token is valid.
// Every transport failure is swallowed and reported as false; this call
// intentionally fails safe to invalid and never returns an error.
func (c *Client) ValidateCard(ctx context.Context, cardToken string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.validateTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/cards/%s/validate?api_key=%s",
		c.baseURL, url.PathEscape(cardToken), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	if err != nil {
		c.logger.DebugContext(ctx, "card validation transport failure", "error", err)
		c.recordRequest("validate_card", "error", duration)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.recordRequest("validate_card", "error", duration)
		return false
	}

	var result struct {
		Valid bool `json:"valid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.recordRequest("validate_card", "error", duration)
		return false
	}

	c.recordRequest("validate_card", "success", duration)
	return result.Valid
}

func (c *Client) recordRequest(operation, outcome string, duration float64) {
	if c.metrics != nil {
		c.metrics.RecordGatewayRequest(operation, outcome, duration)
	}
}

// classifyTransportError maps a failed round-trip to a gateway error kind.
func classifyTransportError(err error) *GatewayError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(KindTimeout, "payment gateway connection timed out", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, "payment gateway connection timed out", err)
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return newError(KindUnreachable, "payment gateway is unreachable", err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return newError(KindUnreachable, "payment gateway is unreachable", err)
	}
	return newError(KindOther, "payment gateway request failed", err)
}

// classifyStatusCode maps a non-2xx HTTP status to a gateway error kind.
// Returns nil for successful statuses.
func classifyStatusCode(statusCode int) *GatewayError {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusUnauthorized:
		return newError(KindInvalidCredentials, "payment gateway rejected the API key", nil)
	case statusCode == http.StatusPaymentRequired:
		return newError(KindInsufficientFunds, "insufficient funds", nil)
	case statusCode >= 500:
		return newError(KindRemoteFailure, "payment gateway server error", nil)
	default:
		return newError(KindOther, fmt.Sprintf("unexpected gateway status %d", statusCode), nil)
	}
}
