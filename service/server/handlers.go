package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/brojonat/centavo/service/gateway"
	"github.com/brojonat/centavo/service/ledger"
	"github.com/shopspring/decimal"
)

const (
	serviceName    = "payment-api"
	serviceVersion = "1.0.0"

	maxRequestBodySize = 1 << 20 // 1MB - plenty for a payment request

	defaultPage    = 1
	defaultPerPage = 10
)

// CardValidator checks whether a card token is valid.
// *gateway.Client satisfies this; tests substitute a stub.
type CardValidator interface {
	ValidateCard(ctx context.Context, cardToken string) bool
}

// handleHealth returns a handler for the monitoring health check.
// GET /api/health
func handleHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{
			"status":  "healthy",
			"service": serviceName,
			"version": serviceVersion,
		}, http.StatusOK)
	})
}

// handleCreatePayment returns a handler that submits a payment.
// POST /api/payments
func handleCreatePayment(l *ledger.Ledger, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Limit request body size to prevent memory exhaustion
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req struct {
			Amount      *decimal.Decimal `json:"amount"`
			CardToken   *string          `json:"card_token"`
			UserEmail   *string          `json:"user_email"`
			Description string           `json:"description"`
		}

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Debug("failed to decode payment request", "error", err)
			if strings.Contains(err.Error(), "http: request body too large") {
				writeError(w, "request body too large: maximum size is 1MB", http.StatusBadRequest)
				return
			}
			writeError(w, "invalid request body: must be valid JSON", http.StatusBadRequest)
			return
		}

		// Required-field checks mirror the API contract: each missing field is
		// reported by name before any value validation runs.
		if req.Amount == nil {
			writeError(w, "required field 'amount' is missing", http.StatusBadRequest)
			return
		}
		if req.CardToken == nil {
			writeError(w, "required field 'card_token' is missing", http.StatusBadRequest)
			return
		}
		if req.UserEmail == nil {
			writeError(w, "required field 'user_email' is missing", http.StatusBadRequest)
			return
		}

		outcome, err := l.Submit(r.Context(), ledger.SubmitRequest{
			Amount:      *req.Amount,
			CardToken:   *req.CardToken,
			UserEmail:   *req.UserEmail,
			Description: req.Description,
		})
		if err != nil {
			var valErr *ledger.ValidationError
			if errors.As(err, &valErr) {
				logger.Debug("payment validation failed", "rule", valErr.Rule, "error", valErr.Message)
				writeError(w, valErr.Message, http.StatusBadRequest)
				return
			}

			var gwErr *gateway.GatewayError
			if errors.As(err, &gwErr) {
				logger.Error("payment gateway error", "kind", gwErr.Kind.String(), "error", gwErr)
				writeError(w, gwErr.Message, http.StatusBadGateway)
				return
			}

			logger.Error("unexpected payment error", "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		if !outcome.Success {
			message := outcome.Message
			if message == "" {
				message = "payment was declined"
			}
			writeJSON(w, map[string]any{
				"success": false,
				"error":   message,
			}, http.StatusBadRequest)
			return
		}

		writeJSON(w, map[string]any{
			"success": true,
			"data":    outcome,
			"message": "payment processed successfully",
		}, http.StatusCreated)
	})
}

// handleGetPayment returns a handler that fetches one transaction by id.
// GET /api/payments/{id}
func handleGetPayment(l *ledger.Ledger, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		txn, ok := l.GetByID(id)
		if !ok {
			writeError(w, fmt.Sprintf("transaction with id '%s' not found", id), http.StatusNotFound)
			return
		}

		logger.Debug("transaction retrieved", "transaction_id", id)

		writeJSON(w, map[string]any{
			"success": true,
			"data":    txn,
		}, http.StatusOK)
	})
}

// handleGetStats returns a handler that reports aggregate payment statistics.
// GET /api/payments/stats
func handleGetStats(l *ledger.Ledger, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats := l.Stats()

		logger.Debug("stats retrieved", "total", stats.Total)

		writeJSON(w, map[string]any{
			"success": true,
			"data":    stats,
		}, http.StatusOK)
	})
}

// handleGetHistory returns a handler that lists transactions with pagination.
// GET /api/payments/history?user_email=EMAIL&page=N&per_page=N
func handleGetHistory(l *ledger.Ledger, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		var transactions []ledger.Transaction
		if userEmail := query.Get("user_email"); userEmail != "" {
			transactions = l.GetByUser(userEmail)
		} else {
			transactions = l.All()
		}

		page, err := parsePositiveInt(query.Get("page"), defaultPage)
		if err != nil {
			writeError(w, "invalid page parameter: must be a positive integer", http.StatusBadRequest)
			return
		}

		perPage, err := parsePositiveInt(query.Get("per_page"), defaultPerPage)
		if err != nil {
			writeError(w, "invalid per_page parameter: must be a positive integer", http.StatusBadRequest)
			return
		}

		// Out-of-range pages yield an empty slice, not an error.
		total := len(transactions)
		start := (page - 1) * perPage
		end := start + perPage
		if start > total {
			start = total
		}
		if end > total {
			end = total
		}
		pageSlice := transactions[start:end]

		logger.Debug("history listed", "total", total, "page", page, "per_page", perPage)

		writeJSON(w, map[string]any{
			"success": true,
			"data": map[string]any{
				"transactions": pageSlice,
				"pagination": map[string]int{
					"page":        page,
					"per_page":    perPage,
					"total":       total,
					"total_pages": (total + perPage - 1) / perPage,
				},
			},
		}, http.StatusOK)
	})
}

// handleValidateCard returns a handler that checks a card token against the
// gateway. The token is echoed back masked unless the gateway reports it valid.
// POST /api/cards/validate
func handleValidateCard(validator CardValidator, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req struct {
			CardToken *string `json:"card_token"`
		}

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Debug("failed to decode card validation request", "error", err)
			writeError(w, "invalid request body: must be valid JSON", http.StatusBadRequest)
			return
		}

		if req.CardToken == nil {
			writeError(w, "card token is required", http.StatusBadRequest)
			return
		}

		token := *req.CardToken
		valid := validator.ValidateCard(r.Context(), token)

		masked := "****"
		if valid && len(token) >= 4 {
			masked = token[len(token)-4:]
		}

		logger.Debug("card validated", "valid", valid)

		writeJSON(w, map[string]any{
			"success": true,
			"data": map[string]any{
				"valid":      valid,
				"card_token": masked,
			},
		}, http.StatusOK)
	})
}

// parsePositiveInt parses a query parameter as a positive integer, falling
// back to a default when the parameter is absent.
func parsePositiveInt(value string, defaultValue int) (int, error) {
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if parsed < 1 {
		return 0, fmt.Errorf("value must be at least 1, got %d", parsed)
	}
	return parsed, nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
