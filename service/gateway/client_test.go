package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCharge_Success(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ChargeResult{
			Status:        StatusSuccess,
			TransactionID: "T123",
			Message:       "approved",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test_key_123", nil, testLogger())

	result, err := client.Charge(context.Background(), decimal.RequireFromString("99.95"), "tok_1234567890")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "T123", result.TransactionID)
	assert.Equal(t, "approved", result.Message)

	// Credentials and amount travel in the request body.
	assert.Equal(t, "test_key_123", gotBody["api_key"])
	assert.Equal(t, "tok_1234567890", gotBody["card_token"])
	assert.Equal(t, "99.95", gotBody["amount"])
}

func TestCharge_DeclineIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChargeResult{
			Status:        "declined",
			TransactionID: "T456",
			Message:       "card declined",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test_key_123", nil, testLogger())

	result, err := client.Charge(context.Background(), decimal.NewFromInt(10), "tok_1234567890")
	require.NoError(t, err)
	assert.Equal(t, "declined", result.Status)
}

func TestCharge_StatusCodeMapping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantKind   ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, KindInvalidCredentials},
		{"payment required", http.StatusPaymentRequired, KindInsufficientFunds},
		{"internal server error", http.StatusInternalServerError, KindRemoteFailure},
		{"bad gateway", http.StatusBadGateway, KindRemoteFailure},
		{"service unavailable", http.StatusServiceUnavailable, KindRemoteFailure},
		{"teapot", http.StatusTeapot, KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client := NewClient(server.URL, "test_key_123", nil, testLogger())

			_, err := client.Charge(context.Background(), decimal.NewFromInt(10), "tok_1234567890")
			require.Error(t, err)

			var gwErr *GatewayError
			require.ErrorAs(t, err, &gwErr)
			assert.Equal(t, tt.wantKind, gwErr.Kind)
		})
	}
}

func TestCharge_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test_key_123", nil, testLogger(),
		WithTimeouts(50*time.Millisecond, 50*time.Millisecond))

	_, err := client.Charge(context.Background(), decimal.NewFromInt(10), "tok_1234567890")
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, KindTimeout, gwErr.Kind)
}

func TestCharge_Unreachable(t *testing.T) {
	// A closed server yields connection refused on its old address.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := NewClient(baseURL, "test_key_123", nil, testLogger())

	_, err := client.Charge(context.Background(), decimal.NewFromInt(10), "tok_1234567890")
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, KindUnreachable, gwErr.Kind)
}

func TestCharge_MalformedResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test_key_123", nil, testLogger())

	_, err := client.Charge(context.Background(), decimal.NewFromInt(10), "tok_1234567890")
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, KindOther, gwErr.Kind)
}

func TestValidateCard(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    bool
	}{
		{
			name: "valid card",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/cards/tok_1234567890/validate", r.URL.Path)
				assert.Equal(t, "test_key_123", r.URL.Query().Get("api_key"))
				json.NewEncoder(w).Encode(map[string]bool{"valid": true})
			},
			want: true,
		},
		{
			name: "invalid card",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]bool{"valid": false})
			},
			want: false,
		},
		{
			name: "server error fails safe to invalid",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: false,
		},
		{
			name: "garbage body fails safe to invalid",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(server.URL, "test_key_123", nil, testLogger())
			assert.Equal(t, tt.want, client.ValidateCard(context.Background(), "tok_1234567890"))
		})
	}
}

func TestValidateCard_UnreachableReturnsFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := NewClient(baseURL, "test_key_123", nil, testLogger())
	assert.False(t, client.ValidateCard(context.Background(), "tok_1234567890"))
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "timeout", KindTimeout.String())
	assert.Equal(t, "unreachable", KindUnreachable.String())
	assert.Equal(t, "invalid_credentials", KindInvalidCredentials.String())
	assert.Equal(t, "insufficient_funds", KindInsufficientFunds.String())
	assert.Equal(t, "remote_failure", KindRemoteFailure.String())
	assert.Equal(t, "other", KindOther.String())
}
