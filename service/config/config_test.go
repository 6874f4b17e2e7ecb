package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Guard against ambient environment leaking into the test.
	for _, key := range []string{
		"SERVER_ADDR", "LOG_LEVEL", "PAYMENT_API_URL", "PAYMENT_API_KEY",
		"CHARGE_TIMEOUT", "VALIDATE_TIMEOUT", "SMTP_HOST", "SMTP_PORT",
		"SMTP_USER", "SMTP_PASSWORD", "SMTP_USE_TLS", "NATS_URL", "METRICS_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://api.payment-gateway.com", cfg.GatewayBaseURL)
	assert.Equal(t, "test_key_123", cfg.GatewayAPIKey)
	assert.Equal(t, 10*time.Second, cfg.ChargeTimeout)
	assert.Equal(t, 5*time.Second, cfg.ValidateTimeout)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTPHost)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.True(t, cfg.SMTPUseTLS)
	assert.True(t, cfg.MetricsEnabled)
	assert.False(t, cfg.EventsEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("PAYMENT_API_URL", "http://localhost:4000")
	t.Setenv("PAYMENT_API_KEY", "live_key")
	t.Setenv("CHARGE_TIMEOUT", "2s")
	t.Setenv("VALIDATE_TIMEOUT", "1s")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_USE_TLS", "false")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ServerAddr)
	assert.Equal(t, "http://localhost:4000", cfg.GatewayBaseURL)
	assert.Equal(t, "live_key", cfg.GatewayAPIKey)
	assert.Equal(t, 2*time.Second, cfg.ChargeTimeout)
	assert.Equal(t, time.Second, cfg.ValidateTimeout)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.False(t, cfg.SMTPUseTLS)
	assert.False(t, cfg.MetricsEnabled)
	assert.True(t, cfg.EventsEnabled())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad charge timeout", "CHARGE_TIMEOUT", "soon"},
		{"bad validate timeout", "VALIDATE_TIMEOUT", "-"},
		{"bad smtp port", "SMTP_PORT", "not-a-port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			GatewayBaseURL:  "https://api.payment-gateway.com",
			GatewayAPIKey:   "test_key_123",
			ChargeTimeout:   10 * time.Second,
			ValidateTimeout: 5 * time.Second,
			SMTPPort:        587,
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing gateway URL", func(t *testing.T) {
		cfg := valid()
		cfg.GatewayBaseURL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("gateway URL without scheme", func(t *testing.T) {
		cfg := valid()
		cfg.GatewayBaseURL = "api.payment-gateway.com"
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing API key", func(t *testing.T) {
		cfg := valid()
		cfg.GatewayAPIKey = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive timeouts", func(t *testing.T) {
		cfg := valid()
		cfg.ChargeTimeout = 0
		assert.Error(t, cfg.Validate())

		cfg = valid()
		cfg.ValidateTimeout = -time.Second
		assert.Error(t, cfg.Validate())
	})

	t.Run("out-of-range SMTP port", func(t *testing.T) {
		cfg := valid()
		cfg.SMTPPort = 70000
		assert.Error(t, cfg.Validate())
	})
}

func TestParseBool_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "definitely")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MetricsEnabled)
}
