package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Payment gateway configuration
	GatewayBaseURL  string
	GatewayAPIKey   string
	ChargeTimeout   time.Duration
	ValidateTimeout time.Duration

	// SMTP configuration for receipt delivery.
	// Missing credentials put the mailer into logged no-op mode rather than
	// failing startup, so none of these are required.
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPUseTLS   bool

	// NATS configuration. Empty URL disables payment event publishing.
	NATSURL string

	// Metrics configuration
	MetricsEnabled bool
}

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Payment gateway configuration. The gateway ships with a test key so the
	// service can run against a sandbox without any environment setup.
	cfg.GatewayBaseURL = getEnvOrDefault("PAYMENT_API_URL", "https://api.payment-gateway.com")
	cfg.GatewayAPIKey = getEnvOrDefault("PAYMENT_API_KEY", "test_key_123")

	chargeTimeout, err := parseDuration("CHARGE_TIMEOUT", "10s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ChargeTimeout = chargeTimeout
	}

	validateTimeout, err := parseDuration("VALIDATE_TIMEOUT", "5s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ValidateTimeout = validateTimeout
	}

	// SMTP configuration
	cfg.SMTPHost = getEnvOrDefault("SMTP_HOST", "smtp.gmail.com")
	smtpPort, err := parseInt("SMTP_PORT", 587)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.SMTPPort = smtpPort
	}
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPUseTLS = parseBool("SMTP_USE_TLS", true)

	// NATS configuration (optional)
	cfg.NATSURL = os.Getenv("NATS_URL")

	// Metrics configuration
	cfg.MetricsEnabled = parseBool("METRICS_ENABLED", true)

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.GatewayBaseURL == "" {
		errs = append(errs, fmt.Errorf("GatewayBaseURL is required"))
	} else if !strings.HasPrefix(c.GatewayBaseURL, "http://") && !strings.HasPrefix(c.GatewayBaseURL, "https://") {
		errs = append(errs, fmt.Errorf("GatewayBaseURL must be an http(s) URL, got %q", c.GatewayBaseURL))
	}

	if c.GatewayAPIKey == "" {
		errs = append(errs, fmt.Errorf("GatewayAPIKey is required"))
	}

	if c.ChargeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ChargeTimeout must be positive"))
	}

	if c.ValidateTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ValidateTimeout must be positive"))
	}

	if c.SMTPPort < 0 || c.SMTPPort > 65535 {
		errs = append(errs, fmt.Errorf("SMTPPort must be a valid port number, got %d", c.SMTPPort))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// EventsEnabled reports whether payment event publishing is configured.
func (c *Config) EventsEnabled() bool {
	return c.NATSURL != ""
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}

// parseBool parses a boolean from an environment variable or uses a default.
// Any value strconv.ParseBool rejects falls back to the default.
func parseBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := strconv.ParseBool(strings.ToLower(value))
	if err != nil {
		return defaultValue
	}
	return result
}
