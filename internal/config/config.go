package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the interpreter gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Realtime interpretation provider configuration
	RealtimeAPIKey   string `envconfig:"REALTIME_API_KEY" required:"true"`
	RealtimeModel    string `envconfig:"REALTIME_MODEL" default:"gpt-4o-realtime-preview"`
	RealtimeTokenURL string `envconfig:"REALTIME_TOKEN_URL" default:"https://api.openai.com/v1/realtime/sessions"`
	RealtimeWSURL    string `envconfig:"REALTIME_WS_URL" default:"wss://api.openai.com/v1/realtime"`

	// Default language pair for a session. The clinician speaks the primary
	// language; translations are produced in the secondary language.
	PrimaryLanguage   string `envconfig:"PRIMARY_LANGUAGE" default:"en"`
	SecondaryLanguage string `envconfig:"SECONDARY_LANGUAGE" default:"es"`

	// Webhook delivery configuration
	WebhookSecret      string `envconfig:"WEBHOOK_SECRET" required:"true"`
	WebhookURL         string `envconfig:"WEBHOOK_URL" default:""`        // Default target; per-request URLs override
	WebhookTimeout     int    `envconfig:"WEBHOOK_TIMEOUT" default:"30"`  // Per-attempt timeout in seconds
	WebhookMaxAttempts int    `envconfig:"WEBHOOK_MAX_ATTEMPTS" default:"3"`
	WebhookRetryBase   int    `envconfig:"WEBHOOK_RETRY_BASE" default:"2000"` // Base retry delay in milliseconds

	// Assist service (LLM-backed action detection) configuration
	AssistURL     string `envconfig:"ASSIST_URL" default:""` // Empty disables the assist client
	AssistAPIKey  string `envconfig:"ASSIST_API_KEY" default:""`
	AssistTimeout int    `envconfig:"ASSIST_TIMEOUT" default:"30"` // seconds

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Validate required fields
	if cfg.RealtimeAPIKey == "" {
		return nil, fmt.Errorf("REALTIME_API_KEY is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("WEBHOOK_SECRET is required")
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.RealtimeAPIKey == "" {
		return nil, fmt.Errorf("REALTIME_API_KEY is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("WEBHOOK_SECRET is required")
	}

	return &cfg, nil
}
