// Package config loads the server's runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LLM backend modes.
const (
	LLMModeOpenAI = "openai"
	LLMModeMock   = "mock"
)

// Config is the full runtime configuration, loaded once at startup.
type Config struct {
	HTTPPort string

	// MasterAPIKey guards the business-provisioning endpoint.
	MasterAPIKey string

	LLM       LLMConfig
	Webhooks  WebhookConfig
	Limits    RateLimitConfig
	Pipeline  PipelineConfig
	Retention RetentionConfig
}

// LLMConfig selects and tunes the language model backend.
type LLMConfig struct {
	// Mode is "openai" or "mock". Mock serves canned responses and needs
	// no credentials; useful for local development and tests.
	Mode    string
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// WebhookConfig holds the per-platform ingress credentials.
type WebhookConfig struct {
	MessengerVerifyToken string
	MessengerAppSecret   string
	MessengerPageToken   string

	WhatsAppVerifyToken string
	WhatsAppAppSecret   string
	WhatsAppAccessToken string
	WhatsAppPhoneNumber string
}

// RateLimitConfig bounds request volume per business.
type RateLimitConfig struct {
	// WritesPerMinute applies to authenticated configuration writes.
	WritesPerMinute int
	// IngressPerMinute applies to message ingress (API and webhooks).
	IngressPerMinute int
	// MessagesPerDay is the daily ingress ceiling.
	MessagesPerDay int
}

// PipelineConfig tunes the message pipeline.
type PipelineConfig struct {
	// LeaseTimeout bounds how long a message waits for its conversation's
	// write lease before 429.
	LeaseTimeout time.Duration

	BreakerThreshold int
	BreakerWindow    time.Duration

	FallbackReply string
}

// RetentionConfig controls the cleanup loop.
type RetentionConfig struct {
	// LLMCallRetentionDays is how many days to keep LLM call traces.
	LLMCallRetentionDays int

	// AuditRetentionDays is how many days to keep audit log rows.
	AuditRetentionDays int

	// CleanupInterval is how often the cleanup loop runs.
	CleanupInterval time.Duration
}

// Load reads the configuration from environment variables, applying
// defaults for everything optional. MASTER_API_KEY is required; so is
// LLM_API_KEY unless LLM_MODE=mock.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		MasterAPIKey: os.Getenv("MASTER_API_KEY"),
		LLM: LLMConfig{
			Mode:    getEnv("LLM_MODE", LLMModeOpenAI),
			APIKey:  os.Getenv("LLM_API_KEY"),
			Model:   getEnv("LLM_MODEL", "gpt-4o-mini"),
			BaseURL: os.Getenv("LLM_BASE_URL"),
			Timeout: getDuration("LLM_TIMEOUT", 30*time.Second),
		},
		Webhooks: WebhookConfig{
			MessengerVerifyToken: os.Getenv("MESSENGER_VERIFY_TOKEN"),
			MessengerAppSecret:   os.Getenv("MESSENGER_APP_SECRET"),
			MessengerPageToken:   os.Getenv("MESSENGER_PAGE_TOKEN"),
			WhatsAppVerifyToken:  os.Getenv("WHATSAPP_VERIFY_TOKEN"),
			WhatsAppAppSecret:    os.Getenv("WHATSAPP_APP_SECRET"),
			WhatsAppAccessToken:  os.Getenv("WHATSAPP_ACCESS_TOKEN"),
			WhatsAppPhoneNumber:  os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		},
		Limits: RateLimitConfig{
			WritesPerMinute:  getInt("RATE_LIMIT_WRITES_PER_MINUTE", 10),
			IngressPerMinute: getInt("RATE_LIMIT_MESSAGES_PER_MINUTE", 30),
			MessagesPerDay:   getInt("RATE_LIMIT_MESSAGES_PER_DAY", 100),
		},
		Pipeline: PipelineConfig{
			LeaseTimeout:     getDuration("CONVERSATION_LEASE_TIMEOUT", 30*time.Second),
			BreakerThreshold: getInt("BREAKER_THRESHOLD", 5),
			BreakerWindow:    getDuration("BREAKER_WINDOW", time.Minute),
			FallbackReply:    os.Getenv("FALLBACK_REPLY"),
		},
		Retention: RetentionConfig{
			LLMCallRetentionDays: getInt("LLM_CALL_RETENTION_DAYS", 90),
			AuditRetentionDays:   getInt("AUDIT_RETENTION_DAYS", 365),
			CleanupInterval:      getDuration("CLEANUP_INTERVAL", 12*time.Hour),
		},
	}

	if cfg.MasterAPIKey == "" {
		return nil, fmt.Errorf("MASTER_API_KEY is required")
	}
	switch cfg.LLM.Mode {
	case LLMModeOpenAI:
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("LLM_API_KEY is required when LLM_MODE=%s", LLMModeOpenAI)
		}
	case LLMModeMock:
	default:
		return nil, fmt.Errorf("invalid LLM_MODE %q", cfg.LLM.Mode)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return v
}
