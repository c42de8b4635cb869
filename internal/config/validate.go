package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	// OpenAI credentials
	if c.OpenAI.APIKey == "" {
		errs = append(errs, "OPENAI_API_KEY is required")
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		errs = append(errs, fmt.Sprintf("OPENAI_TEMPERATURE must be 0–2, got %g", c.OpenAI.Temperature))
	}

	// DB password
	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1–65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1–65535, got %d", c.Redis.Port))
	}

	// Retrieval
	switch c.Index.Backend {
	case IndexBackendPgvector, IndexBackendChromem:
	default:
		errs = append(errs, fmt.Sprintf("INDEX_BACKEND must be %q or %q, got %q", IndexBackendPgvector, IndexBackendChromem, c.Index.Backend))
	}
	if c.Index.TopK < 1 {
		errs = append(errs, fmt.Sprintf("INDEX_TOP_K must be at least 1, got %d", c.Index.TopK))
	}

	// History
	switch c.History.Backend {
	case HistoryBackendRedis, HistoryBackendMemory:
	default:
		errs = append(errs, fmt.Sprintf("HISTORY_BACKEND must be %q or %q, got %q", HistoryBackendRedis, HistoryBackendMemory, c.History.Backend))
	}
	if c.History.MaxTurns < 0 {
		errs = append(errs, "HISTORY_MAX_TURNS must not be negative")
	}
	if c.History.MaxTurns%2 != 0 {
		errs = append(errs, "HISTORY_MAX_TURNS must be even so user/assistant pairs are kept together")
	}
	if c.History.TTL < 0 {
		errs = append(errs, "HISTORY_TTL must not be negative")
	}

	// Chat
	switch c.Chat.EmptyRetrieval {
	case EmptyRetrievalProceed, EmptyRetrievalFail:
	default:
		errs = append(errs, fmt.Sprintf("CHAT_EMPTY_RETRIEVAL must be %q or %q, got %q", EmptyRetrievalProceed, EmptyRetrievalFail, c.Chat.EmptyRetrieval))
	}
	if c.Chat.RateLimitMax < 0 {
		errs = append(errs, "CHAT_RATE_LIMIT_MAX must not be negative")
	}

	// Warn only
	if c.NATS.URL == "" {
		slog.Warn("NATS_URL is empty, turn events will not be published")
	}
	if c.Storage.AccessKey == "" {
		slog.Warn("STORAGE_ACCESS_KEY is empty, memory blobs are fetched with IAM credentials")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
