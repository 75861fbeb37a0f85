package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/matheuskafuri/dbroast/internal/config"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty response")

// Generator turns a prompt into generated text. Calls are synchronous.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

const (
	defaultGeminiModel = "gemini-2.5-flash"
	defaultClaudeModel = "claude-haiku-4-5-20251001"
	defaultOpenAIModel = "gpt-4o-mini"

	maxOutputTokens = 1024
	requestTimeout  = 60 * time.Second
)

// New creates a Generator for the configured provider.
func New(ctx context.Context, cfg *config.AIConfig, apiKey string, logger *slog.Logger) (Generator, error) {
	if cfg == nil || apiKey == "" {
		return nil, fmt.Errorf("AI not configured: no API key")
	}
	if logger == nil {
		logger = slog.Default()
	}

	model := cfg.Model
	switch cfg.Provider {
	case "", config.ProviderGemini:
		if model == "" {
			model = defaultGeminiModel
		}
		return newGemini(ctx, apiKey, model, cfg.BaseURL, logger)
	case config.ProviderClaude:
		if model == "" {
			model = defaultClaudeModel
		}
		return newClaude(apiKey, model, cfg.BaseURL, &http.Client{Timeout: requestTimeout}, logger), nil
	case config.ProviderOpenAI:
		if model == "" {
			model = defaultOpenAIModel
		}
		return newOpenAI(apiKey, model, cfg.BaseURL, logger), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %q (valid: gemini, claude, openai)", cfg.Provider)
	}
}

func nonEmpty(provider, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", provider, ErrEmptyResponse)
	}
	return text, nil
}
