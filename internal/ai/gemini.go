package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

type geminiProvider struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func newGemini(ctx context.Context, apiKey, model, baseURL string, logger *slog.Logger) (*geminiProvider, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &geminiProvider{client: client, model: model, logger: logger}, nil
}

func (g *geminiProvider) Name() string { return "gemini:" + g.model }

func (g *geminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	text := resp.Text()
	g.logger.Debug("gemini response",
		"model", g.model,
		"duration", time.Since(start),
		"response_length", len(text))
	return nonEmpty("gemini", text)
}
