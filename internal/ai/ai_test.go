package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matheuskafuri/dbroast/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(context.Background(), &config.AIConfig{Provider: "claude"}, "", quietLogger()); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := New(context.Background(), nil, "key", quietLogger()); err == nil {
		t.Error("expected error without AI config")
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), &config.AIConfig{Provider: "eliza"}, "key", quietLogger())
	if err == nil || !strings.Contains(err.Error(), "unknown AI provider") {
		t.Errorf("expected unknown provider error, got %v", err)
	}
}

func TestNewDefaultsModel(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"claude", "claude:" + defaultClaudeModel},
		{"openai", "openai:" + defaultOpenAIModel},
	}
	for _, tt := range tests {
		g, err := New(context.Background(), &config.AIConfig{Provider: tt.provider}, "key", quietLogger())
		if err != nil {
			t.Fatalf("New(%s): %v", tt.provider, err)
		}
		if g.Name() != tt.want {
			t.Errorf("Name() = %q, want %q", g.Name(), tt.want)
		}
	}
}

func TestClaudeGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "secret" {
			t.Errorf("missing api key header")
		}
		var req claudeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
			return
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "roast this" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"  *Roasted.*  "}]}`))
	}))
	defer srv.Close()

	c := newClaude("secret", "m", srv.URL, srv.Client(), quietLogger())
	got, err := c.Generate(context.Background(), "roast this")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "*Roasted.*" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestClaudeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	c := newClaude("k", "m", srv.URL, srv.Client(), quietLogger())
	_, err := c.Generate(context.Background(), "p")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("expected 429 error, got %v", err)
	}
}

func TestClaudeEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	c := newClaude("k", "m", srv.URL, srv.Client(), quietLogger())
	if _, err := c.Generate(context.Background(), "p"); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"A roast."},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`))
	}))
	defer srv.Close()

	o := newOpenAI("secret", "gpt-test", srv.URL+"/v1", quietLogger())
	got, err := o.Generate(context.Background(), "roast this")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "A roast." {
		t.Errorf("unexpected text %q", got)
	}
}

func TestOpenAINoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	o := newOpenAI("k", "m", srv.URL+"/v1", quietLogger())
	if _, err := o.Generate(context.Background(), "p"); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGeminiGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Gemini roast."}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	g, err := newGemini(context.Background(), "k", "gemini-test", srv.URL, quietLogger())
	if err != nil {
		t.Fatalf("newGemini: %v", err)
	}
	got, err := g.Generate(context.Background(), "roast this")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "Gemini roast." {
		t.Errorf("unexpected text %q", got)
	}
}
