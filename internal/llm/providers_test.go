package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const questionsJSON = `{"questions":[{"question":"Which keyword declares a block-scoped variable?","options":["var","let","func","def"],"correct_answer":1,"explanation":"let is block scoped."}]}`

func serve(t *testing.T, status int, body any) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func anthropicReply(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 120, "output_tokens": 80},
	}
}

func openAIReply(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func questionRequest() Request {
	req := UserPrompt("You write quiz questions.", "Write one JavaScript question.")
	req.Schema = testQuestionSchema()
	req.MaxTokens = 1024
	return req
}

func TestAnthropicProvider_Generate(t *testing.T) {
	url := serve(t, http.StatusOK, anthropicReply(questionsJSON, "end_turn"))
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: "claude-haiku", BaseURL: url})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	resp, err := p.Generate(context.Background(), questionRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.TotalTokens != 200 {
		t.Errorf("total tokens = %d, want 200", resp.Usage.TotalTokens)
	}
	if resp.StopReason != "end" {
		t.Errorf("stop reason = %q, want end", resp.StopReason)
	}
	if p.ModelID() != "claude-haiku-4-5-20251001" {
		t.Errorf("model = %q", p.ModelID())
	}
}

func TestAnthropicProvider_SchemaMismatch(t *testing.T) {
	url := serve(t, http.StatusOK, anthropicReply(`{"questions":"nope"}`, "end_turn"))
	p, _ := NewAnthropicProvider(AnthropicConfig{APIKey: "k", BaseURL: url})

	_, err := p.Generate(context.Background(), questionRequest())
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
	}
}

func TestAnthropicProvider_Truncated(t *testing.T) {
	url := serve(t, http.StatusOK, anthropicReply(`{"questions":[`, "max_tokens"))
	p, _ := NewAnthropicProvider(AnthropicConfig{APIKey: "k", BaseURL: url})

	_, err := p.Generate(context.Background(), questionRequest())
	var mt *ErrMaxTokensExceeded
	if !errors.As(err, &mt) {
		t.Fatalf("expected ErrMaxTokensExceeded, got %T (%v)", err, err)
	}
}

func TestAnthropicProvider_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusTooManyRequests, func(err error) bool { var e *ErrRateLimit; return errors.As(err, &e) }},
		{http.StatusInternalServerError, func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) }},
	}
	for _, tt := range tests {
		url := serve(t, tt.status, map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "api_error", "message": "nope"},
		})
		p, _ := NewAnthropicProvider(AnthropicConfig{APIKey: "k", BaseURL: url})
		_, err := p.Generate(context.Background(), UserPrompt("", "hi"))
		if !tt.check(err) {
			t.Errorf("status %d: unexpected error type %T (%v)", tt.status, err, err)
		}
	}
}

func TestOpenAIProvider_Generate(t *testing.T) {
	url := serve(t, http.StatusOK, openAIReply(questionsJSON, "stop"))
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: url + "/v1"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	resp, err := p.Generate(context.Background(), questionRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 {
		t.Errorf("usage = %+v", resp.Usage)
	}
	if resp.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", resp.Model)
	}
}

func TestOpenAIProvider_RateLimit(t *testing.T) {
	url := serve(t, http.StatusTooManyRequests, map[string]any{
		"error": map[string]any{"message": "slow down", "type": "rate_limit_error"},
	})
	p, _ := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: url + "/v1"})

	_, err := p.Generate(context.Background(), UserPrompt("", "hi"))
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got %T (%v)", err, err)
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	reply := openAIReply("", "stop")
	reply["choices"] = []any{}
	url := serve(t, http.StatusOK, reply)
	p, _ := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: url + "/v1"})

	_, err := p.Generate(context.Background(), UserPrompt("", "hi"))
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
	}
}

func TestOpenRouterProvider(t *testing.T) {
	if _, err := NewOpenRouterProvider(OpenRouterConfig{Model: "x"}); err == nil {
		t.Fatal("expected error for missing API key")
	}

	url := serve(t, http.StatusOK, openAIReply(questionsJSON, "stop"))
	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "k", Model: "anthropic/claude-3-haiku", BaseURL: url})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if p.ModelID() != "anthropic/claude-3-haiku" {
		t.Errorf("model = %q, routes must pass through unchanged", p.ModelID())
	}
	if _, err := p.Generate(context.Background(), questionRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestModelAliases(t *testing.T) {
	tests := []struct {
		name    string
		aliases map[string]string
		want    string
	}{
		{"claude-sonnet", anthropicAliases, "claude-sonnet-4-20250514"},
		{"claude-haiku", anthropicAliases, "claude-haiku-4-5-20251001"},
		{"gemini-flash", geminiAliases, "gemini-2.0-flash"},
		{"gemini-2.5-flash", geminiAliases, "gemini-2.5-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.name, tt.aliases); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestConfig_Resolved(t *testing.T) {
	cfg := DefaultConfig()
	if _, ok := cfg.Resolved(); ok {
		t.Fatal("expected no provider without keys")
	}

	cfg.Anthropic.APIKey = "a"
	cfg.OpenAI.APIKey = "o"
	got, ok := cfg.Resolved()
	if !ok || got.Provider != "openai" {
		t.Fatalf("Resolved() = %q, %v; want openai", got.Provider, ok)
	}

	cfg.Provider = "gemini"
	if _, ok := cfg.Resolved(); ok {
		t.Fatal("explicit provider without key must not resolve")
	}
	if err := (Config{Provider: "mock"}).Validate(); err != nil {
		t.Fatalf("mock needs no key: %v", err)
	}
	if err := (Config{Provider: "bard"}).Validate(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
