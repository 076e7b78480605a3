package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abhisek/quizforge/internal/store"
)

// New builds the configured provider. Calls go through retry first and are
// recorded per attempt: caller -> retry -> recording -> provider.
func New(ctx context.Context, cfg Config, calls store.LLMCallWriter, log *slog.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", cfg.Provider, err)
	}

	if calls != nil {
		base = WithRecording(base, cfg.Provider, calls, log)
	}
	return WithRetry(base, cfg.Retry), nil
}
