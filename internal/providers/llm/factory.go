package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/tuskqa/internal/config"
	"github.com/sandevgo/tuskqa/internal/core"
	"github.com/sandevgo/tuskqa/pkg/log"
)

// NewTransport creates the LLMTransport selected by configuration.
func NewTransport(ctx context.Context, cfg *config.LLMConfig) (core.LLMTransport, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("starting llm transport")

	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGemini(ctx, GeminiConfig{
			APIKey:    cfg.GeminiAPIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxOutputTokens,
		})
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.Model), nil
	case config.ProviderAnthropic:
		return NewAnthropic(cfg.AnthropicAPIKey, cfg.Model), nil
	case config.ProviderOpenRouter:
		return NewOpenRouter(cfg.OpenRouterAPIKey, cfg.Model), nil
	case config.ProviderOllama:
		return NewOllama(cfg.OllamaBaseURL, cfg.OllamaAPIKey, cfg.Model), nil
	case config.ProviderCustom:
		if cfg.CustomOpenAIBaseURL == "" {
			return nil, fmt.Errorf("custom provider requires TUSKQA_CUSTOM_OPENAI_BASE_URL")
		}
		return NewCustomOpenAI(cfg.CustomOpenAIBaseURL, cfg.CustomOpenAIAPIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
