package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskqa/pkg/log"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderCustom     = "custom"
)

var Providers = []string{
	ProviderGemini,
	ProviderOpenAI,
	ProviderAnthropic,
	ProviderOpenRouter,
	ProviderOllama,
	ProviderCustom,
}

type LLMConfig struct {
	Provider        string `env:"TUSKQA_LLM_PROVIDER" envDefault:"gemini"`
	Model           string `env:"TUSKQA_LLM_MODEL" envDefault:"gemini-2.5-flash"`
	MaxOutputTokens int32  `env:"TUSKQA_LLM_MAX_OUTPUT_TOKENS" envDefault:"512"`

	GeminiAPIKey        string `env:"TUSKQA_GEMINI_API_KEY"`
	OpenAIAPIKey        string `env:"TUSKQA_OPENAI_API_KEY"`
	AnthropicAPIKey     string `env:"TUSKQA_ANTHROPIC_API_KEY"`
	OpenRouterAPIKey    string `env:"TUSKQA_OPENROUTER_API_KEY"`
	OllamaBaseURL       string `env:"TUSKQA_OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaAPIKey        string `env:"TUSKQA_OLLAMA_API_KEY"`
	CustomOpenAIBaseURL string `env:"TUSKQA_CUSTOM_OPENAI_BASE_URL"`
	CustomOpenAIAPIKey  string `env:"TUSKQA_CUSTOM_OPENAI_API_KEY"`

	// Resilience
	Timeout        time.Duration `env:"TUSKQA_LLM_TIMEOUT" envDefault:"15s"`
	MaxRetries     int           `env:"TUSKQA_LLM_MAX_RETRIES" envDefault:"3"`
	InitialBackoff time.Duration `env:"TUSKQA_LLM_INITIAL_BACKOFF" envDefault:"1s"`
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	return c
}

func (c LLMConfig) GetProvider() string {
	return c.Provider
}

func (c LLMConfig) GetModel() string {
	return c.Model
}

// GetAPIKey returns the key of the selected provider.
func (c LLMConfig) GetAPIKey() string {
	switch c.Provider {
	case ProviderGemini:
		return c.GeminiAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderOpenRouter:
		return c.OpenRouterAPIKey
	case ProviderOllama:
		return c.OllamaAPIKey
	case ProviderCustom:
		return c.CustomOpenAIAPIKey
	}
	return ""
}

func (c LLMConfig) GetBaseURL() string {
	switch c.Provider {
	case ProviderOllama:
		return c.OllamaBaseURL
	case ProviderCustom:
		return c.CustomOpenAIBaseURL
	}
	return ""
}

// DefaultModels is the model suggested for each provider when none is chosen.
var DefaultModels = map[string]string{
	ProviderGemini:     "gemini-2.5-flash",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderAnthropic:  "claude-3-5-haiku-latest",
	ProviderOpenRouter: "openai/gpt-4o-mini",
	ProviderOllama:     "llama3.1",
}

// SetAPIKey stores key in the field of the selected provider.
func (c *LLMConfig) SetAPIKey(key string) {
	switch c.Provider {
	case ProviderGemini:
		c.GeminiAPIKey = key
	case ProviderOpenAI:
		c.OpenAIAPIKey = key
	case ProviderAnthropic:
		c.AnthropicAPIKey = key
	case ProviderOpenRouter:
		c.OpenRouterAPIKey = key
	case ProviderOllama:
		c.OllamaAPIKey = key
	case ProviderCustom:
		c.CustomOpenAIAPIKey = key
	}
}

func (c *LLMConfig) SetBaseURL(url string) {
	switch c.Provider {
	case ProviderOllama:
		c.OllamaBaseURL = url
	case ProviderCustom:
		c.CustomOpenAIBaseURL = url
	}
}

// NeedsBaseURL reports whether the provider has no fixed endpoint.
func (c LLMConfig) NeedsBaseURL() bool {
	return c.Provider == ProviderOllama || c.Provider == ProviderCustom
}
