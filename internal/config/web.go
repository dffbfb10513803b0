package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskqa/pkg/log"
)

type WebConfig struct {
	Enabled         bool          `env:"TUSKQA_WEB_ENABLED" envDefault:"true"`
	WikipediaURL    string        `env:"TUSKQA_WIKIPEDIA_URL" envDefault:"https://en.wikipedia.org/api/rest_v1"`
	Timeout         time.Duration `env:"TUSKQA_WEB_TIMEOUT" envDefault:"5s"`
	CacheSize       int           `env:"TUSKQA_WEB_CACHE_SIZE" envDefault:"256"`
	OnLowConfidence bool          `env:"TUSKQA_WEB_ON_LOW_CONFIDENCE" envDefault:"false"`
	// LLMFallback lets the model summarize topics the encyclopedia has no page for.
	LLMFallback bool          `env:"TUSKQA_WEB_LLM_FALLBACK" envDefault:"false"`
	LLMTimeout  time.Duration `env:"TUSKQA_WEB_LLM_TIMEOUT" envDefault:"5s"`
	// NoteBudget bounds one web note lookup across every topic candidate.
	NoteBudget time.Duration `env:"TUSKQA_WEB_NOTE_BUDGET" envDefault:"8s"`
}

func NewWebConfig(ctx context.Context) *WebConfig {
	c := &WebConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Web config")
	}
	return c
}
