package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v9"
	"github.com/sandevgo/tuskqa/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"TUSKQA_RUNTIME_PATH" envDefault:".tuskqa"`
	Owner       string `env:"TUSKQA_OWNER" envDefault:"me"`

	// Transport Flags
	EnableTelegram bool `env:"TUSKQA_ENABLE_TELEGRAM" envDefault:"false"`
	EnableCLI      bool `env:"TUSKQA_ENABLE_CLI" envDefault:"true"`

	// Answer shaping
	EvidenceCap   int  `env:"TUSKQA_EVIDENCE_CAP" envDefault:"12"`
	MinFacts      int  `env:"TUSKQA_MIN_FACTS" envDefault:"3"`
	WordCap       int  `env:"TUSKQA_WORD_CAP" envDefault:"150"`
	WebNoteWords  int  `env:"TUSKQA_WEB_NOTE_WORDS" envDefault:"60"`
	SummarizeLong bool `env:"TUSKQA_SUMMARIZE_LONG" envDefault:"false"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	c.RuntimePath = resolveRuntime(c.RuntimePath)
	return c
}

func (c AppConfig) GetOwner() string {
	return c.Owner
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "tuskqa.db")
}

// GetPromptPath points to an optional template that replaces the built-in prompt.
func (c AppConfig) GetPromptPath() string {
	return filepath.Join(c.RuntimePath, "PROMPT.md")
}

func (c AppConfig) GetEnvPath() string {
	return filepath.Join(c.RuntimePath, ".env")
}

func (c AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}
