package installer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sandevgo/tuskqa/internal/config"
	"github.com/sandevgo/tuskqa/pkg/env"
)

// transportFlags is the subset of the app config the wizard decides.
type transportFlags struct {
	EnableTelegram bool `env:"TUSKQA_ENABLE_TELEGRAM"`
}

type InstallState struct {
	RuntimePath string
	LLM         config.LLMConfig
	Telegram    config.TelegramConfig
	Transports  transportFlags
}

func NewInstallState(runtimePath string) *InstallState {
	return &InstallState{RuntimePath: runtimePath}
}

func (s *InstallState) EnvPath() string {
	return filepath.Join(s.RuntimePath, ".env")
}

// Render produces the .env document for the collected answers.
func (s *InstallState) Render() (string, error) {
	if !s.Transports.EnableTelegram {
		s.Telegram = config.TelegramConfig{}
	}
	return env.MarshalAll(&s.LLM, &s.Transports, &s.Telegram)
}

// Save writes the .env file and refuses to overwrite an existing one.
func (s *InstallState) Save() error {
	if err := os.MkdirAll(s.RuntimePath, 0755); err != nil {
		return fmt.Errorf("failed to create runtime directory: %w", err)
	}

	if _, err := os.Stat(s.EnvPath()); err == nil {
		return fmt.Errorf(".env file already exists at %s", s.EnvPath())
	}

	content, err := s.Render()
	if err != nil {
		return err
	}
	return os.WriteFile(s.EnvPath(), []byte(content), 0600)
}
