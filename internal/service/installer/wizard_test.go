package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tuskqa/internal/config"
)

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

func typeText(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drive feeds msgs to the wizard model and returns it.
func drive(t *testing.T, m model, msgs ...tea.Msg) model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

// tick stands in for the blink/next messages a step's Init would emit.
type tick struct{}

func TestWizard_CLIOnlyGemini(t *testing.T) {
	dir := t.TempDir()
	m := drive(t, initialModel(dir),
		enter,                          // provider: gemini
		typeText("AIza-test"), enter,   // api key
		tick{},                         // base url skipped
		enter,                          // model: default
		enter,                          // channel: terminal only
		tick{}, tick{},                 // telegram skipped
		tick{},                         // save
	)
	assert.Equal(t, len(m.steps), m.currentStep)

	env, err := godotenv.Read(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "gemini", env["TUSKQA_LLM_PROVIDER"])
	assert.Equal(t, "gemini-2.5-flash", env["TUSKQA_LLM_MODEL"])
	assert.Equal(t, "AIza-test", env["TUSKQA_GEMINI_API_KEY"])
	assert.NotContains(t, env, "TUSKQA_ENABLE_TELEGRAM")
	assert.NotContains(t, env, "TUSKQA_TELEGRAM_TOKEN")
}

func TestWizard_OllamaWithTelegram(t *testing.T) {
	dir := t.TempDir()
	m := drive(t, initialModel(dir),
		down, down, down, down, enter, // ollama
		enter,                         // api key skipped
		enter,                         // base url: default
		typeText("qwen2.5"), enter,    // model
		down, enter,                   // terminal and telegram
		typeText("123:abc"), enter,
		typeText("nope"), enter, // rejected
	)
	require.Equal(t, 6, m.currentStep)

	owner := m.steps[m.currentStep].(*TelegramOwnerStep)
	owner.input.SetValue("42")
	m = drive(t, m, enter, tick{})
	assert.Equal(t, len(m.steps), m.currentStep)

	env, err := godotenv.Read(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, config.ProviderOllama, env["TUSKQA_LLM_PROVIDER"])
	assert.Equal(t, "http://localhost:11434", env["TUSKQA_OLLAMA_BASE_URL"])
	assert.Equal(t, "qwen2.5", env["TUSKQA_LLM_MODEL"])
	assert.Equal(t, "true", env["TUSKQA_ENABLE_TELEGRAM"])
	assert.Equal(t, "123:abc", env["TUSKQA_TELEGRAM_TOKEN"])
	assert.Equal(t, "42", env["TUSKQA_TELEGRAM_OWNER_ID"])
}

func TestInstallState_SaveRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("X=1\n"), 0600))

	s := NewInstallState(dir)
	s.LLM.Provider = config.ProviderOpenAI
	assert.ErrorContains(t, s.Save(), "already exists")
}

func TestInstallState_RenderDropsTelegramWhenDisabled(t *testing.T) {
	s := NewInstallState(t.TempDir())
	s.LLM.Provider = config.ProviderOpenAI
	s.LLM.SetAPIKey("sk-1")
	s.Telegram.Token = "stale"

	out, err := s.Render()
	require.NoError(t, err)
	assert.Equal(t, "TUSKQA_LLM_PROVIDER=openai\nTUSKQA_OPENAI_API_KEY=sk-1\n", out)
}

func TestWizard_CtrlCCancels(t *testing.T) {
	dir := t.TempDir()
	m := drive(t, initialModel(dir), enter, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, m.cancelled)
	assert.Equal(t, 1, m.currentStep)
	assert.Contains(t, m.View(), "nothing was written")
	assert.NoFileExists(t, filepath.Join(dir, ".env"))
}

func TestWizard_HeaderShowsProgress(t *testing.T) {
	dir := t.TempDir()
	m := initialModel(dir)
	assert.Contains(t, m.View(), fmt.Sprintf("1/%d", len(m.steps)))
	assert.Contains(t, m.View(), dir)
}
