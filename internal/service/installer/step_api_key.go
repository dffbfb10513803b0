package installer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/tuskqa/internal/config"
)

var keyPlaceholders = map[string]string{
	config.ProviderGemini:     "AIza...",
	config.ProviderOpenAI:     "sk-...",
	config.ProviderAnthropic:  "sk-ant-...",
	config.ProviderOpenRouter: "sk-or-v1-...",
}

// APIKeyStep collects the key of the selected provider. Local providers may skip it.
type APIKeyStep struct {
	input    textinput.Model
	ready    bool
	optional bool
}

func NewAPIKeyStep() Step {
	return &APIKeyStep{}
}

func (s *APIKeyStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *APIKeyStep) prepare(state *InstallState) {
	s.optional = state.LLM.NeedsBaseURL()
	s.input = newInput(keyPlaceholders[state.LLM.Provider], !s.optional)
	if s.optional {
		s.input.Placeholder = "Optional - press Enter to skip"
	}
	s.ready = true
}

func (s *APIKeyStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.ready {
		s.prepare(state)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		key := strings.TrimSpace(s.input.Value())
		if key == "" && !s.optional {
			return s, nil
		}
		state.LLM.SetAPIKey(key)
		return nil, nil
	}
	return s, cmd
}

func (s *APIKeyStep) View(state *InstallState) string {
	if !s.ready {
		s.prepare(state)
	}
	hint := ""
	if s.optional {
		hint = " (optional)"
	}
	return fmt.Sprintf("Enter your %s API key%s:\n\n%s\n\n(press enter to confirm)\n",
		state.LLM.Provider, hint, s.input.View())
}

// BaseURLStep asks for the endpoint of self-hosted providers and is skipped otherwise.
type BaseURLStep struct {
	input textinput.Model
	ready bool
}

func NewBaseURLStep() Step {
	return &BaseURLStep{}
}

func (s *BaseURLStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *BaseURLStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !state.LLM.NeedsBaseURL() {
		return nil, nil
	}
	if !s.ready {
		placeholder := "https://llm.example.com/v1"
		if state.LLM.Provider == config.ProviderOllama {
			placeholder = "http://localhost:11434"
		}
		s.input = newInput(placeholder, false)
		s.ready = true
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		url := strings.TrimSpace(s.input.Value())
		if url == "" {
			url = s.input.Placeholder
		}
		if state.LLM.Provider == config.ProviderCustom && url == "https://llm.example.com/v1" {
			return s, nil
		}
		state.LLM.SetBaseURL(url)
		return nil, nil
	}
	return s, cmd
}

func (s *BaseURLStep) View(state *InstallState) string {
	if !s.ready {
		return "Loading...\n"
	}
	return "Enter the base URL of your " + state.LLM.Provider + " server:\n\n" +
		s.input.View() + "\n\n(press enter to confirm)\n"
}

func newInput(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 40
	ti.Placeholder = placeholder
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}
