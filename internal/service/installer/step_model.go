package installer

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/tuskqa/internal/config"
)

// ModelStep asks for the model id, suggesting the provider's default.
type ModelStep struct {
	input textinput.Model
	ready bool
}

func NewModelStep() Step {
	return &ModelStep{}
}

func (s *ModelStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.ready {
		s.input = newInput(config.DefaultModels[state.LLM.Provider], false)
		s.ready = true
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		model := strings.TrimSpace(s.input.Value())
		if model == "" {
			model = s.input.Placeholder
		}
		if model == "" {
			return s, nil
		}
		state.LLM.Model = model
		return nil, nil
	}
	return s, cmd
}

func (s *ModelStep) View(state *InstallState) string {
	if !s.ready {
		return "Loading...\n"
	}
	return "Enter the model id (Enter keeps the suggestion):\n\n" +
		s.input.View() + "\n\n(press enter to confirm)\n"
}
