package installer

import (
	tea "github.com/charmbracelet/bubbletea"
)

const (
	channelCLI      = "Terminal only"
	channelTelegram = "Terminal and Telegram"
)

// ChannelStep chooses where questions can be asked from.
type ChannelStep struct {
	choices []string
	cursor  int
}

func NewChannelStep() Step {
	return &ChannelStep{choices: []string{channelCLI, channelTelegram}}
}

func (s *ChannelStep) Init() tea.Cmd {
	return nil
}

func (s *ChannelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.choices)-1 {
				s.cursor++
			}
		case "enter":
			state.Transports.EnableTelegram = s.choices[s.cursor] == channelTelegram
			return nil, nil
		}
	}
	return s, nil
}

func (s *ChannelStep) View(state *InstallState) string {
	return renderChoices("Where will you ask questions?", s.choices, s.cursor)
}
