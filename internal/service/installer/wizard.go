package installer

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	itemStyle  = lipgloss.NewStyle().PaddingLeft(2)
	selStyle   = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("5"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

var ErrInterrupted = errors.New("setup interrupted")

// Step is one screen of the setup. Update returns nil once the step's answer
// is recorded in the state.
type Step interface {
	Init() tea.Cmd
	Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd)
	View(state *InstallState) string
}

// setupSteps asks for the model first, then the chat channels, then writes .env.
// Steps that do not apply to the chosen provider or channel skip themselves.
func setupSteps() []Step {
	return []Step{
		NewProviderStep(),
		NewAPIKeyStep(),
		NewBaseURLStep(),
		NewModelStep(),
		NewChannelStep(),
		NewTelegramTokenStep(),
		NewTelegramOwnerStep(),
		NewSaveEnvStep(),
	}
}

type nextMsg struct{}

type model struct {
	steps       []Step
	currentStep int
	state       *InstallState
	cancelled   bool
	width       int
	height      int
}

func initialModel(runtimePath string) model {
	return model{
		steps: setupSteps(),
		state: NewInstallState(runtimePath),
	}
}

func (m model) done() bool { return m.currentStep >= len(m.steps) }

func (m model) Init() tea.Cmd {
	if m.done() {
		return nil
	}
	return m.steps[0].Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.cancelled || m.done() {
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			return m, tea.Quit
		}
	}

	step, cmd := m.steps[m.currentStep].Update(msg, m.state, m.width, m.height)
	if step != nil {
		m.steps[m.currentStep] = step
		return m, cmd
	}
	return m.advance()
}

// advance moves past a finished step and starts the next one.
func (m model) advance() (tea.Model, tea.Cmd) {
	m.currentStep++
	if m.done() {
		return m, tea.Quit
	}
	return m, m.steps[m.currentStep].Init()
}

func (m model) View() string {
	switch {
	case m.cancelled:
		return "Setup cancelled, nothing was written.\n"
	case m.done():
		return fmt.Sprintf("Saved %s\n", m.state.EnvPath())
	}

	header := titleStyle.Render("TuskQA setup") + " " +
		mutedStyle.Render(fmt.Sprintf("%d/%d · %s", m.currentStep+1, len(m.steps), m.state.RuntimePath))
	return header + "\n\n" + m.steps[m.currentStep].View(m.state)
}

// RunWizard asks for the provider, model and channels, and writes them to
// runtimePath/.env. It returns ErrInterrupted when the user quits with ctrl+c.
func RunWizard(runtimePath string) (*InstallState, error) {
	final, err := tea.NewProgram(initialModel(runtimePath), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, fmt.Errorf("run setup: %w", err)
	}
	if m := final.(model); !m.cancelled {
		return m.state, nil
	}
	return nil, ErrInterrupted
}
