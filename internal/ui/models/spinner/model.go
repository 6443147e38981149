package spinner

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ignitionstack/modelreg/internal/ui"
)

// Model shows a spinner next to the current step until a result or error
// message arrives.
type Model struct {
	spinner spinner.Model
	step    string
	err     error
	done    bool
	result  interface{}
}

// StepMsg replaces the text shown next to the spinner.
type StepMsg string

type ResultMsg struct {
	Result interface{}
}

type ErrorMsg struct {
	Err error
}

func NewModel(message string) Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ui.InfoColor))
	return Model{
		spinner: s,
		step:    message,
	}
}

func (m Model) HasError() bool {
	return m.err != nil
}

func (m Model) HasResult() bool {
	return m.done && m.err == nil
}

func (m Model) GetResult() interface{} {
	return m.result
}

func (m Model) GetError() error {
	return m.err
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = fmt.Errorf("interrupted")
			m.done = true
			return m, tea.Quit
		}
	case ErrorMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit
	case ResultMsg:
		m.result = msg.Result
		m.done = true
		return m, tea.Quit
	case StepMsg:
		m.step = string(msg)
		return m, nil
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.step)
}
