package output

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type spinnerDoneMsg struct{}

type spinnerModel struct {
	spinner spinner.Model
	label   string
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerDoneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.label + "\n"
}

// Spin runs fn while showing a spinner with label on error output. Without
// a terminal fn runs silently.
func (r *Renderer) Spin(label string, fn func() error) error {
	if !r.isTTY {
		return fn()
	}

	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = r.styles.Muted
	p := tea.NewProgram(spinnerModel{spinner: s, label: label},
		tea.WithOutput(r.errOut),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)

	errc := make(chan error, 1)
	go func() {
		errc <- fn()
		p.Send(spinnerDoneMsg{})
	}()
	// A failed spinner only loses the animation.
	_, _ = p.Run()
	return <-errc
}
