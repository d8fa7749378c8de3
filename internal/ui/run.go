package ui

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"

	"github.com/analytics-hq/installer/internal/wizard"
)

// Run drives the interactive wizard to completion. It returns once the
// operator quits; install failures surface through the wizard's Error
// screen, not through the returned error.
func Run(machine *wizard.Machine, mat Materializer, start StartFunc, rec Recorder, cancel func(), version string) error {
	m := NewModel(machine, mat, start, rec, cancel, version)

	// Bubble Tea depends on a terminal size message for the first render. In
	// wrapped CLIs and some PTYs that message never arrives, so seed a size
	// up front rather than sticking on the loading placeholder.
	if w, h, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 && h > 0 {
		m.width = w
		m.height = h
	} else {
		m.width = 80
		m.height = 24
	}
	m.reflow()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
