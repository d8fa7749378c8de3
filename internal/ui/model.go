// Package ui is the bubbletea presentation layer. It translates key events
// into wizard intents, executes the instructions the wizard returns, and
// renders read-only snapshots of the wizard and install state. All install
// state is derived from the engine's event channel, which the model is the
// sole consumer of.
package ui

import (
	"errors"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/analytics-hq/installer/internal/domain"
	"github.com/analytics-hq/installer/internal/wizard"
)

// Materializer writes the two config artifacts. Satisfied by config.Materializer.
type Materializer interface {
	WriteEnvFile(domain.FormData) error
	WriteConfigFile() error
}

// Recorder receives every engine event for the post-run report.
type Recorder interface {
	Record(domain.Event)
}

// StartFunc launches the install engine and returns its event channel.
type StartFunc func() <-chan domain.Event

type EventMsg struct {
	Event domain.Event
	OK    bool
}

type Model struct {
	machine *wizard.Machine
	mat     Materializer
	start   StartFunc
	rec     Recorder
	cancel  func()
	version string

	events <-chan domain.Event

	width  int
	height int

	progress progress.Model
	spin     spinner.Model
	logVP    viewport.Model

	install    domain.InstallProgress
	logs       domain.LogState
	installErr string
	installOK  bool

	// Keep the log viewport pinned to the bottom as new lines arrive.
	followLogs bool
}

func NewModel(machine *wizard.Machine, mat Materializer, start StartFunc, rec Recorder, cancel func(), version string) *Model {
	spin := spinner.New()
	spin.Spinner = spinner.Line

	return &Model{
		machine:    machine,
		mat:        mat,
		start:      start,
		rec:        rec,
		cancel:     cancel,
		version:    version,
		progress:   progress.New(progress.WithSolidFill(progressFillHex), progress.WithoutPercentage()),
		spin:       spin,
		install:    domain.NewInstallProgress(),
		logs:       domain.NewLogState(),
		followLogs: true,
	}
}

func (m *Model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.reflow()
		return m, nil

	case spinner.TickMsg:
		if m.machine.State != domain.StateInstalling {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		if !msg.OK {
			m.finishInstall()
			return m, nil
		}
		m.applyEvent(msg.Event)
		return m, waitForEvent(m.events)

	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, m.exec(m.machine.Apply(domain.Intent{Type: domain.IntentHardInterrupt}))
	}

	switch m.machine.State {
	case domain.StateConfirmation:
		return m, m.exec(m.machine.Apply(confirmationIntent(key)))

	case domain.StateEnvSetup:
		return m, m.exec(m.applyFormKey(msg))

	case domain.StateInstalling:
		m.scrollLogs(key)
		return m, nil

	default:
		// Success and Error keep the final screen up until ctrl+c.
		return m, nil
	}
}

func confirmationIntent(key string) domain.Intent {
	switch key {
	case "up":
		return domain.Intent{Type: domain.IntentMoveUp}
	case "down", "tab":
		return domain.Intent{Type: domain.IntentMoveDown}
	case "enter":
		return domain.Intent{Type: domain.IntentConfirm}
	case "esc", "q":
		return domain.Intent{Type: domain.IntentCancel}
	default:
		return domain.Intent{}
	}
}

// applyFormKey feeds one key event through the wizard. A paste arrives as a
// single KeyMsg carrying many runes, so rune input becomes one EditChar
// intent per rune.
func (m *Model) applyFormKey(msg tea.KeyMsg) []domain.Instruction {
	if m.machine.Form.Editing && msg.Type == tea.KeyRunes && len(msg.Runes) > 0 {
		var out []domain.Instruction
		for _, r := range msg.Runes {
			out = append(out, m.machine.Apply(domain.Intent{Type: domain.IntentEditChar, Char: r})...)
		}
		return out
	}
	return m.machine.Apply(formIntent(msg, m.machine.Form.Editing))
}

func formIntent(msg tea.KeyMsg, editing bool) domain.Intent {
	key := msg.String()

	if editing {
		switch key {
		case "enter", "esc":
			return domain.Intent{Type: domain.IntentToggleEdit}
		case "backspace", "ctrl+h":
			return domain.Intent{Type: domain.IntentEditBackspace}
		}
		if key == " " || msg.Type == tea.KeySpace {
			return domain.Intent{Type: domain.IntentEditChar, Char: ' '}
		}
		return domain.Intent{}
	}

	switch key {
	case "up":
		return domain.Intent{Type: domain.IntentMoveUp}
	case "down", "tab":
		return domain.Intent{Type: domain.IntentMoveDown}
	case "enter":
		return domain.Intent{Type: domain.IntentToggleEdit}
	case "ctrl+s":
		return domain.Intent{Type: domain.IntentSubmitForm}
	case "esc", "q":
		return domain.Intent{Type: domain.IntentCancel}
	default:
		return domain.Intent{}
	}
}

// exec performs the side effects the wizard requested and feeds results back.
func (m *Model) exec(instructions []domain.Instruction) tea.Cmd {
	var cmds []tea.Cmd
	for _, in := range instructions {
		switch in.Type {
		case domain.InstructWriteEnv:
			m.machine.EnvWritten(m.mat.WriteEnvFile(in.Form))
		case domain.InstructWriteConfig:
			m.machine.ConfigWritten(m.mat.WriteConfigFile())
		case domain.InstructStartInstall:
			m.logs.Append("🚀 Starting Analytics installation...")
			m.events = m.start()
			m.reflow()
			cmds = append(cmds, waitForEvent(m.events), m.spin.Tick)
		case domain.InstructHalt:
			if m.cancel != nil {
				m.cancel()
			}
			cmds = append(cmds, tea.Quit)
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m *Model) applyEvent(ev domain.Event) {
	if m.rec != nil {
		m.rec.Record(ev)
	}

	switch ev.Type {
	case domain.EventLog:
		if p, ok := ev.Payload.(domain.LogPayload); ok {
			m.logs.Append(p.Line)
			m.reflow()
		}
	case domain.EventProgress:
		if p, ok := ev.Payload.(domain.ProgressPayload); ok {
			m.install.Pct = p.Pct
			m.install.Service = p.Service
			m.install.Completed = p.Completed
			m.install.Total = p.Total
		}
	case domain.EventError:
		if p, ok := ev.Payload.(domain.ErrorPayload); ok {
			m.installErr = p.Message
		}
	case domain.EventPhaseDone:
		// The last phase outcome decides: a clean build followed by a failed
		// start is still a failed install.
		if p, ok := ev.Payload.(domain.PhaseDonePayload); ok {
			m.installOK = p.OK
		}
	}
}

// finishInstall runs when the engine closes its channel.
func (m *Model) finishInstall() {
	if m.installOK {
		m.install.Pct = 100
		m.machine.CompleteInstall(nil)
		return
	}
	msg := m.installErr
	if msg == "" {
		msg = "installation interrupted"
	}
	m.machine.CompleteInstall(errors.New(msg))
}

func (m *Model) scrollLogs(key string) {
	switch key {
	case "up":
		m.followLogs = false
		m.logVP.LineUp(1)
	case "down":
		m.logVP.LineDown(1)
		if m.logVP.AtBottom() {
			m.followLogs = true
		}
	case "pgup", "pageup":
		m.followLogs = false
		m.logVP.LineUp(m.logVP.Height)
	case "pgdown", "pagedown":
		m.logVP.LineDown(m.logVP.Height)
		if m.logVP.AtBottom() {
			m.followLogs = true
		}
	case "home":
		m.followLogs = false
		m.logVP.GotoTop()
	case "end":
		m.followLogs = true
		m.logVP.GotoBottom()
	}
}

func (m *Model) reflow() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.logVP.Width = max(0, m.width-4)
	m.logVP.Height = max(3, m.height-installChromeHeight)
	m.logVP.SetContent(m.renderLogLines(m.logVP.Width))
	if m.followLogs {
		m.logVP.GotoBottom()
	}
}

func waitForEvent(events <-chan domain.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		return EventMsg{Event: ev, OK: ok}
	}
}
