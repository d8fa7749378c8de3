// Package wizard holds the five-state setup flow as a pure transition
// machine. It performs no I/O: intents go in, requested side effects come
// out as instructions, and the driver reports results back through the
// completion methods. That keeps every transition testable without a
// terminal, a filesystem, or Docker.
package wizard

import (
	"fmt"
	"unicode/utf8"

	"github.com/analytics-hq/installer/internal/domain"
)

type Machine struct {
	State domain.WizardState
	Menu  domain.MenuSelection
	Files domain.FileStatus
	Form  domain.FormData

	// Message carries the cause while State is StateError.
	Message string

	// Running flips to false after a Halt instruction is issued.
	Running bool
}

// New starts at the confirmation screen with the menu preselected on the
// first missing artifact, falling back to Proceed when both exist.
func New(files domain.FileStatus) *Machine {
	return &Machine{
		State:   domain.StateConfirmation,
		Menu:    initialMenu(files),
		Files:   files,
		Form:    domain.NewFormData(),
		Running: true,
	}
}

func initialMenu(files domain.FileStatus) domain.MenuSelection {
	switch {
	case !files.EnvExists:
		return domain.MenuGenerateEnv
	case !files.ConfigExists:
		return domain.MenuGenerateConfig
	default:
		return domain.MenuProceed
	}
}

// Apply advances the machine by one intent and returns the side effects the
// driver must perform, in order. Unknown or inapplicable intents are ignored.
func (m *Machine) Apply(in domain.Intent) []domain.Instruction {
	if !m.Running {
		return nil
	}
	if in.Type == domain.IntentHardInterrupt {
		return m.halt()
	}

	switch m.State {
	case domain.StateConfirmation:
		return m.applyConfirmation(in)
	case domain.StateEnvSetup:
		return m.applyEnvSetup(in)
	default:
		// Installing, Success and Error only react to the hard interrupt.
		return nil
	}
}

func (m *Machine) applyConfirmation(in domain.Intent) []domain.Instruction {
	switch in.Type {
	case domain.IntentMoveUp:
		m.Menu = m.menuUp()
	case domain.IntentMoveDown:
		m.Menu = m.menuDown()
	case domain.IntentConfirm:
		return m.confirmMenu()
	case domain.IntentCancel:
		return m.halt()
	}
	return nil
}

// menuUp and menuDown reproduce the availability-aware cycling: Proceed is
// reachable only when both files exist, and each generate entry only while
// its file is missing. Cancel is always reachable.
func (m *Machine) menuUp() domain.MenuSelection {
	switch m.Menu {
	case domain.MenuProceed:
		if !m.Files.ConfigExists {
			return domain.MenuGenerateConfig
		}
		if !m.Files.EnvExists {
			return domain.MenuGenerateEnv
		}
		return domain.MenuCancel
	case domain.MenuGenerateEnv:
		return domain.MenuCancel
	case domain.MenuGenerateConfig:
		if !m.Files.EnvExists {
			return domain.MenuGenerateEnv
		}
		return domain.MenuCancel
	default: // Cancel
		if m.Files.AllPresent() {
			return domain.MenuProceed
		}
		if !m.Files.ConfigExists {
			return domain.MenuGenerateConfig
		}
		return domain.MenuGenerateEnv
	}
}

func (m *Machine) menuDown() domain.MenuSelection {
	switch m.Menu {
	case domain.MenuProceed:
		return domain.MenuCancel
	case domain.MenuGenerateEnv:
		if !m.Files.ConfigExists {
			return domain.MenuGenerateConfig
		}
		return domain.MenuCancel
	case domain.MenuGenerateConfig:
		return domain.MenuCancel
	default: // Cancel
		if !m.Files.EnvExists {
			return domain.MenuGenerateEnv
		}
		if !m.Files.ConfigExists {
			return domain.MenuGenerateConfig
		}
		return domain.MenuProceed
	}
}

func (m *Machine) confirmMenu() []domain.Instruction {
	switch m.Menu {
	case domain.MenuProceed:
		// Recheck here: the selection may predate an external change to
		// the files on disk.
		if !m.Files.AllPresent() {
			return nil
		}
		m.State = domain.StateInstalling
		return []domain.Instruction{{Type: domain.InstructStartInstall}}
	case domain.MenuGenerateEnv:
		m.State = domain.StateEnvSetup
		m.Form = domain.NewFormData()
		return nil
	case domain.MenuGenerateConfig:
		return []domain.Instruction{{Type: domain.InstructWriteConfig}}
	default: // Cancel
		return m.halt()
	}
}

func (m *Machine) applyEnvSetup(in domain.Intent) []domain.Instruction {
	if m.Form.Editing {
		switch in.Type {
		case domain.IntentEditChar:
			*m.Form.Current() += string(in.Char)
		case domain.IntentEditBackspace:
			cur := m.Form.Current()
			if *cur != "" {
				// Pop a whole rune, not a byte, or multibyte input
				// leaves invalid UTF-8 behind.
				_, size := utf8.DecodeLastRuneInString(*cur)
				*cur = (*cur)[:len(*cur)-size]
			}
		case domain.IntentConfirm, domain.IntentCancel, domain.IntentToggleEdit:
			m.Form.Editing = false
		}
		return nil
	}

	switch in.Type {
	case domain.IntentMoveUp:
		if m.Form.Field > 0 {
			m.Form.Field--
		}
	case domain.IntentMoveDown:
		if m.Form.Field < domain.FormFieldCount-1 {
			m.Form.Field++
		}
	case domain.IntentConfirm, domain.IntentToggleEdit:
		m.Form.Editing = true
	case domain.IntentSubmitForm:
		if m.Form.Validate() {
			return []domain.Instruction{{Type: domain.InstructWriteEnv, Form: m.Form}}
		}
	case domain.IntentCancel:
		// Discard the form, keep whatever was selected before.
		m.State = domain.StateConfirmation
	}
	return nil
}

// EnvWritten reports the outcome of an InstructWriteEnv side effect.
func (m *Machine) EnvWritten(err error) {
	if err != nil {
		m.fail(fmt.Sprintf("Failed to generate .env: %v", err))
		return
	}
	m.Files.EnvExists = true
	m.State = domain.StateConfirmation
	if !m.Files.ConfigExists {
		m.Menu = domain.MenuGenerateConfig
	} else {
		m.Menu = domain.MenuProceed
	}
}

// ConfigWritten reports the outcome of an InstructWriteConfig side effect.
func (m *Machine) ConfigWritten(err error) {
	if err != nil {
		m.fail(fmt.Sprintf("Failed to generate config.yaml: %v", err))
		return
	}
	m.Files.ConfigExists = true
	if !m.Files.EnvExists {
		m.Menu = domain.MenuGenerateEnv
	} else {
		m.Menu = domain.MenuProceed
	}
}

// CompleteInstall moves out of Installing once the engine's event stream
// ends. A nil error is the only success signal.
func (m *Machine) CompleteInstall(err error) {
	if err != nil {
		m.fail(fmt.Sprintf("Installation failed: %v", err))
		return
	}
	m.State = domain.StateSuccess
}

func (m *Machine) fail(msg string) {
	m.State = domain.StateError
	m.Message = msg
}

func (m *Machine) halt() []domain.Instruction {
	m.Running = false
	return []domain.Instruction{{Type: domain.InstructHalt}}
}
