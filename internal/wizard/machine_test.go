package wizard

import (
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/analytics-hq/installer/internal/domain"
)

func typeString(m *Machine, s string) {
	for _, r := range s {
		m.Apply(domain.Intent{Type: domain.IntentEditChar, Char: r})
	}
}

func TestInitialMenuSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files domain.FileStatus
		want  domain.MenuSelection
	}{
		{"no files", domain.FileStatus{}, domain.MenuGenerateEnv},
		{"env only", domain.FileStatus{EnvExists: true}, domain.MenuGenerateConfig},
		{"config only", domain.FileStatus{ConfigExists: true}, domain.MenuGenerateEnv},
		{"both", domain.FileStatus{EnvExists: true, ConfigExists: true}, domain.MenuProceed},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := New(tt.files)
			if m.State != domain.StateConfirmation {
				t.Fatalf("initial state = %v", m.State)
			}
			if m.Menu != tt.want {
				t.Fatalf("initial menu = %v, want %v", m.Menu, tt.want)
			}
		})
	}
}

func available(files domain.FileStatus, sel domain.MenuSelection) bool {
	switch sel {
	case domain.MenuProceed:
		return files.AllPresent()
	case domain.MenuGenerateEnv:
		return !files.EnvExists
	case domain.MenuGenerateConfig:
		return !files.ConfigExists
	default:
		return true
	}
}

func TestNavigationNeverSelectsUnavailableOption(t *testing.T) {
	t.Parallel()

	statuses := []domain.FileStatus{
		{},
		{EnvExists: true},
		{ConfigExists: true},
		{EnvExists: true, ConfigExists: true},
	}
	moves := []domain.IntentType{domain.IntentMoveUp, domain.IntentMoveDown}

	for _, files := range statuses {
		// Walk every navigation sequence up to depth 6.
		var walk func(m *Machine, depth int)
		walk = func(m *Machine, depth int) {
			if !available(m.Files, m.Menu) {
				t.Fatalf("files=%+v landed on unavailable %v", files, m.Menu)
			}
			if depth == 0 {
				return
			}
			for _, mv := range moves {
				cp := *m
				cp.Apply(domain.Intent{Type: mv})
				walk(&cp, depth-1)
			}
		}
		walk(New(files), 6)
	}
}

func TestMenuCyclesThroughAllAvailableOptions(t *testing.T) {
	t.Parallel()

	m := New(domain.FileStatus{EnvExists: true, ConfigExists: true})
	seen := map[domain.MenuSelection]bool{m.Menu: true}
	for i := 0; i < 4; i++ {
		m.Apply(domain.Intent{Type: domain.IntentMoveDown})
		seen[m.Menu] = true
	}
	if !seen[domain.MenuProceed] || !seen[domain.MenuCancel] {
		t.Fatalf("full cycle missed options: %v", seen)
	}
	if seen[domain.MenuGenerateEnv] || seen[domain.MenuGenerateConfig] {
		t.Fatalf("generate options offered while both files exist: %v", seen)
	}
}

func TestProceedRequiresBothFiles(t *testing.T) {
	t.Parallel()

	m := New(domain.FileStatus{EnvExists: true})
	m.Menu = domain.MenuProceed
	if ins := m.Apply(domain.Intent{Type: domain.IntentConfirm}); len(ins) != 0 {
		t.Fatalf("proceed with missing config produced %v", ins)
	}
	if m.State != domain.StateConfirmation {
		t.Fatalf("state = %v, want confirmation", m.State)
	}
}

func TestProceedStartsInstall(t *testing.T) {
	t.Parallel()

	m := New(domain.FileStatus{EnvExists: true, ConfigExists: true})
	ins := m.Apply(domain.Intent{Type: domain.IntentConfirm})
	if len(ins) != 1 || ins[0].Type != domain.InstructStartInstall {
		t.Fatalf("instructions = %v, want start install", ins)
	}
	if m.State != domain.StateInstalling {
		t.Fatalf("state = %v, want installing", m.State)
	}
}

func TestGenerateConfigFlow(t *testing.T) {
	t.Parallel()

	m := New(domain.FileStatus{EnvExists: true})
	if m.Menu != domain.MenuGenerateConfig {
		t.Fatalf("menu = %v", m.Menu)
	}
	ins := m.Apply(domain.Intent{Type: domain.IntentConfirm})
	if len(ins) != 1 || ins[0].Type != domain.InstructWriteConfig {
		t.Fatalf("instructions = %v, want write config", ins)
	}

	m.ConfigWritten(nil)
	if !m.Files.ConfigExists {
		t.Fatalf("config not marked present")
	}
	if m.Menu != domain.MenuProceed {
		t.Fatalf("menu = %v, want proceed", m.Menu)
	}

	m.ConfigWritten(errors.New("disk full"))
	if m.State != domain.StateError {
		t.Fatalf("state = %v, want error", m.State)
	}
	if want := "Failed to generate config.yaml: disk full"; m.Message != want {
		t.Fatalf("message = %q, want %q", m.Message, want)
	}
}

func TestFormEditing(t *testing.T) {
	t.Parallel()

	m := New(domain.FileStatus{})
	m.Apply(domain.Intent{Type: domain.IntentConfirm}) // GenerateEnv
	if m.State != domain.StateEnvSetup {
		t.Fatalf("state = %v, want env setup", m.State)
	}
	if m.Form.GenerationModel != "gpt-4o-mini" {
		t.Fatalf("form not reset to defaults: %+v", m.Form)
	}

	m.Apply(domain.Intent{Type: domain.IntentToggleEdit})
	typeString(m, "sk-abc")
	m.Apply(domain.Intent{Type: domain.IntentEditBackspace})
	m.Apply(domain.Intent{Type: domain.IntentCancel}) // stop editing, stay on form
	if m.Form.Editing {
		t.Fatalf("still editing after cancel")
	}
	if m.State != domain.StateEnvSetup {
		t.Fatalf("cancel while editing left the form")
	}
	if m.Form.APIKey != "sk-ab" {
		t.Fatalf("api key = %q, want %q", m.Form.APIKey, "sk-ab")
	}
}

func TestFormBackspacePopsWholeRune(t *testing.T) {
	t.Parallel()

	m := New(domain.FileStatus{})
	m.Apply(domain.Intent{Type: domain.IntentConfirm})
	m.Apply(domain.Intent{Type: domain.IntentToggleEdit})

	typeString(m, "é")
	m.Apply(domain.Intent{Type: domain.IntentEditBackspace})
	if m.Form.APIKey != "" {
		t.Fatalf("api key = %q, want empty after deleting multibyte char", m.Form.APIKey)
	}

	typeString(m, "sk-日本語")
	m.Apply(domain.Intent{Type: domain.IntentEditBackspace})
	if m.Form.APIKey != "sk-日本" {
		t.Fatalf("api key = %q, want %q", m.Form.APIKey, "sk-日本")
	}
	if !utf8.ValidString(m.Form.APIKey) {
		t.Fatalf("api key is not valid UTF-8: %q", m.Form.APIKey)
	}

	// Backspacing an empty field stays empty.
	for i := 0; i < 10; i++ {
		m.Apply(domain.Intent{Type: domain.IntentEditBackspace})
	}
	if m.Form.APIKey != "" {
		t.Fatalf("api key = %q, want empty", m.Form.APIKey)
	}
}

func TestFormFieldCursorClamped(t *testing.T) {
	t.Parallel()

	m := New(domain.FileStatus{})
	m.Apply(domain.Intent{Type: domain.IntentConfirm})

	m.Apply(domain.Intent{Type: domain.IntentMoveUp})
	if m.Form.Field != domain.FieldAPIKey {
		t.Fatalf("cursor moved above first field: %v", m.Form.Field)
	}
	for i := 0; i < 10; i++ {
		m.Apply(domain.Intent{Type: domain.IntentMoveDown})
	}
	if m.Form.Field != domain.FieldAIServicePort {
		t.Fatalf("cursor moved past last field: %v", m.Form.Field)
	}
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()

	m := New(domain.FileStatus{})
	m.Apply(domain.Intent{Type: domain.IntentConfirm})

	if ins := m.Apply(domain.Intent{Type: domain.IntentSubmitForm}); len(ins) != 0 {
		t.Fatalf("empty key submission produced %v", ins)
	}
	if m.Form.ErrorMessage != "OpenAI API Key is required!" {
		t.Fatalf("validation message = %q", m.Form.ErrorMessage)
	}

	m.Apply(domain.Intent{Type: domain.IntentToggleEdit})
	typeString(m, "pk-wrong")
	m.Apply(domain.Intent{Type: domain.IntentToggleEdit})
	if ins := m.Apply(domain.Intent{Type: domain.IntentSubmitForm}); len(ins) != 0 {
		t.Fatalf("bad prefix submission produced %v", ins)
	}
	if m.Form.ErrorMessage != "Invalid OpenAI API Key format (should start with 'sk-')" {
		t.Fatalf("validation message = %q", m.Form.ErrorMessage)
	}
	if m.State != domain.StateEnvSetup {
		t.Fatalf("validation failure left the form")
	}
}

func TestSubmitValidForm(t *testing.T) {
	t.Parallel()

	m := New(domain.FileStatus{})
	m.Apply(domain.Intent{Type: domain.IntentConfirm})
	m.Apply(domain.Intent{Type: domain.IntentToggleEdit})
	typeString(m, "sk-valid-key")
	m.Apply(domain.Intent{Type: domain.IntentToggleEdit})

	ins := m.Apply(domain.Intent{Type: domain.IntentSubmitForm})
	if len(ins) != 1 || ins[0].Type != domain.InstructWriteEnv {
		t.Fatalf("instructions = %v, want write env", ins)
	}
	if ins[0].Form.APIKey != "sk-valid-key" {
		t.Fatalf("instruction carries form %+v", ins[0].Form)
	}

	m.EnvWritten(nil)
	if m.State != domain.StateConfirmation {
		t.Fatalf("state = %v, want confirmation", m.State)
	}
	if m.Menu != domain.MenuGenerateConfig {
		t.Fatalf("menu = %v, want generate config", m.Menu)
	}

	m2 := New(domain.FileStatus{ConfigExists: true})
	m2.Apply(domain.Intent{Type: domain.IntentConfirm})
	m2.Apply(domain.Intent{Type: domain.IntentToggleEdit})
	typeString(m2, "sk-x")
	m2.Apply(domain.Intent{Type: domain.IntentToggleEdit})
	m2.Apply(domain.Intent{Type: domain.IntentSubmitForm})
	m2.EnvWritten(nil)
	if m2.Menu != domain.MenuProceed {
		t.Fatalf("menu = %v, want proceed when config already exists", m2.Menu)
	}
}

func TestEnvWriteFailure(t *testing.T) {
	t.Parallel()

	m := New(domain.FileStatus{})
	m.Apply(domain.Intent{Type: domain.IntentConfirm})
	m.EnvWritten(errors.New("permission denied"))
	if m.State != domain.StateError {
		t.Fatalf("state = %v, want error", m.State)
	}
	if want := "Failed to generate .env: permission denied"; m.Message != want {
		t.Fatalf("message = %q, want %q", m.Message, want)
	}
}

func TestFormCancelReturnsToConfirmation(t *testing.T) {
	t.Parallel()

	m := New(domain.FileStatus{})
	m.Apply(domain.Intent{Type: domain.IntentConfirm})
	m.Apply(domain.Intent{Type: domain.IntentCancel})
	if m.State != domain.StateConfirmation {
		t.Fatalf("state = %v, want confirmation", m.State)
	}
	if m.Files.EnvExists {
		t.Fatalf("cancelled form marked env present")
	}
}

func TestCompleteInstall(t *testing.T) {
	t.Parallel()

	m := New(domain.FileStatus{EnvExists: true, ConfigExists: true})
	m.Apply(domain.Intent{Type: domain.IntentConfirm})

	m.CompleteInstall(nil)
	if m.State != domain.StateSuccess {
		t.Fatalf("state = %v, want success", m.State)
	}

	m2 := New(domain.FileStatus{EnvExists: true, ConfigExists: true})
	m2.Apply(domain.Intent{Type: domain.IntentConfirm})
	m2.CompleteInstall(errors.New("Docker Compose build failed"))
	if m2.State != domain.StateError {
		t.Fatalf("state = %v, want error", m2.State)
	}
	if want := "Installation failed: Docker Compose build failed"; m2.Message != want {
		t.Fatalf("message = %q", m2.Message)
	}
}

func TestHardInterruptHaltsEverywhere(t *testing.T) {
	t.Parallel()

	setups := []func() *Machine{
		func() *Machine { return New(domain.FileStatus{}) },
		func() *Machine {
			m := New(domain.FileStatus{})
			m.Apply(domain.Intent{Type: domain.IntentConfirm})
			return m
		},
		func() *Machine {
			m := New(domain.FileStatus{EnvExists: true, ConfigExists: true})
			m.Apply(domain.Intent{Type: domain.IntentConfirm})
			return m
		},
	}
	for i, setup := range setups {
		m := setup()
		ins := m.Apply(domain.Intent{Type: domain.IntentHardInterrupt})
		if len(ins) != 1 || ins[0].Type != domain.InstructHalt {
			t.Fatalf("setup %d: instructions = %v, want halt", i, ins)
		}
		if m.Running {
			t.Fatalf("setup %d: still running after halt", i)
		}
		if ins := m.Apply(domain.Intent{Type: domain.IntentConfirm}); len(ins) != 0 {
			t.Fatalf("setup %d: halted machine still emits %v", i, ins)
		}
	}
}

func TestTerminalStatesIgnoreSoftIntents(t *testing.T) {
	t.Parallel()

	m := New(domain.FileStatus{EnvExists: true, ConfigExists: true})
	m.Apply(domain.Intent{Type: domain.IntentConfirm})
	m.CompleteInstall(nil)

	for _, in := range []domain.IntentType{
		domain.IntentConfirm, domain.IntentCancel, domain.IntentMoveUp, domain.IntentSubmitForm,
	} {
		if ins := m.Apply(domain.Intent{Type: in}); len(ins) != 0 {
			t.Fatalf("%v in success state produced %v", in, ins)
		}
	}
	if m.State != domain.StateSuccess {
		t.Fatalf("state drifted to %v", m.State)
	}
}

func TestEndToEndScenario(t *testing.T) {
	t.Parallel()

	m := New(domain.FileStatus{})
	if m.Menu != domain.MenuGenerateEnv {
		t.Fatalf("fresh run menu = %v", m.Menu)
	}

	m.Apply(domain.Intent{Type: domain.IntentConfirm})
	m.Apply(domain.Intent{Type: domain.IntentToggleEdit})
	typeString(m, "sk-e2e")
	m.Apply(domain.Intent{Type: domain.IntentToggleEdit})
	ins := m.Apply(domain.Intent{Type: domain.IntentSubmitForm})
	if len(ins) != 1 || ins[0].Type != domain.InstructWriteEnv {
		t.Fatalf("submit produced %v", ins)
	}
	m.EnvWritten(nil)
	if m.Menu != domain.MenuGenerateConfig {
		t.Fatalf("after env: menu = %v", m.Menu)
	}

	ins = m.Apply(domain.Intent{Type: domain.IntentConfirm})
	if len(ins) != 1 || ins[0].Type != domain.InstructWriteConfig {
		t.Fatalf("generate config produced %v", ins)
	}
	m.ConfigWritten(nil)
	if m.Menu != domain.MenuProceed {
		t.Fatalf("after config: menu = %v", m.Menu)
	}

	ins = m.Apply(domain.Intent{Type: domain.IntentConfirm})
	if len(ins) != 1 || ins[0].Type != domain.InstructStartInstall {
		t.Fatalf("proceed produced %v", ins)
	}
	if m.State != domain.StateInstalling {
		t.Fatalf("state = %v, want installing", m.State)
	}

	m.CompleteInstall(nil)
	if m.State != domain.StateSuccess {
		t.Fatalf("state = %v, want success", m.State)
	}
}
