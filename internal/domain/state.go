package domain

import "strings"

type WizardState string

const (
	StateConfirmation WizardState = "confirmation"
	StateEnvSetup     WizardState = "env_setup"
	StateInstalling   WizardState = "installing"
	StateSuccess      WizardState = "success"
	StateError        WizardState = "error"
)

type MenuSelection string

const (
	MenuProceed        MenuSelection = "proceed"
	MenuGenerateEnv    MenuSelection = "generate_env"
	MenuGenerateConfig MenuSelection = "generate_config"
	MenuCancel         MenuSelection = "cancel"
)

// FileStatus captures which of the two config artifacts are present on disk.
type FileStatus struct {
	EnvExists    bool
	ConfigExists bool
}

func (f FileStatus) AllPresent() bool { return f.EnvExists && f.ConfigExists }

type FormField int

const (
	FieldAPIKey FormField = iota
	FieldGenerationModel
	FieldHostPort
	FieldAIServicePort

	FormFieldCount
)

func (f FormField) Label() string {
	switch f {
	case FieldAPIKey:
		return "OpenAI API Key"
	case FieldGenerationModel:
		return "Generation Model"
	case FieldHostPort:
		return "UI Port"
	case FieldAIServicePort:
		return "AI Service Port"
	default:
		return ""
	}
}

type FormData struct {
	APIKey          string
	GenerationModel string
	HostPort        string
	AIServicePort   string

	Field   FormField
	Editing bool

	// Transient validation message; cleared on a successful Validate.
	ErrorMessage string
}

func NewFormData() FormData {
	return FormData{
		GenerationModel: "gpt-4o-mini",
		HostPort:        "3000",
		AIServicePort:   "5555",
	}
}

// Current returns the value slot addressed by the field cursor.
func (f *FormData) Current() *string {
	switch f.Field {
	case FieldGenerationModel:
		return &f.GenerationModel
	case FieldHostPort:
		return &f.HostPort
	case FieldAIServicePort:
		return &f.AIServicePort
	default:
		return &f.APIKey
	}
}

// Validate checks the submit rules and records a human-readable message on
// failure. Only the API key has hard constraints; the remaining fields carry
// defaults that are always acceptable.
func (f *FormData) Validate() bool {
	if strings.TrimSpace(f.APIKey) == "" {
		f.ErrorMessage = "OpenAI API Key is required!"
		return false
	}
	if !strings.HasPrefix(f.APIKey, "sk-") {
		f.ErrorMessage = "Invalid OpenAI API Key format (should start with 'sk-')"
		return false
	}
	f.ErrorMessage = ""
	return true
}

// Services lists the compose services in the order service names are scanned
// out of subprocess output.
var Services = []string{"analytics-service", "qdrant", "northwind-db", "analytics-ui"}

const TotalServices = 4

type Phase string

const (
	PhaseBuild Phase = "build"
	PhaseStart Phase = "start"
)

// Base returns the progress floor of a phase: build occupies the first half of
// the bar, start the second half, regardless of how many lines were observed.
func (p Phase) Base() float64 {
	if p == PhaseStart {
		return 50
	}
	return 0
}

func (p Phase) Span() float64 { return 50 }

type InstallProgress struct {
	Pct       float64
	Phase     Phase
	Service   string
	Completed int
	Total     int
}

func NewInstallProgress() InstallProgress {
	return InstallProgress{Phase: PhaseBuild, Total: TotalServices}
}

// LogState is the bounded scrollback shown to the operator. Appends evict the
// oldest entry once Max is exceeded.
type LogState struct {
	Max     int
	Entries []string
}

func NewLogState() LogState { return LogState{Max: 100} }

func (l *LogState) Append(line string) {
	l.Entries = append(l.Entries, line)
	if l.Max > 0 && len(l.Entries) > l.Max {
		l.Entries = l.Entries[len(l.Entries)-l.Max:]
	}
}

func (l *LogState) Tail(n int) []string {
	if n <= 0 || len(l.Entries) == 0 {
		return nil
	}
	if n >= len(l.Entries) {
		return l.Entries
	}
	return l.Entries[len(l.Entries)-n:]
}
