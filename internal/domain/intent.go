package domain

// IntentType is the vocabulary the presentation layer translates key events
// into. The wizard consumes intents; it never sees terminal input directly.
type IntentType string

const (
	IntentMoveUp        IntentType = "move_up"
	IntentMoveDown      IntentType = "move_down"
	IntentConfirm       IntentType = "confirm"
	IntentCancel        IntentType = "cancel"
	IntentToggleEdit    IntentType = "toggle_edit"
	IntentEditChar      IntentType = "edit_char"
	IntentEditBackspace IntentType = "edit_backspace"
	IntentSubmitForm    IntentType = "submit_form"
	IntentHardInterrupt IntentType = "hard_interrupt"
)

type Intent struct {
	Type IntentType

	// Set for IntentEditChar only.
	Char rune
}

// Instruction is a side effect requested by a wizard transition. The wizard
// itself performs no I/O; the driver executes instructions and reports
// results back.
type InstructionType string

const (
	InstructWriteEnv     InstructionType = "write_env"
	InstructWriteConfig  InstructionType = "write_config"
	InstructStartInstall InstructionType = "start_install"
	InstructHalt         InstructionType = "halt"
)

type Instruction struct {
	Type InstructionType

	// Populated for InstructWriteEnv.
	Form FormData
}
