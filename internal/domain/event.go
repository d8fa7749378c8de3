package domain

import "time"

// Event is the engine-to-presentation stream. The engine goroutine emits
// events over a channel; the UI (or the --cli printer) is the only consumer
// and owns all state derived from them.
type EventType string

const (
	EventPhaseStart EventType = "phase_start"
	EventPhaseDone  EventType = "phase_done"
	EventLog        EventType = "log"
	EventProgress   EventType = "progress"
	EventError      EventType = "error"
)

type Event struct {
	Type    EventType
	Phase   Phase
	TS      time.Time
	Payload any
}

type PhaseStartPayload struct {
	Label string
	Index int
	Total int
}

type PhaseDonePayload struct {
	OK bool
}

type LogPayload struct {
	Line string
}

type ProgressPayload struct {
	Pct       float64
	Service   string
	Completed int
	Total     int
}

type ErrorPayload struct {
	Message string
}
