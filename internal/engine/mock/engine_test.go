package mock

import (
	"context"
	"testing"

	"github.com/analytics-hq/installer/internal/domain"
)

func runMock(t *testing.T) []domain.Event {
	t.Helper()
	t.Setenv("ANALYTICS_MOCK_SPEED", "1000")

	ch := make(chan domain.Event, 128)
	go New().Run(context.Background(), ch)

	var events []domain.Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestMockRunCompletes(t *testing.T) {
	events := runMock(t)

	last := events[len(events)-1]
	if last.Type != domain.EventPhaseDone {
		t.Fatalf("last event = %v, want phase done", last.Type)
	}
	if !last.Payload.(domain.PhaseDonePayload).OK {
		t.Fatalf("expected successful outcome")
	}

	var finalPct float64
	for _, ev := range events {
		if ev.Type == domain.EventProgress {
			finalPct = ev.Payload.(domain.ProgressPayload).Pct
		}
	}
	if finalPct != 100 {
		t.Fatalf("final progress = %v, want 100", finalPct)
	}
}

func TestMockFailPhaseBuild(t *testing.T) {
	t.Setenv("ANALYTICS_MOCK_FAIL_PHASE", "1")
	events := runMock(t)

	var sawError, sawStartPhase bool
	for _, ev := range events {
		switch ev.Type {
		case domain.EventError:
			sawError = true
		case domain.EventPhaseStart:
			if ev.Payload.(domain.PhaseStartPayload).Index == 2 {
				sawStartPhase = true
			}
		}
	}
	if !sawError {
		t.Fatalf("expected an error event")
	}
	if sawStartPhase {
		t.Fatalf("start phase ran after simulated build failure")
	}
	last := events[len(events)-1]
	if last.Type != domain.EventPhaseDone || last.Payload.(domain.PhaseDonePayload).OK {
		t.Fatalf("expected failing phase done, got %+v", last)
	}
}

func TestMockCancelStopsStream(t *testing.T) {
	t.Setenv("ANALYTICS_MOCK_SPEED", "1")

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan domain.Event, 128)
	go New().Run(ctx, ch)

	if _, ok := <-ch; !ok {
		t.Fatalf("expected at least one event before cancel")
	}
	cancel()
	for range ch {
	}
}
