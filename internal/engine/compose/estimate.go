package compose

import (
	"fmt"

	"github.com/analytics-hq/installer/internal/domain"
)

// Estimator accumulates classified events into install progress plus the
// bounded scrollback. All side effects are local to these two structures; it
// performs no I/O and decides nothing about aborting (that is the runner's
// job, based on exit status, not log content).
type Estimator struct {
	Progress domain.InstallProgress
	Logs     domain.LogState
}

func NewEstimator() *Estimator {
	return &Estimator{
		Progress: domain.NewInstallProgress(),
		Logs:     domain.NewLogState(),
	}
}

// Apply consumes one classified event. It returns the scrollback line that
// was appended ("" when the event produced none) and whether the progress
// snapshot changed: the pct moving or the current-service label switching.
// The label counts because it is the only feedback the operator gets during
// the build phase, where the pct holds at the phase base.
func (e *Estimator) Apply(ev Event) (line string, progressed bool) {
	switch ev.Kind {
	case KindImagePullStarted:
		if ev.Service == "" {
			return "", false
		}
		progressed = e.setService(ev.Service)
		line = fmt.Sprintf("⬇️  Pulling image for %s...", ev.Service)
	case KindImagePulled:
		line = "✓ Image pulled"
	case KindContainerCreateStarted:
		if ev.Service == "" {
			return "", false
		}
		progressed = e.setService(ev.Service)
		line = fmt.Sprintf("🔨 Creating container %s...", ev.Service)
	case KindContainerCreated:
		line = "✓ Container created"
	case KindServiceStartStarted:
		if ev.Service == "" {
			return "", false
		}
		progressed = e.setService(ev.Service)
		line = fmt.Sprintf("▶️  Starting service %s...", ev.Service)
	case KindServiceStarted:
		e.Progress.Completed++
		progressed = e.recompute()
		line = fmt.Sprintf("✅ Service started (%d/%d)", e.Progress.Completed, e.Progress.Total)
	case KindServiceRunning:
		line = "🟢 Service is running"
	case KindFailure:
		// Log only; whether the install aborts is the exit status's call.
		line = "❌ " + ev.Line
	case KindInfo:
		line = "ℹ️  " + ev.Line
	default:
		return "", false
	}

	e.Logs.Append(line)
	return line, progressed
}

// Announce appends an orchestrator-authored line (phase banners, command
// echoes) to the scrollback, bypassing classification.
func (e *Estimator) Announce(line string) {
	e.Logs.Append(line)
}

// BeginPhase pins progress to exactly the phase floor and restarts the
// per-phase completion count. Entering the start phase therefore lands on
// exactly 50 no matter what partial value the build phase accumulated.
func (e *Estimator) BeginPhase(p domain.Phase) {
	e.Progress.Phase = p
	e.Progress.Completed = 0
	e.pin(p.Base())
}

// Finish pins progress to 100 after a successful start phase.
func (e *Estimator) Finish() {
	e.pin(100)
}

// setService updates the current-service label, reporting whether it changed.
func (e *Estimator) setService(service string) bool {
	if e.Progress.Service == service {
		return false
	}
	e.Progress.Service = service
	return true
}

func (e *Estimator) recompute() bool {
	completed := e.Progress.Completed
	if completed > e.Progress.Total {
		completed = e.Progress.Total
	}
	pct := e.Progress.Phase.Base() + float64(completed)/float64(e.Progress.Total)*e.Progress.Phase.Span()
	return e.pin(pct)
}

// pin raises progress to pct. Progress never moves backwards.
func (e *Estimator) pin(pct float64) bool {
	if pct <= e.Progress.Pct {
		return false
	}
	if pct > 100 {
		pct = 100
	}
	e.Progress.Pct = pct
	return true
}
