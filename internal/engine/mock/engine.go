// Package mock simulates a full docker compose install without Docker. It
// replays scripted compose output through the same classification pipeline
// the real engine uses, so the UI exercises identical event shapes.
package mock

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/analytics-hq/installer/internal/domain"
	"github.com/analytics-hq/installer/internal/engine/compose"
)

// Knobs:
//
//	ANALYTICS_MOCK_SPEED      divides every simulated delay (default 1)
//	ANALYTICS_MOCK_FAIL_PHASE fail phase 1 (build) or 2 (start)
const (
	envSpeed     = "ANALYTICS_MOCK_SPEED"
	envFailPhase = "ANALYTICS_MOCK_FAIL_PHASE"
)

type Engine struct{}

func New() *Engine { return &Engine{} }

var buildScript = []string{
	"northwind-db Pulling",
	"northwind-db Pulled",
	"qdrant Pulling",
	"qdrant Pulled",
	"#5 [analytics-service 2/6] RUN pip install -r requirements.txt",
	"#9 [analytics-ui 3/5] RUN npm ci",
	"#12 exporting layers",
}

var startScript = []string{
	"Network analytics_default Creating",
	"Network analytics_default Created",
	"Container northwind-db Creating",
	"Container northwind-db Created",
	"Container qdrant Creating",
	"Container qdrant Created",
	"Container northwind-db Starting",
	"Container northwind-db Started",
	"Container qdrant Starting",
	"Container qdrant Started",
	"Container analytics-service Starting",
	"Container analytics-service Started",
	"Container analytics-ui Starting",
	"Container analytics-ui Started",
	"Container analytics-service Running",
}

// Run replays the scripted install and closes ch when done. Events stop
// whenever ctx is cancelled.
func (e *Engine) Run(ctx context.Context, ch chan<- domain.Event) {
	defer close(ch)

	speed := envInt(envSpeed, 1)
	if speed < 1 {
		speed = 1
	}
	failPhase := envInt(envFailPhase, 0)

	sleep := func(d time.Duration) bool {
		t := time.NewTimer(d / time.Duration(speed))
		defer t.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
			return true
		}
	}

	est := compose.NewEstimator()
	phase := domain.PhaseBuild

	emit := func(ev domain.Event) bool {
		ev.Phase = phase
		if ev.TS.IsZero() {
			ev.TS = time.Now()
		}
		select {
		case <-ctx.Done():
			return false
		case ch <- ev:
			return true
		}
	}
	emitLog := func(line string) bool {
		est.Announce(line)
		return emit(domain.Event{
			Type:    domain.EventLog,
			Payload: domain.LogPayload{Line: line},
		})
	}
	emitProgress := func() bool {
		p := est.Progress
		return emit(domain.Event{
			Type: domain.EventProgress,
			Payload: domain.ProgressPayload{
				Pct:       p.Pct,
				Service:   p.Service,
				Completed: p.Completed,
				Total:     p.Total,
			},
		})
	}
	fail := func(msg string) {
		emit(domain.Event{
			Type:    domain.EventError,
			Payload: domain.ErrorPayload{Message: msg},
		})
		emit(domain.Event{
			Type:    domain.EventPhaseDone,
			Payload: domain.PhaseDonePayload{OK: false},
		})
	}

	replay := func(p domain.Phase, script []string, argv string) bool {
		phase = p
		est.BeginPhase(p)
		if !emitProgress() {
			return false
		}
		if !emitLog("📦 Executing: " + argv) {
			return false
		}
		for _, raw := range script {
			if !sleep(150 * time.Millisecond) {
				return false
			}
			ev, ok := compose.Classify(raw)
			if !ok {
				continue
			}
			line, progressed := est.Apply(ev)
			if line != "" && !emit(domain.Event{
				Type:    domain.EventLog,
				Payload: domain.LogPayload{Line: line},
			}) {
				return false
			}
			if progressed && !emitProgress() {
				return false
			}
		}
		return true
	}

	emit(domain.Event{
		Type:    domain.EventPhaseStart,
		Payload: domain.PhaseStartPayload{Label: "Building images", Index: 1, Total: 2},
	})
	emitLog("🔨 Step 1/2: Building images (no cache)...")
	if !replay(domain.PhaseBuild, buildScript, "docker compose build --no-cache") {
		return
	}
	if failPhase == 1 {
		fail("Docker Compose build failed: simulated build failure")
		return
	}
	emitLog("✅ Build completed successfully!")

	phase = domain.PhaseStart
	emit(domain.Event{
		Type:    domain.EventPhaseStart,
		Payload: domain.PhaseStartPayload{Label: "Starting services", Index: 2, Total: 2},
	})
	emitLog("🚀 Step 2/2: Starting services...")
	if failPhase == 2 {
		emitLog("❌ simulated: port is already allocated")
		fail("Docker Compose up failed: simulated start failure")
		return
	}
	if !replay(domain.PhaseStart, startScript, "docker compose up -d") {
		return
	}

	est.Finish()
	emitProgress()
	emitLog("✅ All services started successfully!")
	emit(domain.Event{
		Type:    domain.EventPhaseDone,
		Payload: domain.PhaseDonePayload{OK: true},
	})
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
