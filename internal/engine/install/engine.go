// Package install drives the two docker compose phases and turns their
// combined output into domain events.
package install

import (
	"context"
	"strings"
	"time"

	"github.com/analytics-hq/installer/internal/domain"
	"github.com/analytics-hq/installer/internal/engine/compose"
)

// Options control where the compose project lives.
type Options struct {
	// Dir is the working directory for docker compose. Empty means the
	// process working directory.
	Dir string
}

// Engine runs `docker compose build --no-cache` followed by
// `docker compose up -d`, emitting domain events along the way.
type Engine struct {
	opt       Options
	buildArgv []string
	startArgv []string
}

func New(opt Options) *Engine {
	return &Engine{
		opt:       opt,
		buildArgv: []string{"docker", "compose", "build", "--no-cache"},
		startArgv: []string{"docker", "compose", "up", "-d"},
	}
}

// Run executes both phases and closes ch when done. Call it in its own
// goroutine; events stop whenever ctx is cancelled.
func (e *Engine) Run(ctx context.Context, ch chan<- domain.Event) {
	defer close(ch)

	est := compose.NewEstimator()
	phase := domain.PhaseBuild

	emit := func(ev domain.Event) bool {
		ev.Phase = phase
		select {
		case ch <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	emitLog := func(line string) bool {
		est.Announce(line)
		return emit(domain.Event{
			Type:    domain.EventLog,
			TS:      time.Now(),
			Payload: domain.LogPayload{Line: line},
		})
	}
	emitProgress := func() bool {
		p := est.Progress
		return emit(domain.Event{
			Type: domain.EventProgress,
			TS:   time.Now(),
			Payload: domain.ProgressPayload{
				Pct:       p.Pct,
				Service:   p.Service,
				Completed: p.Completed,
				Total:     p.Total,
			},
		})
	}

	runPhase := func(p domain.Phase, argv []string) Outcome {
		phase = p
		onLine := func(raw string) {
			ev, ok := compose.Classify(raw)
			if !ok {
				return
			}
			line, progressed := est.Apply(ev)
			if line != "" {
				emit(domain.Event{
					Type:    domain.EventLog,
					TS:      time.Now(),
					Payload: domain.LogPayload{Line: line},
				})
			}
			if progressed {
				emitProgress()
			}
		}
		est.BeginPhase(p)
		emitProgress()
		emitLog("📦 Executing: " + strings.Join(argv, " "))
		return runCommand(ctx, e.opt.Dir, argv, onLine)
	}

	emit(domain.Event{
		Type: domain.EventPhaseStart,
		TS:   time.Now(),
		Payload: domain.PhaseStartPayload{
			Label: "Building images",
			Index: 1,
			Total: 2,
		},
	})
	emitLog("🔨 Step 1/2: Building images (no cache)...")
	if out := runPhase(domain.PhaseBuild, e.buildArgv); !out.OK {
		e.fail(ctx, ch, "Docker Compose build failed", out.Detail)
		return
	}
	emitLog("✅ Build completed successfully!")

	phase = domain.PhaseStart
	emit(domain.Event{
		Type: domain.EventPhaseStart,
		TS:   time.Now(),
		Payload: domain.PhaseStartPayload{
			Label: "Starting services",
			Index: 2,
			Total: 2,
		},
	})
	emitLog("🚀 Step 2/2: Starting services...")
	if out := runPhase(domain.PhaseStart, e.startArgv); !out.OK {
		e.fail(ctx, ch, "Docker Compose up failed", out.Detail)
		return
	}

	est.Finish()
	emitProgress()
	emitLog("✅ All services started successfully!")
	emit(domain.Event{
		Type:    domain.EventPhaseDone,
		TS:      time.Now(),
		Payload: domain.PhaseDonePayload{OK: true},
	})
}

func (e *Engine) fail(ctx context.Context, ch chan<- domain.Event, msg, detail string) {
	if detail != "" {
		msg = msg + ": " + detail
	}
	select {
	case ch <- domain.Event{
		Type:    domain.EventError,
		TS:      time.Now(),
		Payload: domain.ErrorPayload{Message: msg},
	}:
	case <-ctx.Done():
		return
	}
	select {
	case ch <- domain.Event{
		Type:    domain.EventPhaseDone,
		TS:      time.Now(),
		Payload: domain.PhaseDonePayload{OK: false},
	}:
	case <-ctx.Done():
	}
}
