// Package logging records the engine event stream and renders it as a
// markdown report (log.md) for post-mortem reading. Secrets that can appear
// in echoed configuration, API keys above all, are redacted before writing.
package logging

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/analytics-hq/installer/internal/domain"
)

type Config struct {
	// Always writes the report even on success. Default is failures only.
	Always     bool
	ProjectDir string
	Version    string
	Mode       string
}

type Result struct {
	Path    string
	Written bool
}

type level string

const (
	levelInfo  level = "info"
	levelError level = "error"
)

type entry struct {
	ts      time.Time
	level   level
	phase   domain.Phase
	message string
	count   int
}

// EventLogger accumulates events in memory; nothing touches disk until
// Finalize. Safe for single-consumer use only, same as the event channel.
type EventLogger struct {
	cfg          Config
	started      time.Time
	ended        time.Time
	entries      []entry
	hadError     bool
	failedPhases map[domain.Phase]bool
	finalPct     float64
}

func NewEventLogger(cfg Config) *EventLogger {
	return &EventLogger{
		cfg:          cfg,
		started:      time.Now(),
		failedPhases: map[domain.Phase]bool{},
	}
}

func (l *EventLogger) Record(ev domain.Event) {
	if ev.TS.IsZero() {
		ev.TS = time.Now()
	}
	l.ended = ev.TS

	switch ev.Type {
	case domain.EventPhaseStart:
		if p, ok := ev.Payload.(domain.PhaseStartPayload); ok {
			l.append(ev, levelInfo, fmt.Sprintf("Phase started: %s (%d/%d)", p.Label, p.Index, p.Total))
		}
	case domain.EventPhaseDone:
		ok := true
		if p, okPayload := ev.Payload.(domain.PhaseDonePayload); okPayload {
			ok = p.OK
		}
		if ok {
			l.append(ev, levelInfo, "Installation completed")
		} else {
			l.hadError = true
			l.failedPhases[ev.Phase] = true
			l.append(ev, levelError, "Installation failed")
		}
	case domain.EventLog:
		if p, ok := ev.Payload.(domain.LogPayload); ok {
			l.append(ev, levelInfo, p.Line)
		}
	case domain.EventProgress:
		if p, ok := ev.Payload.(domain.ProgressPayload); ok {
			l.finalPct = p.Pct
			msg := fmt.Sprintf("Progress: %.0f%%", p.Pct)
			if p.Service != "" {
				msg += fmt.Sprintf(" (%s, %d/%d services)", p.Service, p.Completed, p.Total)
			}
			l.append(ev, levelInfo, msg)
		}
	case domain.EventError:
		l.hadError = true
		l.failedPhases[ev.Phase] = true
		if p, ok := ev.Payload.(domain.ErrorPayload); ok {
			l.append(ev, levelError, p.Message)
		}
	}
}

// MarkFailure forces the failure result when the driver aborts outside the
// event stream (spawn errors, operator interrupt).
func (l *EventLogger) MarkFailure() {
	l.hadError = true
}

// Finalize writes log.md into the project directory and reports where. A
// successful run without Always set writes nothing.
func (l *EventLogger) Finalize() (Result, error) {
	if !l.cfg.Always && !l.hadError {
		return Result{}, nil
	}

	path := filepath.Join(resolveLogDir(l.cfg.ProjectDir), "log.md")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if l.ended.IsZero() {
		l.ended = time.Now()
	}
	l.writeMarkdown(w)
	if err := w.Flush(); err != nil {
		return Result{}, err
	}
	return Result{Path: path, Written: true}, nil
}

func (l *EventLogger) append(ev domain.Event, lv level, message string) {
	message = sanitizeMessage(message)
	if message == "" {
		return
	}
	if len(l.entries) > 0 {
		last := &l.entries[len(l.entries)-1]
		if last.level == lv && last.phase == ev.Phase && last.message == message {
			last.ts = ev.TS
			last.count++
			return
		}
	}
	l.entries = append(l.entries, entry{ts: ev.TS, level: lv, phase: ev.Phase, message: message, count: 1})
}

func phaseHeading(p domain.Phase) string {
	switch p {
	case domain.PhaseBuild:
		return "### Build (docker compose build --no-cache)"
	case domain.PhaseStart:
		return "### Start (docker compose up -d)"
	default:
		return "### General"
	}
}

func (l *EventLogger) writeMarkdown(w *bufio.Writer) {
	result := "Completed"
	if l.hadError {
		result = "Failed"
	}

	fmt.Fprintln(w, "# Analytics installer log")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "## Summary")
	fmt.Fprintf(w, "- Started: %s\n", l.started.Format(time.RFC3339))
	fmt.Fprintf(w, "- Ended: %s\n", l.ended.Format(time.RFC3339))
	fmt.Fprintf(w, "- Result: %s\n", result)
	if l.hadError {
		if reason := l.failureReason(); reason != "" {
			fmt.Fprintf(w, "- Failure reason: %s\n", reason)
		}
		if failed := l.failedPhaseList(); failed != "" {
			fmt.Fprintf(w, "- Failed phase: %s\n", failed)
		}
	}
	fmt.Fprintf(w, "- Final progress: %.0f%%\n", l.finalPct)
	if dir := strings.TrimSpace(l.cfg.ProjectDir); dir != "" {
		fmt.Fprintf(w, "- Project dir: %s\n", dir)
	}
	if v := strings.TrimSpace(l.cfg.Version); v != "" {
		fmt.Fprintf(w, "- Version: %s\n", v)
	}
	if m := strings.TrimSpace(l.cfg.Mode); m != "" {
		fmt.Fprintf(w, "- Mode: %s\n", m)
	}

	for _, p := range []domain.Phase{domain.PhaseBuild, domain.PhaseStart, domain.Phase("")} {
		section := filterPhase(l.entries, p)
		if len(section) == 0 {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, phaseHeading(p))
		fmt.Fprintln(w, "```text")
		for _, e := range section {
			fmt.Fprintln(w, formatEntryLine(e))
		}
		fmt.Fprintln(w, "```")
	}
}

func filterPhase(entries []entry, p domain.Phase) []entry {
	var out []entry
	for _, e := range entries {
		if e.phase == p {
			out = append(out, e)
		}
	}
	return out
}

func formatEntryLine(e entry) string {
	ts := e.ts
	if ts.IsZero() {
		ts = time.Now()
	}
	line := fmt.Sprintf("%s [%s] %s", ts.Format("2006-01-02 15:04:05"), strings.ToUpper(string(e.level)), e.message)
	if e.count > 1 {
		line += fmt.Sprintf(" (x%d)", e.count)
	}
	return line
}

func (l *EventLogger) failureReason() string {
	for _, e := range l.entries {
		if e.level == levelError && !strings.EqualFold(e.message, "Installation failed") {
			return e.message
		}
	}
	for _, e := range l.entries {
		if strings.Contains(strings.ToLower(e.message), "failed") {
			return e.message
		}
	}
	return ""
}

func (l *EventLogger) failedPhaseList() string {
	var out []string
	for _, p := range []domain.Phase{domain.PhaseBuild, domain.PhaseStart} {
		if l.failedPhases[p] {
			out = append(out, string(p))
		}
	}
	return strings.Join(out, ", ")
}

var (
	apiKeyRe = regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]+`)
	kvRe     = regexp.MustCompile(`(?i)\b(OPENAI_API_KEY|POSTGRES_PASSWORD|LANGFUSE_SECRET_KEY|LANGFUSE_PUBLIC_KEY|POSTHOG_API_KEY|PG_URL)\s*[:=]\s*\S+`)
)

func sanitizeMessage(message string) string {
	message = stripControlChars(message)
	if strings.TrimSpace(message) == "" {
		return ""
	}
	message = apiKeyRe.ReplaceAllString(message, "sk-<redacted>")
	message = kvRe.ReplaceAllString(message, "$1=<redacted>")
	return message
}

func stripControlChars(message string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return ' '
		}
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, message)
}

func resolveLogDir(projectDir string) string {
	dir := strings.TrimSpace(projectDir)
	if dir == "" {
		dir = "."
	}
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err == nil {
		return dir
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return os.TempDir()
}
