package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/analytics-hq/installer/internal/config"
	"github.com/analytics-hq/installer/internal/domain"
	"github.com/analytics-hq/installer/internal/logging"
)

// runCLI is the non-interactive path: no wizard, no form. Both config
// artifacts must already exist; the engine runs once and every event is
// printed as a line.
func runCLI(ctx context.Context, mat *config.Materializer, start func() <-chan domain.Event, logger *logging.EventLogger, quiet bool) error {
	st := mat.Status()
	var missing []string
	if !st.EnvExists {
		missing = append(missing, config.EnvFileName)
	}
	if !st.ConfigExists {
		missing = append(missing, config.ConfigFileName)
	}
	if len(missing) > 0 {
		return fmt.Errorf("CLI mode is non-interactive; missing %s (run without --cli to generate)", strings.Join(missing, " and "))
	}

	fmt.Fprintln(os.Stdout, "Running installer in CLI mode (no TUI).")

	events := start()
	var hadError bool
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("installation cancelled: %w", ctx.Err())
		case ev, ok := <-events:
			if !ok {
				if hadError {
					return errors.New("installation failed")
				}
				return nil
			}
			if logger != nil {
				logger.Record(ev)
			}
			printCLIEvent(ev, quiet, &hadError)
		}
	}
}

func printCLIEvent(ev domain.Event, quiet bool, hadError *bool) {
	switch ev.Type {
	case domain.EventPhaseStart:
		if p, ok := ev.Payload.(domain.PhaseStartPayload); ok {
			printCLILine("==>", string(ev.Phase), fmt.Sprintf("%s (%d/%d)", p.Label, p.Index, p.Total), os.Stdout)
		}
	case domain.EventPhaseDone:
		ok := true
		if p, okPayload := ev.Payload.(domain.PhaseDonePayload); okPayload {
			ok = p.OK
		}
		if ok {
			printCLILine("✓", "", "Installation complete", os.Stdout)
		} else {
			*hadError = true
			printCLILine("✗", string(ev.Phase), "Installation failed", os.Stderr)
		}
	case domain.EventProgress:
		if quiet {
			return
		}
		if p, ok := ev.Payload.(domain.ProgressPayload); ok {
			msg := fmt.Sprintf("Progress: %.0f%%", p.Pct)
			if p.Service != "" {
				msg += fmt.Sprintf(" (%s, %d/%d services)", p.Service, p.Completed, p.Total)
			}
			printCLILine("•", string(ev.Phase), msg, os.Stdout)
		}
	case domain.EventLog:
		if p, ok := ev.Payload.(domain.LogPayload); ok {
			if quiet && !isIssueMessage(p.Line) {
				return
			}
			printCLILine("-", string(ev.Phase), p.Line, os.Stdout)
		}
	case domain.EventError:
		*hadError = true
		if p, ok := ev.Payload.(domain.ErrorPayload); ok {
			printCLILine("✗", string(ev.Phase), p.Message, os.Stderr)
		}
	}
}

func printCLILine(prefix, phase, message string, out *os.File) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	if phase != "" {
		fmt.Fprintf(out, "%s [%s] %s\n", prefix, phase, message)
		return
	}
	fmt.Fprintf(out, "%s %s\n", prefix, message)
}

func isIssueMessage(message string) bool {
	lower := strings.ToLower(message)
	if strings.Contains(lower, "warning") || strings.Contains(lower, "error") || strings.Contains(lower, "failed") {
		return true
	}
	return strings.Contains(message, "⚠") || strings.Contains(message, "❌")
}
