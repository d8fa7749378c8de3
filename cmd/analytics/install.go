package main

import (
	"context"
	"fmt"
	"os"

	"github.com/analytics-hq/installer/internal/config"
	"github.com/analytics-hq/installer/internal/domain"
	installengine "github.com/analytics-hq/installer/internal/engine/install"
	mockengine "github.com/analytics-hq/installer/internal/engine/mock"
	"github.com/analytics-hq/installer/internal/logging"
	"github.com/analytics-hq/installer/internal/ui"
	"github.com/analytics-hq/installer/internal/wizard"
)

func runInstall(ctx context.Context) error {
	mat, err := config.New(flagDir)
	if err != nil {
		return err
	}

	mode := "tui"
	if flagCLI {
		mode = "cli"
	}
	if flagMock {
		mode += "+mock"
	}
	logger := logging.NewEventLogger(logging.Config{
		Always:     flagLog,
		ProjectDir: mat.Root,
		Version:    Version,
		Mode:       mode,
	})

	engineCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := func() <-chan domain.Event {
		ch := make(chan domain.Event, 256)
		if flagMock {
			go mockengine.New().Run(engineCtx, ch)
		} else {
			go installengine.New(installengine.Options{Dir: mat.Root}).Run(engineCtx, ch)
		}
		return ch
	}

	var runErr error
	var failed bool
	if flagCLI {
		runErr = runCLI(ctx, mat, start, logger, flagQuiet)
		failed = runErr != nil
	} else {
		machine := wizard.New(mat.Status())
		runErr = ui.Run(machine, mat, start, logger, cancel, Version)
		failed = machine.State == domain.StateError || !machine.Running && machine.State == domain.StateInstalling
	}

	if failed {
		logger.MarkFailure()
	}
	if res, err := logger.Finalize(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	} else if res.Written {
		fmt.Fprintf(os.Stderr, "Installer log saved to %s\n", res.Path)
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		exitCode = 1
		return nil
	}
	if failed {
		exitCode = 1
	}
	return nil
}
