package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

var (
	Version   = "0.1.0"
	GitCommit = "none"
	BuildDate = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}
