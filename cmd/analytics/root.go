package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/analytics-hq/installer/internal/update"
)

// exitCode lets RunE paths report a non-zero status without cobra printing
// the error a second time.
var exitCode int

var (
	flagDir   string
	flagCLI   bool
	flagQuiet bool
	flagLog   bool
	flagMock  bool
)

var rootCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Analytics setup wizard: prepare config files and start the Docker Compose stack",
	Long: "analytics walks you through preparing the .env and config.yaml files the\n" +
		"Analytics stack needs, then builds and starts all services with Docker Compose.",
	SilenceUsage:  true,
	SilenceErrors: false,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInstall(cmd.Context())
	},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Run the setup wizard (default command)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInstall(cmd.Context())
	},
}

var flagCheckLatest bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the installer version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Analytics Installer %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		if flagCheckLatest {
			checkLatest(cmd.Context())
		}
	},
}

// checkLatest is best-effort: a failed lookup prints a note and moves on.
func checkLatest(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	info, _, err := update.LatestRelease(ctx, update.DefaultOwner, update.DefaultRepo, update.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not check for a newer release: %v\n", err)
		return
	}
	if info.NewerThan(Version) {
		fmt.Printf("A newer release is available: %s (%s)\n", info.Version, info.URL)
		return
	}
	fmt.Printf("You are on the latest release (%s).\n", info.Version)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "Compose project directory (default: working directory)")
	rootCmd.PersistentFlags().BoolVar(&flagCLI, "cli", false, "Run non-interactively, printing engine events (no TUI)")
	rootCmd.PersistentFlags().BoolVar(&flagQuiet, "quiet", false, "Reduce --cli output to warnings and errors")
	rootCmd.PersistentFlags().BoolVar(&flagLog, "log", false, "Always write log.md, not only on failure")
	rootCmd.PersistentFlags().BoolVar(&flagMock, "mock", false, "Simulate the install without Docker")

	versionCmd.Flags().BoolVar(&flagCheckLatest, "check-latest", false, "Check GitHub for a newer installer release")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(versionCmd)
}
