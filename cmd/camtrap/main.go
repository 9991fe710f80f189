package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=... -X main.commitHash=...".
var (
	version    = "dev"
	commitHash = ""
	buildTime  = ""
)

// rootCmd is the main Cobra command for the camtrap CLI.
var rootCmd = &cobra.Command{
	Use:   "camtrap",
	Short: "Camera-trap event indexer",
	Long: `camtrap reads a directory of camera-trap photos and videos, resolves a
capture time for every file, expands the hierarchical keyword tags into one
record per detected species and flags independent events per camera and
species. Results are written as CSV and SQLite.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "camtrap %s\n", version)
		if commitHash != "" {
			fmt.Fprintf(out, "commit: %s\n", commitHash)
		}
		if buildTime != "" {
			fmt.Fprintf(out, "built: %s\n", buildTime)
		}
		fmt.Fprintf(out, "go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(newProcessCmd(), versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("camtrap failed")
		stop()
		os.Exit(1)
	}
}
