package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build information, set via -ldflags
var (
	Version     = "0.1.0"
	BuildCommit = "dev"
	BuildDate   = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "health-monitor v%s\n", Version)
		fmt.Fprintf(cmd.OutOrStdout(), "Build: %s (%s)\n", BuildCommit, BuildDate)
		fmt.Fprintf(cmd.OutOrStdout(), "Go: %s (%s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
