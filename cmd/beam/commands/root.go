// Package commands provides the CLI commands for Beam.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/beam-dev/beam/internal/logging"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	printLogs bool
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "beam",
	Short: "Beam - editor companion for an AI coding agent",
	Long: `Beam connects an editor session to a Beam agent server. It keeps the
conversation history, streams turn progress, and applies the agent's
proposed changes on request.

Run 'beam serve' to start the host server an editor connects to, or
'beam task' to run a single instruction from the command line.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		out := os.Stderr
		if !printLogs {
			devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
			if err == nil {
				out = devnull
			}
		}
		logging.Init(logging.Config{
			Level:  logging.ParseLevel(logLevel),
			Output: out,
			Pretty: printLogs,
		})
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Print logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")

	rootCmd.SetVersionTemplate(fmt.Sprintf("beam %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(diffCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetWorkDir returns the working directory from flag or current directory.
func GetWorkDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return os.Getwd()
}
