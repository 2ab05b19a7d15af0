package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beam-dev/beam/internal/beamapi"
	"github.com/beam-dev/beam/internal/config"
)

var (
	explainDir   string
	explainStart int
	explainEnd   int
)

var explainCmd = &cobra.Command{
	Use:   "explain <file>",
	Short: "Ask the Beam agent to explain a file or line range",
	Long: `Ask the Beam agent to explain code.

Examples:
  beam explain internal/server/sse.go
  beam explain main.go --start 40 --end 80`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().StringVar(&explainDir, "directory", "", "Working directory")
	explainCmd.Flags().IntVar(&explainStart, "start", 0, "First line of the range (1-based)")
	explainCmd.Flags().IntVar(&explainEnd, "end", 0, "Last line of the range (1-based)")
}

func runExplain(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(explainDir)
	if err != nil {
		return err
	}
	cfg, err := config.Load(workDir)
	if err != nil {
		return err
	}

	file := args[0]
	code, err := readLineRange(file, explainStart, explainEnd)
	if err != nil {
		return err
	}
	var lines []int
	if explainStart > 0 && explainEnd >= explainStart {
		lines = []int{explainStart, explainEnd}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	explanation, err := beamapi.NewClient(cfg.APIURL).ExplainCode(ctx, file, code, lines)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), explanation)
	return nil
}

// readLineRange returns the file content, cut to [start, end] when a valid
// 1-based range is given.
func readLineRange(file string, start, end int) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	if start <= 0 || end < start {
		return string(data), nil
	}
	lines := strings.Split(string(data), "\n")
	if start > len(lines) {
		return "", fmt.Errorf("%s has only %d lines", file, len(lines))
	}
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start-1:end], "\n"), nil
}
