package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beam-dev/beam/internal/beamapi"
	"github.com/beam-dev/beam/internal/config"
	"github.com/beam-dev/beam/pkg/types"
)

var (
	fixDir  string
	fixLine int
)

// fixContextLines is how much surrounding code travels with a fix request.
const fixContextLines = 20

var fixCmd = &cobra.Command{
	Use:   "fix <file> <error text...>",
	Short: "Ask the Beam agent to fix a reported error",
	Long: `Send a compiler or runtime error to the Beam agent together with the
code around the failing line.

Examples:
  beam fix main.go --line 42 "nil pointer dereference"
  beam fix internal/config/config.go "undefined: mergeConfig"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runFix,
}

func init() {
	fixCmd.Flags().StringVar(&fixDir, "directory", "", "Working directory")
	fixCmd.Flags().IntVar(&fixLine, "line", 0, "Line the error points at (1-based)")
}

func runFix(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(fixDir)
	if err != nil {
		return err
	}
	cfg, err := config.Load(workDir)
	if err != nil {
		return err
	}

	file := args[0]
	errText := strings.Join(args[1:], " ")

	var code string
	if fixLine > 0 {
		code, err = readLineRange(file, max(1, fixLine-fixContextLines), fixLine+fixContextLines)
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := beamapi.NewClient(cfg.APIURL).FixError(ctx, file, errText, fixLine, code)
	if err != nil {
		return err
	}
	if resp.Status == types.StatusFailed {
		return fmt.Errorf("fix failed: %s", resp.Error)
	}
	printResponse(cmd.OutOrStdout(), resp, cfg.ShowConfidence)
	return nil
}
