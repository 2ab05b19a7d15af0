package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beam-dev/beam/internal/beamapi"
	"github.com/beam-dev/beam/internal/config"
	"github.com/beam-dev/beam/internal/workspace"
	"github.com/beam-dev/beam/pkg/types"
)

var (
	taskDir   string
	taskFile  string
	taskApply bool
)

var taskCmd = &cobra.Command{
	Use:   "task [instruction...]",
	Short: "Run a single instruction against the Beam agent",
	Long: `Send one instruction to the Beam agent and print the result.

Examples:
  beam task "Fix the bug in main.go"
  beam task --file internal/server/server.go "Add a shutdown timeout"
  beam task --apply "Rename the helper to parseConfig"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTask,
}

func init() {
	taskCmd.Flags().StringVar(&taskDir, "directory", "", "Working directory")
	taskCmd.Flags().StringVarP(&taskFile, "file", "f", "", "File the instruction refers to")
	taskCmd.Flags().BoolVar(&taskApply, "apply", false, "Apply the proposed changes")
}

func runTask(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(taskDir)
	if err != nil {
		return err
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return err
	}

	ws := workspace.New(workDir)
	defer ws.Close()

	info := ws.Snapshot()
	if taskFile != "" {
		info.CurrentFile = taskFile
	}

	client := beamapi.NewClient(cfg.APIURL)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := client.ExecuteTask(ctx, strings.Join(args, " "), info, nil)
	if err != nil {
		return err
	}
	if resp.Status == types.StatusFailed {
		return fmt.Errorf("task failed: %s", resp.Error)
	}

	printResponse(cmd.OutOrStdout(), resp, cfg.ShowConfidence)

	if taskApply && resp.ChangeID != "" {
		result, err := client.ApplyChanges(ctx, resp.ChangeID)
		if err != nil {
			return fmt.Errorf("apply changes: %w", err)
		}
		if !result.Success {
			return fmt.Errorf("apply changes: %s", result.Message)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Changes applied successfully!")
	}
	return nil
}

func printResponse(out io.Writer, resp *types.TaskResponse, showConfidence bool) {
	if resp.Narrative != "" {
		fmt.Fprintln(out, resp.Narrative)
	}
	for _, ch := range resp.Changes {
		marker := "~"
		if ch.IsNewFile {
			marker = "+"
		}
		fmt.Fprintf(out, "  %s %s (+%d -%d)\n", marker, ch.File, ch.LinesAdded, ch.LinesRemoved)
	}
	for _, rec := range resp.Recommendations {
		fmt.Fprintf(out, "  hint: %s\n", rec)
	}
	if showConfidence && resp.Confidence != nil {
		fmt.Fprintf(out, "  confidence: %.0f%%\n", *resp.Confidence*100)
	}
	if resp.ChangeID != "" {
		fmt.Fprintf(out, "  change set: %s\n", resp.ChangeID)
	}
}
