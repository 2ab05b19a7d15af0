package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/beam-dev/beam/internal/beamapi"
	"github.com/beam-dev/beam/internal/config"
	"github.com/beam-dev/beam/internal/diff"
	"github.com/beam-dev/beam/internal/editor"
)

var (
	diffDir   string
	diffLocal bool
)

var diffCmd = &cobra.Command{
	Use:   "diff <change-id> <file>",
	Short: "Show the diff of one file in a change set",
	Long: `Show a diff. By default the structured diff is fetched from the Beam
agent for a change set. With --local the two arguments are files on disk
and the diff is computed locally.

Examples:
  beam diff 01J8ZC3N main.go
  beam diff --local main.go.orig main.go`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&diffDir, "directory", "", "Working directory")
	diffCmd.Flags().BoolVar(&diffLocal, "local", false, "Compare two local files instead of querying the agent")
}

func runDiff(cmd *cobra.Command, args []string) error {
	surface := editor.NewTermSurface(cmd.OutOrStdout())

	if diffLocal {
		before, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		after, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		d, _, _ := diff.Compute(args[1], string(before), string(after))
		return surface.ShowDiff(d)
	}

	workDir, err := GetWorkDir(diffDir)
	if err != nil {
		return err
	}
	cfg, err := config.Load(workDir)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	d, err := beamapi.NewClient(cfg.APIURL).GetDiff(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	return surface.ShowDiff(*d)
}
