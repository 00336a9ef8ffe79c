// Copyright © 2024 Datatree Authors

package cmd

import (
	"context"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/datatree/datatree/pkg/dataset"
	"github.com/datatree/datatree/pkg/errors"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] -- <command> [args...]",
	Short: "Run a command and record the resulting changes",
	Long: `Executes a command in the dataset root and saves whatever it left
behind, with a commit message that embeds a machine readable record of
the invocation.

The worktree must be clean before the run unless --allow-dirty is set,
so the recorded changes are attributable to the command alone. A
failing command saves nothing and this process exits with the command's
exit code.
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if len(args) == 0 {
			wrapFatalln("no command given", nil)
			return
		}
		ds, err := datatreeFlags.openDataset()
		if err != nil {
			wrapFatalln("no dataset found", err)
			return
		}
		defer func() {
			_ = ds.Close()
		}()

		results, err := ds.RunRecord(ctx, dataset.RunRequest{
			Command:    args,
			Message:    datatreeFlags.run.message,
			AllowDirty: datatreeFlags.run.allowDirty,
		})
		renderResults(&datatreeFlags, results)
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				wrapFatalWithCodef(exitErr.ExitCode(), "run: %v", err)
				return
			}
			wrapFatalln("run", err)
			return
		}
	},
}

func init() {
	addMessageFlag(runCmd, &datatreeFlags.run.message)
	addAllowDirtyFlag(runCmd)

	rootCmd.AddCommand(runCmd)
}
