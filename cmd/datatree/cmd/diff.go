// Copyright © 2024 Datatree Authors

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/datatree/datatree/pkg/dataset"
	"github.com/datatree/datatree/pkg/model"
)

var diffCmd = &cobra.Command{
	Use:   "diff [paths...]",
	Short: "Report differences between two dataset states",
	Long: `Reports per path differences between two states of a dataset:
--from (HEAD unless given) and --to (the working tree unless given).

With --recursive, changed dataset links are followed and the nested
changes report against the revision range recorded in the superdataset.
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ds, err := datatreeFlags.openDataset()
		if err != nil {
			wrapFatalln("no dataset found", err)
			return
		}
		defer func() {
			_ = ds.Close()
		}()

		results, err := ds.Diff(ctx, dataset.DiffRequest{
			From:           datatreeFlags.diff.from,
			To:             datatreeFlags.diff.to,
			Paths:          cwdAbsPaths(args),
			Untracked:      model.UntrackedMode(datatreeFlags.status.untracked),
			Recursive:      datatreeFlags.recursion.recursive,
			RecursionLimit: datatreeFlags.recursion.limit,
		})
		renderResults(&datatreeFlags, results)
		if err != nil {
			wrapFatalln("diff", err)
			return
		}
	},
}

func init() {
	addFromFlag(diffCmd)
	addToFlag(diffCmd)
	addUntrackedFlag(diffCmd)
	addRecursiveFlag(diffCmd)
	addRecursionLimitFlag(diffCmd)

	rootCmd.AddCommand(diffCmd)
}
