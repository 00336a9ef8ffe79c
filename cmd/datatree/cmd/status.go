// Copyright © 2024 Datatree Authors

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/datatree/datatree/pkg/dataset"
	"github.com/datatree/datatree/pkg/model"
)

var statusCmd = &cobra.Command{
	Use:   "status [paths...]",
	Short: "Report on the state of dataset content",
	Long: `Reports on the state of dataset content: one result per path,
compared against the last recorded state. Only changes print by
default, --all reports clean paths too.

With --recursive, nested datasets report their content as part of the
superdataset.
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

		results, err := ds.Status(ctx, dataset.StatusRequest{
			Paths:            cwdAbsPaths(args),
			Untracked:        model.UntrackedMode(datatreeFlags.status.untracked),
			IgnoreSubmodules: model.IgnoreSubmodules(datatreeFlags.status.ignoreSub),
			Annex:            datatreeFlags.status.annex,
			Availability:     datatreeFlags.status.availability,
			Recursive:        datatreeFlags.recursion.recursive,
			RecursionLimit:   datatreeFlags.recursion.limit,
		})
		renderResults(&datatreeFlags, results)
		if err != nil {
			wrapFatalln("status", err)
			return
		}
	},
}

func init() {
	addUntrackedFlag(statusCmd)
	addIgnoreSubdatasetsFlag(statusCmd)
	addAnnexFlag(statusCmd)
	addAvailabilityFlag(statusCmd)
	addRecursiveFlag(statusCmd)
	addRecursionLimitFlag(statusCmd)

	rootCmd.AddCommand(statusCmd)
}
