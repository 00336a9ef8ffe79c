// Copyright © 2024 Datatree Authors

package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/datatree/datatree/pkg/dataset"
	"github.com/datatree/datatree/pkg/model"
)

var saveCmd = &cobra.Command{
	Use:   "save [paths...]",
	Short: "Record the state of a dataset",
	Long: `Records modified, added and deleted content in a new commit.
Without paths the whole dataset is swept; with paths only the named
content is recorded.

With --recursive, modified subdatasets are saved first and the updated
links are recorded in their superdataset, bottom up.
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

		mode, err := datatreeFlags.addMode()
		if err != nil {
			wrapFatalln("save", err)
			return
		}

		message := datatreeFlags.save.message
		if datatreeFlags.save.messageFile != "" {
			if message != "" {
				wrapFatalln("both a message and a message file were specified", nil)
				return
			}
			raw, err := os.ReadFile(datatreeFlags.save.messageFile)
			if err != nil {
				wrapFatalln("read message file", err)
				return
			}
			message = string(raw)
		}

		results, err := ds.Save(ctx, dataset.SaveRequest{
			Message:        message,
			Paths:          cwdAbsPaths(args),
			Mode:           mode,
			Untracked:      model.UntrackedMode(datatreeFlags.status.untracked),
			Recursive:      datatreeFlags.recursion.recursive,
			RecursionLimit: datatreeFlags.recursion.limit,
			Version:        datatreeFlags.save.version,
		})
		renderResults(&datatreeFlags, results)
		if err != nil {
			wrapFatalln("save", err)
			return
		}
		for _, res := range results {
			if res.Action == model.ActionSave && res.Status == model.ResultNotNeeded && res.Path == ds.Path() {
				infoLogger.Println("nothing to save, working tree clean")
				break
			}
		}
	},
}

func init() {
	addMessageFlag(saveCmd, &datatreeFlags.save.message)
	addMessageFileFlag(saveCmd)
	addAddModeFlag(saveCmd)
	addVersionTagFlag(saveCmd)
	addUntrackedFlag(saveCmd)
	addRecursiveFlag(saveCmd)
	addRecursionLimitFlag(saveCmd)

	rootCmd.AddCommand(saveCmd)
}
