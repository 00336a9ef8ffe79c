// Copyright © 2024 Datatree Authors

package cmd

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/datatree/datatree/pkg/dataset"
)

var createCmd = &cobra.Command{
	Use:   "create [path]",
	Short: "Create a new dataset",
	Long: `Creates a dataset at the given path (the current directory unless
given). With --dataset pointing at an existing dataset, the new dataset
is registered there as a subdataset.
`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			wrapFatalln("create", err)
			return
		}

		logger, err := datatreeFlags.getLogger()
		if err != nil {
			wrapFatalln("get logger", err)
			return
		}

		var parent *dataset.Dataset
		if datatreeFlags.root.dataset != "" {
			parent, err = dataset.Require(datatreeFlags.root.dataset, dataset.WithLogger(logger))
			if err != nil {
				wrapFatalln("no dataset found", err)
				return
			}
			defer func() {
				_ = parent.Close()
			}()
		}

		ds, results, err := dataset.Create(ctx, dataset.CreateRequest{
			Path:        abs,
			Parent:      parent,
			Name:        datatreeFlags.create.name,
			Description: datatreeFlags.create.description,
			NoAnnex:     datatreeFlags.create.noAnnex,
			Force:       datatreeFlags.create.force,
		}, dataset.WithLogger(logger))
		renderResults(&datatreeFlags, results)
		if err != nil {
			wrapFatalln("create", err)
			return
		}
		_ = ds.Close()
	},
}

func init() {
	addNameFlag(createCmd)
	addDescriptionFlag(createCmd)
	addNoAnnexFlag(createCmd)
	addForceFlag(createCmd)

	rootCmd.AddCommand(createCmd)
}
