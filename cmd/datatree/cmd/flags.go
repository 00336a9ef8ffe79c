// Copyright © 2024 Datatree Authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/datatree/datatree/pkg/dataset"
	"github.com/datatree/datatree/pkg/dlogger"
	"github.com/datatree/datatree/pkg/repo"
)

type flagsT struct {
	root struct {
		dataset   string
		logLevel  string
		output    string
		reportAll bool
	}
	status struct {
		untracked    string
		ignoreSub    string
		annex        bool
		availability bool
	}
	diff struct {
		from string
		to   string
	}
	save struct {
		message     string
		messageFile string
		mode        string
		version     string
	}
	create struct {
		name        string
		description string
		noAnnex     bool
		force       bool
	}
	run struct {
		message    string
		allowDirty bool
	}
	recursion struct {
		recursive bool
		limit     int
	}
}

var datatreeFlags = flagsT{}

func addDatasetFlag(cmd *cobra.Command) string {
	ds := "dataset"
	cmd.PersistentFlags().StringVarP(&datatreeFlags.root.dataset, ds, "d", "",
		"Path to the dataset to operate on. Defaults to the dataset containing the working directory")
	return ds
}

func addLogLevelFlag(cmd *cobra.Command) string {
	loglevel := "loglevel"
	cmd.PersistentFlags().StringVar(&datatreeFlags.root.logLevel, loglevel, "",
		"The logging level. Levels by increasing order of verbosity: none, error, warn, info, debug")
	return loglevel
}

func addOutputFlag(cmd *cobra.Command) string {
	output := "output"
	cmd.PersistentFlags().StringVarP(&datatreeFlags.root.output, output, "o", "",
		"Output mode: plain (one colorized line per result) or json (one object per line)")
	return output
}

func addReportAllFlag(cmd *cobra.Command) string {
	all := "all"
	cmd.PersistentFlags().BoolVar(&datatreeFlags.root.reportAll, all, false,
		"Report clean paths too, not only changes")
	return all
}

func addUntrackedFlag(cmd *cobra.Command) string {
	untracked := "untracked"
	cmd.Flags().StringVar(&datatreeFlags.status.untracked, untracked, "",
		"Untracked reporting mode: all (every file), normal (directories may summarize their content) or no")
	return untracked
}

func addIgnoreSubdatasetsFlag(cmd *cobra.Command) string {
	ignore := "ignore-subdatasets"
	cmd.Flags().StringVar(&datatreeFlags.status.ignoreSub, ignore, "",
		"Subdataset evaluation: no (full probing), other (stop at the first modification) or all (skip dataset links)")
	return ignore
}

func addAnnexFlag(cmd *cobra.Command) string {
	annex := "annex"
	cmd.Flags().BoolVar(&datatreeFlags.status.annex, annex, false,
		"Enrich reports with annex content identity (keys, sizes)")
	return annex
}

func addAvailabilityFlag(cmd *cobra.Command) string {
	availability := "availability"
	cmd.Flags().BoolVar(&datatreeFlags.status.availability, availability, false,
		"Probe local presence of annexed content, implies --annex")
	return availability
}

func addRecursiveFlag(cmd *cobra.Command) string {
	recursive := "recursive"
	cmd.Flags().BoolVarP(&datatreeFlags.recursion.recursive, recursive, "r", false,
		"Recurse into subdatasets")
	return recursive
}

func addRecursionLimitFlag(cmd *cobra.Command) string {
	limit := "recursion-limit"
	cmd.Flags().IntVar(&datatreeFlags.recursion.limit, limit, 0,
		"Maximum subdataset depth for --recursive, zero or less means unbounded")
	return limit
}

func addMessageFlag(cmd *cobra.Command, target *string) string {
	message := "message"
	cmd.Flags().StringVarP(target, message, "m", "",
		"The message describing the recorded change")
	return message
}

func addMessageFileFlag(cmd *cobra.Command) string {
	messageFile := "message-file"
	cmd.Flags().StringVarP(&datatreeFlags.save.messageFile, messageFile, "F", "",
		"Take the commit message from this file")
	return messageFile
}

func addAddModeFlag(cmd *cobra.Command) string {
	mode := "add-mode"
	cmd.Flags().StringVar(&datatreeFlags.save.mode, mode, "",
		"Staging mode for new content: auto (annex when attached), git or annex")
	return mode
}

func addVersionTagFlag(cmd *cobra.Command) string {
	version := "version-tag"
	cmd.Flags().StringVar(&datatreeFlags.save.version, version, "",
		"Tag the saved dataset state")
	return version
}

func addFromFlag(cmd *cobra.Command) string {
	from := "from"
	cmd.Flags().StringVar(&datatreeFlags.diff.from, from, "",
		"The reference revision, defaults to HEAD")
	return from
}

func addToFlag(cmd *cobra.Command) string {
	to := "to"
	cmd.Flags().StringVar(&datatreeFlags.diff.to, to, "",
		"The target revision, defaults to the working tree")
	return to
}

func addNameFlag(cmd *cobra.Command) string {
	name := "name"
	cmd.Flags().StringVar(&datatreeFlags.create.name, name, "",
		"Name of the new dataset, defaults to the directory base name")
	return name
}

func addDescriptionFlag(cmd *cobra.Command) string {
	description := "description"
	cmd.Flags().StringVar(&datatreeFlags.create.description, description, "",
		"Description recorded for the annex location")
	return description
}

func addNoAnnexFlag(cmd *cobra.Command) string {
	noAnnex := "no-annex"
	cmd.Flags().BoolVar(&datatreeFlags.create.noAnnex, noAnnex, false,
		"Create a plain git backed dataset without an annex")
	return noAnnex
}

func addForceFlag(cmd *cobra.Command) string {
	force := "force"
	cmd.Flags().BoolVar(&datatreeFlags.create.force, force, false,
		"Create even into an existing or populated directory")
	return force
}

func addAllowDirtyFlag(cmd *cobra.Command) string {
	allowDirty := "allow-dirty"
	cmd.Flags().BoolVar(&datatreeFlags.run.allowDirty, allowDirty, false,
		"Run even with unsaved changes present")
	return allowDirty
}

func (flags *flagsT) logLevelOrDefault() string {
	if flags.root.logLevel != "" {
		return flags.root.logLevel
	}
	return dlogger.LogLevelInfo
}

func (flags *flagsT) getLogger() (*zap.Logger, error) {
	return dlogger.GetConsoleLogger(flags.logLevelOrDefault())
}

// addMode maps the flag value onto staging modes.
func (flags *flagsT) addMode() (repo.AddMode, error) {
	switch flags.save.mode {
	case "", "auto":
		return repo.AddAuto, nil
	case "git":
		return repo.AddGit, nil
	case "annex":
		return repo.AddAnnex, nil
	default:
		return repo.AddAuto, fmt.Errorf("unknown add mode %q", flags.save.mode)
	}
}

// openDataset locates the dataset commands operate on: the --dataset
// flag when given, otherwise the dataset containing the working
// directory.
func (flags *flagsT) openDataset() (*dataset.Dataset, error) {
	logger, err := flags.getLogger()
	if err != nil {
		return nil, err
	}
	opts := []dataset.Option{dataset.WithLogger(logger)}
	if flags.root.dataset != "" {
		return dataset.Require(flags.root.dataset, opts...)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return dataset.Find(wd, opts...)
}

// cwdAbsPaths resolves positional path arguments against the working
// directory, the dataset layer expects relative paths to be root
// relative.
func cwdAbsPaths(args []string) []string {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			paths = append(paths, arg)
			continue
		}
		paths = append(paths, abs)
	}
	return paths
}
