// Copyright © 2024 Datatree Authors

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "datatree",
	Short: "Datatree versions data the way git versions code",
	Long: `Datatree manages datasets: directory trees whose content is recorded
in git, with large file content handed to git-annex when one is attached.

Datasets nest. Commands report one result per path and operate on the
dataset containing the working directory unless --dataset points
elsewhere.
`,
}

var config *CLIConfig

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addDatasetFlag(rootCmd)
	addLogLevelFlag(rootCmd)
	addOutputFlag(rootCmd)
	addReportAllFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if os.Getenv("DATATREE_CONFIG") != "" {
		// Use config file from the flag.
		viper.SetConfigFile(os.Getenv("DATATREE_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.datatree")
		viper.AddConfigPath("/etc/datatree")
		viper.SetConfigName("datatree")
	}

	viper.SetEnvPrefix("datatree")
	viper.AutomaticEnv() // read in environment variables that match
	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}
	var err error
	config, err = newConfig()
	if err != nil {
		logFatalln(err)
		return
	}
	config.setDatatreeFlags(&datatreeFlags)
}
