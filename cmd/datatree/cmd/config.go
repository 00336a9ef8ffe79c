package cmd

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/datatree/datatree/pkg/dlogger"
)

// CLIConfig describes the CLI configuration.
type CLIConfig struct {
	// field names must match the serialized names so viper finds them
	LogLevel  string `json:"loglevel" yaml:"loglevel"`   // default logging level
	Output    string `json:"output" yaml:"output"`       // default output mode
	Untracked string `json:"untracked" yaml:"untracked"` // default untracked reporting mode
	AddMode   string `json:"addmode" yaml:"addmode"`     // default staging mode for save
}

func newConfig() (*CLIConfig, error) {
	var config CLIConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings no command could honor.
func (c *CLIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.In(
			"", dlogger.LogLevelNone, "error", "warn", dlogger.LogLevelInfo, dlogger.LogLevelDebug)),
		validation.Field(&c.Output, validation.In("", outputPlain, outputJSON)),
		validation.Field(&c.Untracked, validation.In("", "all", "normal", "no")),
		validation.Field(&c.AddMode, validation.In("", "auto", "git", "annex")),
	)
}

// setDatatreeFlags fills flags left unset from the configuration file.
func (c *CLIConfig) setDatatreeFlags(flags *flagsT) {
	if flags.root.logLevel == "" {
		flags.root.logLevel = c.LogLevel
	}
	if flags.root.output == "" {
		flags.root.output = c.Output
	}
	if flags.status.untracked == "" {
		flags.status.untracked = c.Untracked
	}
	if flags.save.mode == "" {
		flags.save.mode = c.AddMode
	}
}
