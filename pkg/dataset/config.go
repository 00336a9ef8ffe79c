// Copyright © 2024 Datatree Authors

package dataset

import (
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir holds dataset metadata inside the worktree
	ConfigDir = ".datatree"

	// ConfigFile is the dataset configuration path below the root
	ConfigFile = ConfigDir + "/config.yaml"
)

// Config identifies a dataset independently of its location.
type Config struct {
	ID      string    `yaml:"id"`
	Name    string    `yaml:"name,omitempty"`
	Created time.Time `yaml:"created"`
}

// Validate checks the identity invariants of a configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required, is.UUIDv4),
	)
}

func configPath(root string) string {
	return filepath.Join(root, filepath.FromSlash(ConfigFile))
}

func loadConfig(root string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(configPath(root))
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func writeConfig(root string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(root, ConfigDir), 0755); err != nil {
		return err
	}
	return os.WriteFile(configPath(root), data, 0644)
}
