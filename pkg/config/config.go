// Package config provides the configuration of the syncer and the command line tool.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	lstrings "github.com/guardiannet/gnlist-engine/pkg/collection/strings"
)

var (
	logLevels             = []string{"debug", "info", "warn", "warning", "error"}
	defaultApplyRateLimit = 100
)

type Config struct {
	// DataPath is the directory of the diff and snapshot database.
	DataPath string `json:"dataPath" yaml:"dataPath"`
	// StrictContinuity rejects a diff whose base block hash is not the current block hash of the list.
	StrictContinuity bool `json:"strictContinuity" yaml:"strictContinuity"`
	// ApplyRateLimit is the maximum number of diffs applied per second.
	ApplyRateLimit int    `json:"applyRateLimit" yaml:"applyRateLimit"`
	LogLevel       string `json:"logLevel" yaml:"logLevel"`
}

// Load reads the config at filePath. Files with .yaml or .yml extension are read as YAML and
// everything else as JSON. Defaults are inserted for the fields which are not set.
func Load(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", filePath, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", filePath, err)
		}
	}
	if err := cfg.InsertDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the config with every default inserted.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.InsertDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) InsertDefault() error {
	if c.DataPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.DataPath = path.Join(home, ".gnlist", "data")
	}
	if c.ApplyRateLimit == 0 {
		c.ApplyRateLimit = defaultApplyRateLimit
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return nil
}

// Merge overwrites the fields which are set in config.
func (c *Config) Merge(config *Config) {
	if config.DataPath != "" {
		c.DataPath = config.DataPath
	}
	if config.StrictContinuity {
		c.StrictContinuity = true
	}
	if config.ApplyRateLimit != 0 {
		c.ApplyRateLimit = config.ApplyRateLimit
	}
	if config.LogLevel != "" {
		c.LogLevel = config.LogLevel
	}
}

func (c Config) Validate() error {
	if !lstrings.ContainFold(logLevels, c.LogLevel) {
		return fmt.Errorf("log level %s is not allowed", c.LogLevel)
	}
	if c.DataPath == "" {
		return errors.New("dataPath cannot be empty")
	}
	if c.ApplyRateLimit < 0 {
		return fmt.Errorf("applyRateLimit must not be negative but received %d", c.ApplyRateLimit)
	}
	return nil
}
