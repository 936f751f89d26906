// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Extract ExtractConfig `toml:"extract"`
	Stats   StatsConfig   `toml:"stats"`
	Log     LogConfig     `toml:"log"`
}

// ExtractConfig maps extraction settings.
type ExtractConfig struct {
	Dataset        *string `toml:"dataset"`
	Solutions      *string `toml:"solutions"`
	DB             *string `toml:"db"`
	Out            *string `toml:"out"`
	Workers        *int    `toml:"workers"`
	IdleMinutes    *int    `toml:"idle-minutes"`
	AttemptTimeout *string `toml:"attempt-timeout"`
}

// StatsConfig maps report settings.
type StatsConfig struct {
	Top  *int    `toml:"top"`
	Term *string `toml:"term"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	Dir   *string `toml:"dir"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
