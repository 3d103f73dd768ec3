package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           int            `yaml:"port"`
	MultipleRanges string         `yaml:"multipleRanges"`
	MaxStreams     int32          `yaml:"maxStreams"`
	Breaker        *ConfigBreaker `yaml:"breaker"`
	Mounts         []ConfigMount  `yaml:"mounts"`
}

type ConfigBreaker struct {
	MaxRequests         uint32        `yaml:"maxRequests"`
	Interval            time.Duration `yaml:"interval"`
	Timeout             time.Duration `yaml:"timeout"`
	ConsecutiveFailures uint32        `yaml:"consecutiveFailures"`
}

// ConfigMount is a source served below Prefix: either a directory or a SQLite
// blob db.
type ConfigMount struct {
	Prefix   string  `yaml:"prefix"`
	Dir      string  `yaml:"dir"`
	DB       string  `yaml:"db"`
	Index    *string `yaml:"index"`
	Dotfiles bool    `yaml:"dotfiles"`
}

func getConfig(filename string) (Config, error) {
	var config Config
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	if err = yaml.Unmarshal(configBytes, &config); err != nil {
		return config, err
	}
	return config, config.validate()
}

func (c Config) validate() error {
	if len(c.Mounts) == 0 {
		return fmt.Errorf("no mounts configured")
	}
	prefixes := make(map[string]bool)
	for i, mount := range c.Mounts {
		if (mount.Dir == "") == (mount.DB == "") {
			return fmt.Errorf("mount %d (%q): exactly one of dir and db is needed", i, mount.Prefix)
		}
		if prefixes[mount.Prefix] {
			return fmt.Errorf("mount %d: duplicate prefix %q", i, mount.Prefix)
		}
		prefixes[mount.Prefix] = true
	}
	return nil
}
