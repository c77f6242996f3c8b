package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

type tomlConfig struct {
	Project struct {
		Root string `toml:"root"`
		Name string `toml:"name"`
	} `toml:"project"`
	Include  []string `toml:"include"`
	Exclude  []string `toml:"exclude"`
	Denylist struct {
		Extend      []string `toml:"extend"`
		Replace     []string `toml:"replace"`
		UseDefaults *bool    `toml:"use_defaults"`
	} `toml:"denylist"`
	Workers int   `toml:"workers"`
	Verify  *bool `toml:"verify"`
	Watch   struct {
		DebounceMs int `toml:"debounce_ms"`
	} `toml:"watch"`
}

// parseTOML parses .puremark.toml content onto the default configuration.
func parseTOML(content []byte) (*Config, error) {
	var raw tomlConfig
	if err := toml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	cfg := Default("")
	cfg.Project.Root = raw.Project.Root // resolved by the caller against the config dir
	cfg.Project.Name = raw.Project.Name
	cfg.Include = append(cfg.Include, raw.Include...)
	cfg.Exclude = append(cfg.Exclude, raw.Exclude...)
	cfg.Denylist.Extend = raw.Denylist.Extend
	cfg.Denylist.Replace = raw.Denylist.Replace
	if raw.Denylist.UseDefaults != nil {
		cfg.Denylist.UseDefaults = *raw.Denylist.UseDefaults
	}
	if raw.Workers > 0 {
		cfg.Workers = raw.Workers
	}
	if raw.Verify != nil {
		cfg.Verify = *raw.Verify
	}
	if raw.Watch.DebounceMs > 0 {
		cfg.Watch.DebounceMs = raw.Watch.DebounceMs
	}
	return cfg, nil
}
