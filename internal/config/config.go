// Package config loads puremark configuration from .puremark.kdl or
// .puremark.toml, with a global base config merged under the project one.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/standardbeagle/puremark/internal/purity"
)

type Config struct {
	Project  Project
	Include  []string
	Exclude  []string
	Denylist DenylistConfig
	Workers  int // 0 = auto-detect (NumCPU)
	Verify   bool
	Watch    Watch
}

type Project struct {
	Root string
	Name string
}

// DenylistConfig is the only classification-affecting option. Replace
// swaps out the built-in helper set entirely; Extend adds to whatever the
// base set is. UseDefaults false drops the built-ins without replacing.
type DenylistConfig struct {
	Extend      []string
	Replace     []string
	UseDefaults bool
}

type Watch struct {
	DebounceMs int
}

// Resolve builds the immutable denylist this configuration describes.
func (d DenylistConfig) Resolve() purity.Denylist {
	var base purity.Denylist
	switch {
	case len(d.Replace) > 0:
		base = purity.NewDenylist(d.Replace...)
	case d.UseDefaults:
		base = purity.DefaultDenylist()
	default:
		base = purity.NewDenylist()
	}
	if len(d.Extend) > 0 {
		base = base.Extend(d.Extend...)
	}
	return base
}

// Default returns the configuration used when no config file exists.
func Default(root string) *Config {
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}
		root = cwd
	}
	return &Config{
		Project: Project{Root: root},
		Include: []string{},
		Exclude: []string{
			"**/.git/**",
			"**/node_modules/**",
			"**/bower_components/**",
			"**/vendor/**",
			"**/dist/**",
			"**/build/**",
			"**/out/**",
			"**/*.min.js",
			"**/*.bundle.js",
			"**/*.d.ts",
		},
		Denylist: DenylistConfig{UseDefaults: true},
		Workers:  runtime.NumCPU(),
		Verify:   false,
		Watch:    Watch{DebounceMs: 300},
	}
}

// Load resolves configuration for a project directory. A global base config
// from the user's home directory is merged under the project config; project
// settings win but base exclusions are preserved.
func Load(projectRoot string) (*Config, error) {
	searchDir := projectRoot
	if searchDir == "" {
		searchDir = "."
	}

	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil {
		if globalCfg, err := loadProjectConfig(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	projectConfig, err := loadProjectConfig(searchDir)
	if err != nil {
		return nil, err
	}

	switch {
	case baseConfig != nil && projectConfig != nil:
		return mergeConfigs(baseConfig, projectConfig), nil
	case projectConfig != nil:
		return projectConfig, nil
	case baseConfig != nil:
		baseConfig.Project.Root = searchDir
		return baseConfig, nil
	}

	return Default(searchDir), nil
}

// LoadFile loads one explicit config file, dispatching on extension. A
// relative project root inside the file resolves against the file's
// directory.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg *Config
	if filepath.Ext(path) == ".toml" {
		cfg, err = parseTOML(content)
	} else {
		cfg, err = parseKDL(string(content))
	}
	if err != nil {
		return nil, err
	}
	normalizeRoot(cfg, filepath.Dir(path))
	return cfg, nil
}

// loadProjectConfig reads the config file in dir, KDL first, TOML second.
func loadProjectConfig(dir string) (*Config, error) {
	kdlPath := filepath.Join(dir, ".puremark.kdl")
	if _, err := os.Stat(kdlPath); err == nil {
		content, err := os.ReadFile(kdlPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", kdlPath, err)
		}
		cfg, err := parseKDL(string(content))
		if err != nil {
			return nil, err
		}
		normalizeRoot(cfg, dir)
		return cfg, nil
	}

	tomlPath := filepath.Join(dir, ".puremark.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		content, err := os.ReadFile(tomlPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", tomlPath, err)
		}
		cfg, err := parseTOML(content)
		if err != nil {
			return nil, err
		}
		normalizeRoot(cfg, dir)
		return cfg, nil
	}

	return nil, nil
}

// normalizeRoot makes the project root absolute, resolving relative roots
// against the directory holding the config file.
func normalizeRoot(cfg *Config, dir string) {
	if cfg == nil {
		return
	}
	if cfg.Project.Root == "" {
		if abs, err := filepath.Abs(dir); err == nil {
			cfg.Project.Root = abs
		} else {
			cfg.Project.Root = dir
		}
		return
	}
	if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Clean(filepath.Join(dir, cfg.Project.Root))
	}
}

// mergeConfigs merges a base config with a project config. The project
// config takes precedence, but base exclusions and denylist extensions are
// combined rather than replaced.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Exclude) > 0 {
		excludeMap := make(map[string]bool)
		for _, pattern := range base.Exclude {
			excludeMap[pattern] = true
		}
		for _, pattern := range project.Exclude {
			excludeMap[pattern] = true
		}
		merged.Exclude = make([]string, 0, len(excludeMap))
		for _, pattern := range append(base.Exclude, project.Exclude...) {
			if excludeMap[pattern] {
				merged.Exclude = append(merged.Exclude, pattern)
				excludeMap[pattern] = false
			}
		}
	}

	if len(project.Include) == 0 && len(base.Include) > 0 {
		merged.Include = base.Include
	}

	if len(base.Denylist.Extend) > 0 {
		merged.Denylist.Extend = append(append([]string{}, base.Denylist.Extend...), project.Denylist.Extend...)
	}

	return &merged
}
