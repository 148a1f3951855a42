// Package config loads vci settings. Resolution order, later wins:
// built-in defaults, the global ~/.vci.kdl, the project .vci.kdl, a
// project vci.toml (for teams standardized on TOML), then CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config is the merged settings tree.
type Config struct {
	Project   Project
	Workspace Workspace
	Engine    Engine
	Log       Log
}

type Project struct {
	Root string
	Name string
}

// Workspace controls which files the scanner indexes.
type Workspace struct {
	Include        []string // doublestar globs, relative to root
	Exclude        []string
	FollowSymlinks bool
	MaxFileSize    int64 // bytes; larger files are skipped
	Watch          bool  // reindex on file system changes
}

// Engine tunes the intelligence layer.
type Engine struct {
	DebounceMs           int // quiet period before reparsing after an edit
	MaxParallelParses    int // workers for the initial workspace scan; 0 = NumCPU
	WorkspaceSymbolLimit int // max results per workspace symbol query
}

type Log struct {
	Path    string // empty logs to stderr
	Verbose bool
}

// Default returns the built-in configuration rooted at root.
func Default(root string) *Config {
	return &Config{
		Project: Project{Root: root},
		Workspace: Workspace{
			Include:     []string{"**/*.vcl"},
			Exclude:     []string{"**/node_modules/**", "**/.git/**"},
			MaxFileSize: 4 * 1024 * 1024,
			Watch:       true,
		},
		Engine: Engine{
			DebounceMs:           200,
			MaxParallelParses:    runtime.NumCPU(),
			WorkspaceSymbolLimit: 200,
		},
	}
}

// Load builds the merged configuration for a project root.
func Load(root string) (*Config, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	cfg := Default(abs)

	if home, err := os.UserHomeDir(); err == nil {
		if err := mergeKDLFile(cfg, filepath.Join(home, ".vci.kdl")); err != nil {
			return nil, err
		}
	}
	if err := mergeKDLFile(cfg, filepath.Join(abs, ".vci.kdl")); err != nil {
		return nil, err
	}
	if err := mergeTOMLFile(cfg, filepath.Join(abs, "vci.toml")); err != nil {
		return nil, err
	}

	if cfg.Project.Root == "" {
		cfg.Project.Root = abs
	} else if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Clean(filepath.Join(abs, cfg.Project.Root))
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Engine.DebounceMs < 0 {
		return fmt.Errorf("engine.debounce_ms must be >= 0, got %d", c.Engine.DebounceMs)
	}
	if c.Engine.MaxParallelParses < 0 {
		return fmt.Errorf("engine.max_parallel_parses must be >= 0, got %d", c.Engine.MaxParallelParses)
	}
	if c.Workspace.MaxFileSize <= 0 {
		return fmt.Errorf("workspace.max_file_size must be positive, got %d", c.Workspace.MaxFileSize)
	}
	if len(c.Workspace.Include) == 0 {
		return fmt.Errorf("workspace.include must name at least one glob")
	}
	return nil
}
