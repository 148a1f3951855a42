package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// tomlConfig mirrors Config with pointer fields so absent keys leave the
// merged value alone instead of zeroing it.
type tomlConfig struct {
	Project struct {
		Root *string `toml:"root"`
		Name *string `toml:"name"`
	} `toml:"project"`
	Workspace struct {
		Include        []string `toml:"include"`
		Exclude        []string `toml:"exclude"`
		FollowSymlinks *bool    `toml:"follow_symlinks"`
		MaxFileSize    *int64   `toml:"max_file_size"`
		Watch          *bool    `toml:"watch"`
	} `toml:"workspace"`
	Engine struct {
		DebounceMs           *int `toml:"debounce_ms"`
		MaxParallelParses    *int `toml:"max_parallel_parses"`
		WorkspaceSymbolLimit *int `toml:"workspace_symbol_limit"`
	} `toml:"engine"`
	Log struct {
		Path    *string `toml:"path"`
		Verbose *bool   `toml:"verbose"`
	} `toml:"log"`
}

// mergeTOMLFile overlays one TOML file onto cfg. A missing file is not an
// error; a malformed one is.
func mergeTOMLFile(cfg *Config, path string) error {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var tc tomlConfig
	if err := toml.Unmarshal(content, &tc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if tc.Project.Root != nil {
		cfg.Project.Root = *tc.Project.Root
	}
	if tc.Project.Name != nil {
		cfg.Project.Name = *tc.Project.Name
	}
	if len(tc.Workspace.Include) > 0 {
		cfg.Workspace.Include = tc.Workspace.Include
	}
	if len(tc.Workspace.Exclude) > 0 {
		cfg.Workspace.Exclude = tc.Workspace.Exclude
	}
	if tc.Workspace.FollowSymlinks != nil {
		cfg.Workspace.FollowSymlinks = *tc.Workspace.FollowSymlinks
	}
	if tc.Workspace.MaxFileSize != nil {
		cfg.Workspace.MaxFileSize = *tc.Workspace.MaxFileSize
	}
	if tc.Workspace.Watch != nil {
		cfg.Workspace.Watch = *tc.Workspace.Watch
	}
	if tc.Engine.DebounceMs != nil {
		cfg.Engine.DebounceMs = *tc.Engine.DebounceMs
	}
	if tc.Engine.MaxParallelParses != nil {
		cfg.Engine.MaxParallelParses = *tc.Engine.MaxParallelParses
	}
	if tc.Engine.WorkspaceSymbolLimit != nil {
		cfg.Engine.WorkspaceSymbolLimit = *tc.Engine.WorkspaceSymbolLimit
	}
	if tc.Log.Path != nil {
		cfg.Log.Path = *tc.Log.Path
	}
	if tc.Log.Verbose != nil {
		cfg.Log.Verbose = *tc.Log.Verbose
	}
	return nil
}
