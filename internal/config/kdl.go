package config

import (
	"fmt"
	"os"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// mergeKDLFile overlays one KDL file onto cfg. A missing file is not an
// error; a malformed one is.
func mergeKDLFile(cfg *Config, path string) error {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := mergeKDL(cfg, string(content)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func mergeKDL(cfg *Config, content string) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return err
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "workspace":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "include":
					if globs := collectStringArgs(cn); len(globs) > 0 {
						cfg.Workspace.Include = globs
					}
				case "exclude":
					if globs := collectStringArgs(cn); len(globs) > 0 {
						cfg.Workspace.Exclude = globs
					}
				case "follow_symlinks":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Workspace.FollowSymlinks = b
					}
				case "max_file_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Workspace.MaxFileSize = int64(v)
					}
				case "watch":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Workspace.Watch = b
					}
				}
			}
		case "engine":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Engine.DebounceMs = v
					}
				case "max_parallel_parses":
					if v, ok := firstIntArg(cn); ok {
						cfg.Engine.MaxParallelParses = v
					}
				case "workspace_symbol_limit":
					if v, ok := firstIntArg(cn); ok {
						cfg.Engine.WorkspaceSymbolLimit = v
					}
				}
			}
		case "log":
			for _, cn := range n.Children {
				assignSimpleString(cn, "path", func(v string) { cfg.Log.Path = v })
				if nodeName(cn) == "verbose" {
					if b, ok := firstBoolArg(cn); ok {
						cfg.Log.Verbose = b
					}
				}
			}
		}
	}
	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	// Block form: include { "a" ; "b" } puts each glob in a child node name.
	for _, cn := range n.Children {
		if name := nodeName(cn); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
