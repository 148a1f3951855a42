// Package workspace discovers VCL files under a project root, feeds them to
// the engine, and keeps the index current as files change on disk.
package workspace

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.lsp.dev/uri"
	"golang.org/x/sync/errgroup"

	"github.com/vcltools/vci/internal/config"
	"github.com/vcltools/vci/internal/intel"
)

// Scanner walks the project tree and indexes every matching file.
type Scanner struct {
	cfg    *config.Config
	engine *intel.Engine
}

// NewScanner returns a scanner feeding the given engine.
func NewScanner(cfg *config.Config, engine *intel.Engine) *Scanner {
	return &Scanner{cfg: cfg, engine: engine}
}

// Scan walks the root once and parses matching files in parallel. Files
// that fail to read or parse are logged and skipped; the scan itself only
// fails on context cancellation.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	paths, err := s.discover()
	if err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	workers := s.cfg.Engine.MaxParallelParses
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				log.Printf("workspace: skip %s: %v", path, err)
				return nil
			}
			docURI := string(uri.File(path))
			if err := s.engine.Open(ctx, docURI, 0, string(content)); err != nil {
				log.Printf("workspace: parse %s: %v", path, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(paths), nil
}

// discover lists files under the root matching the include globs and not
// matching the exclude globs, bounded by the size limit.
func (s *Scanner) discover() ([]string, error) {
	root := s.cfg.Project.Root
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("workspace: walk %s: %v", path, err)
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if s.excluded(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 && !s.cfg.Workspace.FollowSymlinks {
			return nil
		}
		if !s.Matches(rel) {
			return nil
		}
		if info, err := d.Info(); err == nil && info.Size() > s.cfg.Workspace.MaxFileSize {
			log.Printf("workspace: skip %s: exceeds size limit", path)
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	return paths, err
}

// Matches reports whether a root-relative slash path is part of the
// workspace per the include/exclude globs.
func (s *Scanner) Matches(rel string) bool {
	if s.excluded(rel) {
		return false
	}
	for _, glob := range s.cfg.Workspace.Include {
		if ok, err := doublestar.Match(glob, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func (s *Scanner) excluded(rel string) bool {
	for _, glob := range s.cfg.Workspace.Exclude {
		if ok, err := doublestar.Match(glob, rel); err == nil && ok {
			return true
		}
		// Directory prefix form: "**/.git/**" should prune ".git/".
		if strings.HasSuffix(rel, "/") {
			if ok, err := doublestar.Match(glob, rel+"x"); err == nil && ok {
				return true
			}
		}
	}
	return false
}
