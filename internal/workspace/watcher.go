package workspace

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.lsp.dev/uri"

	"github.com/vcltools/vci/internal/config"
	"github.com/vcltools/vci/internal/intel"
)

// Watcher keeps the engine's index in sync with on-disk changes. Events
// are debounced per path: editors produce bursts of writes, and one reparse
// after the quiet period is enough.
type Watcher struct {
	cfg     *config.Config
	engine  *intel.Engine
	scanner *Scanner

	mu       sync.Mutex
	pending  map[string]*time.Timer
	debounce time.Duration
}

// NewWatcher returns a watcher wired to the same engine as the scanner.
func NewWatcher(cfg *config.Config, engine *intel.Engine, scanner *Scanner) *Watcher {
	debounce := time.Duration(cfg.Engine.DebounceMs) * time.Millisecond
	return &Watcher{
		cfg:      cfg,
		engine:   engine,
		scanner:  scanner,
		pending:  make(map[string]*time.Timer),
		debounce: debounce,
	}
}

// Run watches the project tree until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := w.addDirs(fsw); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("workspace: watch error: %v", err)
		}
	}
}

func (w *Watcher) addDirs(fsw *fsnotify.Watcher) error {
	root := w.cfg.Project.Root
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr == nil && rel != "." && w.scanner.excluded(filepath.ToSlash(rel)+"/") {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			log.Printf("workspace: watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) handle(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event) {
	// New directories need their own watch before any file events arrive.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fsw.Add(event.Name); err != nil {
				log.Printf("workspace: watch %s: %v", event.Name, err)
			}
			return
		}
	}

	rel, err := filepath.Rel(w.cfg.Project.Root, event.Name)
	if err != nil || !w.scanner.Matches(filepath.ToSlash(rel)) {
		return
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.cancelPending(event.Name)
		w.engine.Close(string(uri.File(event.Name)))
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
		w.schedule(ctx, event.Name)
	}
}

// schedule arms (or re-arms) the per-path debounce timer.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.reindex(ctx, path)
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) reindex(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		// Removed between the event and the timer firing.
		w.engine.Close(string(uri.File(path)))
		return
	}
	if err := w.engine.Open(ctx, string(uri.File(path)), 0, string(content)); err != nil {
		log.Printf("workspace: reindex %s: %v", path, err)
	}
}
