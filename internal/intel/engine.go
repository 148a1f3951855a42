// Package intel is the façade over the intelligence core: it owns the open
// document set, drives the oracle on text changes, maintains the symbol
// cache, and answers every position query the presentation layers issue.
package intel

import (
	"context"
	"fmt"
	"sync"

	"github.com/vcltools/vci/internal/oracle"
	"github.com/vcltools/vci/internal/ranges"
	"github.com/vcltools/vci/internal/refs"
	"github.com/vcltools/vci/internal/rename"
	"github.com/vcltools/vci/internal/semtok"
	"github.com/vcltools/vci/internal/symbols"
	"github.com/vcltools/vci/internal/textdoc"
	"github.com/vcltools/vci/internal/types"
	"github.com/vcltools/vci/internal/vast"
)

// snapshot is the immutable per-document state queries read: the text
// buffer, the last tree (nil after a failed parse), and diagnostics. A
// reparse builds a fresh snapshot and swaps the pointer; in-flight readers
// keep whatever they grabbed.
type snapshot struct {
	doc         *textdoc.Document
	program     *vast.Program
	diagnostics []types.Diagnostic
}

// Engine coordinates documents, parses, and queries. One writer (whoever
// calls Open/Change/Close) mutates the document set; queries only read.
type Engine struct {
	oracle oracle.Oracle

	mu   sync.RWMutex
	docs map[string]*snapshot

	symbols *symbols.Store
}

// NewEngine returns an engine parsing through the given oracle.
func NewEngine(o oracle.Oracle) *Engine {
	return &Engine{
		oracle:  o,
		docs:    make(map[string]*snapshot),
		symbols: symbols.NewStore(),
	}
}

// Open registers a document and parses it.
func (e *Engine) Open(ctx context.Context, uri string, version int, text string) error {
	doc := textdoc.New(uri, version, text)
	return e.reparse(ctx, doc)
}

// Change applies one content change (nil rng replaces the whole text) and
// reparses. Unknown URIs are an error: the caller lost track of its opens.
func (e *Engine) Change(ctx context.Context, uri string, version int, rng *types.Range, text string) error {
	e.mu.RLock()
	snap := e.docs[uri]
	e.mu.RUnlock()
	if snap == nil {
		return fmt.Errorf("change for unopened document %s", uri)
	}
	// Patch a copy so readers of the published snapshot never observe a
	// half-applied edit.
	doc := textdoc.New(uri, version, snap.doc.Content())
	doc.ApplyChange(rng, text, version)
	return e.reparse(ctx, doc)
}

// Close evicts a document and its cached symbols.
func (e *Engine) Close(uri string) {
	e.mu.Lock()
	delete(e.docs, uri)
	e.mu.Unlock()
	e.symbols.Remove(uri)
}

// reparse runs the oracle and publishes a fresh snapshot plus symbol table.
// A failed parse publishes a nil tree and an empty symbol list: the
// document is symbol-free until the next successful parse.
func (e *Engine) reparse(ctx context.Context, doc *textdoc.Document) error {
	res, err := e.oracle.Parse(ctx, doc.Bytes(), oracle.ParseOptions{FileName: doc.URI})
	if err != nil {
		return fmt.Errorf("parse %s: %w", doc.URI, err)
	}

	snap := &snapshot{doc: doc, program: res.Program, diagnostics: res.Diagnostics}
	syms := symbols.Build(doc, res.Program)

	e.mu.Lock()
	e.docs[doc.URI] = snap
	e.mu.Unlock()
	e.symbols.Update(doc.URI, doc.Version, doc.Hash(), syms)
	return nil
}

func (e *Engine) get(uri string) *snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.docs[uri]
}

func (e *Engine) resolver(snap *snapshot) *refs.Resolver {
	var syms []types.Symbol
	if entry := e.symbols.Get(snap.doc.URI); entry != nil {
		syms = entry.Symbols
	}
	return &refs.Resolver{Doc: snap.doc, Program: snap.program, Symbols: syms}
}

// Diagnostics returns the latest parse findings for a document.
func (e *Engine) Diagnostics(uri string) []types.Diagnostic {
	snap := e.get(uri)
	if snap == nil {
		return nil
	}
	return snap.diagnostics
}

// Text returns the current content of an open document, with ok=false for
// unknown URIs.
func (e *Engine) Text(uri string) (string, bool) {
	snap := e.get(uri)
	if snap == nil {
		return "", false
	}
	return snap.doc.Content(), true
}

// Definition resolves the declaration site of whatever is under pos.
func (e *Engine) Definition(uri string, pos types.Position) *types.Location {
	snap := e.get(uri)
	if snap == nil {
		return nil
	}
	return e.resolver(snap).Definition(pos)
}

// References lists every occurrence of the entity under pos.
func (e *Engine) References(uri string, pos types.Position, includeDeclaration bool) []types.Location {
	snap := e.get(uri)
	if snap == nil {
		return nil
	}
	return e.resolver(snap).References(pos, includeDeclaration)
}

// Highlights returns same-document occurrences tagged read/write for cursor
// highlighting.
func (e *Engine) Highlights(uri string, pos types.Position) []refs.Highlight {
	snap := e.get(uri)
	if snap == nil {
		return nil
	}
	return e.resolver(snap).Highlights(pos)
}

// PrepareRename validates the position for an inline rename.
func (e *Engine) PrepareRename(uri string, pos types.Position) *rename.Prepared {
	snap := e.get(uri)
	if snap == nil {
		return nil
	}
	eng := rename.Engine{Resolver: e.resolver(snap)}
	return eng.Prepare(pos)
}

// Rename computes the full edit set renaming the entity under pos.
func (e *Engine) Rename(uri string, pos types.Position, newName string) *types.WorkspaceEdit {
	snap := e.get(uri)
	if snap == nil {
		return nil
	}
	eng := rename.Engine{Resolver: e.resolver(snap)}
	return eng.Rename(pos, newName)
}

// DocumentSymbols returns the hierarchical outline.
func (e *Engine) DocumentSymbols(uri string) []types.Symbol {
	if entry := e.symbols.Get(uri); entry != nil {
		return entry.Symbols
	}
	return nil
}

// WorkspaceSymbols answers a workspace-wide symbol query across every open
// or indexed document.
func (e *Engine) WorkspaceSymbols(query string, limit int) []types.SymbolInformation {
	return e.symbols.Search(query, limit)
}

// FoldingRanges computes the document's foldable line ranges.
func (e *Engine) FoldingRanges(uri string) []types.FoldingRange {
	snap := e.get(uri)
	if snap == nil {
		return nil
	}
	return ranges.Folding(snap.doc, snap.program)
}

// SelectionRanges builds one expand-selection chain per input position.
func (e *Engine) SelectionRanges(uri string, positions []types.Position) []*types.SelectionRange {
	snap := e.get(uri)
	if snap == nil {
		return nil
	}
	return ranges.SelectionAll(snap.doc, snap.program, positions)
}

// SemanticTokens classifies the whole document and returns the encoded
// delta stream.
func (e *Engine) SemanticTokens(uri string) []uint32 {
	snap := e.get(uri)
	if snap == nil {
		return nil
	}
	return semtok.Encode(semtok.Classify(snap.program))
}

// DocumentCount reports how many documents the engine currently tracks.
func (e *Engine) DocumentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}
