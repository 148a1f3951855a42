// Package rename computes safe rename edit sets on top of the reference
// resolver. It refuses to touch the built-in lifecycle subroutines and
// guarantees the returned edits are pairwise non-overlapping within a
// document.
package rename

import (
	"regexp"

	"github.com/vcltools/vci/internal/refs"
	"github.com/vcltools/vci/internal/types"
)

// protectedSubroutines is the closed set of lifecycle entry points the
// platform invokes by name. Renaming one would orphan the hook, so the
// engine rejects them outright, distinct from "nothing under the cursor",
// which also yields nil but never reaches the protection check.
var protectedSubroutines = map[string]bool{
	"vcl_recv":    true,
	"vcl_hash":    true,
	"vcl_hit":     true,
	"vcl_miss":    true,
	"vcl_pass":    true,
	"vcl_fetch":   true,
	"vcl_error":   true,
	"vcl_deliver": true,
	"vcl_log":     true,
}

// IsProtected reports whether name is a lifecycle subroutine.
func IsProtected(name string) bool {
	return protectedSubroutines[name]
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// Prepared is the advisory answer to a prepare-rename query: the span the
// editor should put its inline rename box around, and its current text.
type Prepared struct {
	Range       types.Range
	Placeholder string
}

// Engine performs rename queries over one document snapshot.
type Engine struct {
	Resolver *refs.Resolver
}

// Prepare validates that the position is renameable without computing the
// edit set. It resolves the entity the same way Rename will, but falls back
// to any identifier-shaped word: prepare is advisory, and a word that later
// fails to resolve simply produces a nil Rename.
func (e *Engine) Prepare(pos types.Position) *Prepared {
	word, span := e.Resolver.Doc.WordSpanAt(pos)
	if word == "" || IsProtected(word) {
		return nil
	}

	if ent := e.Resolver.EntityAt(pos); ent != nil {
		if ent.Category == refs.EntityGlobal && ent.Kind == types.SymbolSubroutine && IsProtected(ent.Name) {
			return nil
		}
		placeholder := ent.Name
		return &Prepared{Range: ent.WordSpan.Range(), Placeholder: placeholder}
	}

	if !identPattern.MatchString(word) {
		return nil
	}
	return &Prepared{Range: span.Range(), Placeholder: word}
}

// Rename resolves the entity under pos and returns one edit per occurrence,
// declaration included, all sharing newName. Returns nil when nothing
// resolves, the target is protected, or the entity already carries newName
// (renaming a name to itself is a no-op, which is what makes rename
// idempotent across repeated application).
func (e *Engine) Rename(pos types.Position, newName string) *types.WorkspaceEdit {
	word := e.Resolver.Doc.WordAt(pos)
	if word == "" || IsProtected(word) {
		return nil
	}

	ent := e.Resolver.EntityAt(pos)
	if ent == nil {
		return nil
	}
	if ent.Category == refs.EntityGlobal && ent.Kind == types.SymbolSubroutine && IsProtected(ent.Name) {
		return nil
	}
	if ent.Name == newName {
		return nil
	}

	occs := e.Resolver.Occurrences(ent, true)
	if len(occs) == 0 {
		return nil
	}

	edits := make([]types.Edit, 0, len(occs))
	for _, occ := range occs {
		edits = append(edits, types.Edit{Range: occ.Span.Range(), NewText: newName})
	}
	return &types.WorkspaceEdit{
		Changes: map[string][]types.Edit{e.Resolver.Doc.URI: edits},
	}
}
