// Package oracle defines the contract with the parser/linter that turns VCL
// source into a parse tree plus diagnostics. The tree schema in
// internal/vast is the only thing consumers depend on; where the tree comes
// from (the in-process parser or an external tool's JSON dump) is an
// implementation detail behind the Oracle interface.
package oracle

import (
	"context"

	"github.com/vcltools/vci/internal/types"
	"github.com/vcltools/vci/internal/vast"
)

// ParseOptions carries per-parse hints.
type ParseOptions struct {
	// FileName is a display hint for diagnostics; it does not need to exist
	// on disk.
	FileName string
}

// Result is one parse outcome. Program is nil on unrecoverable syntax
// error; consumers must treat such a document as symbol-free until the next
// successful parse. Diagnostics may be non-empty either way.
type Result struct {
	Program     *vast.Program
	Diagnostics []types.Diagnostic
}

// Oracle produces a fresh tree for every parse. Implementations never
// mutate previously returned trees.
type Oracle interface {
	Parse(ctx context.Context, src []byte, opts ParseOptions) (*Result, error)
}
