// Package textdoc wraps a mutable source buffer and provides the position
// arithmetic every query algorithm builds on: line/character to offset
// conversion, line extraction, word-under-cursor expansion and the
// brace-matching scan used for block ranges.
package textdoc

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/vcltools/vci/internal/types"
)

// Document is one open text buffer. Content is replaced or patched by the
// single writer that owns the document store; all read accessors operate on
// the current snapshot and perform no allocation beyond their return value.
type Document struct {
	URI     string
	Version int

	content     []byte
	lineOffsets []int // byte offset of each line start
	hash        uint64
}

// New creates a document from its initial content.
func New(uri string, version int, content string) *Document {
	d := &Document{URI: uri, Version: version}
	d.setContent([]byte(content))
	return d
}

func (d *Document) setContent(content []byte) {
	d.content = content
	d.lineOffsets = computeLineOffsets(content)
	d.hash = xxhash.Sum64(content)
}

// computeLineOffsets returns the byte offset of every line start. Index 0 is
// always 0; a line exists after every '\n', including a trailing empty one.
func computeLineOffsets(content []byte) []int {
	offsets := make([]int, 1, 64)
	offsets[0] = 0
	for i, b := range content {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// Content returns the full text.
func (d *Document) Content() string {
	return string(d.content)
}

// Bytes returns the raw buffer. Callers must not mutate it.
func (d *Document) Bytes() []byte {
	return d.content
}

// Hash returns the xxhash of the current content, used as cache identity.
func (d *Document) Hash() uint64 {
	return d.hash
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int {
	return len(d.lineOffsets)
}

// Offset converts a zero-based position to a byte offset, clamping to the
// document bounds.
func (d *Document) Offset(pos types.Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(d.lineOffsets) {
		return len(d.content)
	}
	off := d.lineOffsets[pos.Line] + pos.Character
	lineEnd := d.lineEnd(pos.Line)
	if off > lineEnd {
		off = lineEnd
	}
	if off < d.lineOffsets[pos.Line] {
		off = d.lineOffsets[pos.Line]
	}
	return off
}

// PositionAt converts a byte offset to a zero-based position, clamping to
// the document bounds.
func (d *Document) PositionAt(offset int) types.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.content) {
		offset = len(d.content)
	}
	// Binary search for the last line start <= offset.
	lo, hi := 0, len(d.lineOffsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if d.lineOffsets[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return types.Position{Line: lo, Character: offset - d.lineOffsets[lo]}
}

// lineEnd returns the byte offset just past the last content character of a
// line (excluding the newline and any trailing \r).
func (d *Document) lineEnd(line int) int {
	if line < 0 || line >= len(d.lineOffsets) {
		return len(d.content)
	}
	var end int
	if line+1 < len(d.lineOffsets) {
		end = d.lineOffsets[line+1] - 1 // strip '\n'
	} else {
		end = len(d.content)
	}
	if end > d.lineOffsets[line] && end-1 < len(d.content) && end-1 >= 0 && d.content[end-1] == '\r' {
		end--
	}
	return end
}

// LineAt returns the full text of the given zero-based line, without its
// line terminator. Out-of-range lines yield "".
func (d *Document) LineAt(line int) string {
	if line < 0 || line >= len(d.lineOffsets) {
		return ""
	}
	return string(d.content[d.lineOffsets[line]:d.lineEnd(line)])
}

// Slice returns the text between two positions.
func (d *Document) Slice(r types.Range) string {
	start := d.Offset(r.Start)
	end := d.Offset(r.End)
	if end < start {
		return ""
	}
	return string(d.content[start:end])
}

// ApplyChange applies one incremental edit. A nil rng replaces the whole
// content (full-sync change).
func (d *Document) ApplyChange(rng *types.Range, text string, version int) {
	d.Version = version
	if rng == nil {
		d.setContent([]byte(text))
		return
	}
	start := d.Offset(rng.Start)
	end := d.Offset(rng.End)
	if end < start {
		start, end = end, start
	}
	var b strings.Builder
	b.Grow(len(d.content) - (end - start) + len(text))
	b.Write(d.content[:start])
	b.WriteString(text)
	b.Write(d.content[end:])
	d.setContent([]byte(b.String()))
}
