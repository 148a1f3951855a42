package symbols

import (
	"sync"

	"github.com/vcltools/vci/internal/types"
)

// Entry is the cached symbol table of one document version. Entries are
// immutable once published; an update builds a fresh entry and swaps it in.
type Entry struct {
	URI     string
	Version int
	Hash    uint64
	Symbols []types.Symbol
	Flat    []types.SymbolInformation
}

// Store caches symbol tables per document URI. One writer (the document
// pipeline) updates it; many readers (query handlers) take snapshots.
// Readers never see a half-built entry because entries are replaced whole
// under the lock, never mutated in place.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*Entry)}
}

// Update publishes a freshly built symbol table for a document. The content
// hash lets callers skip rebuilds for byte-identical content.
func (s *Store) Update(uri string, version int, hash uint64, syms []types.Symbol) {
	entry := &Entry{
		URI:     uri,
		Version: version,
		Hash:    hash,
		Symbols: syms,
		Flat:    Flatten(uri, syms),
	}
	s.mu.Lock()
	s.entries[uri] = entry
	s.mu.Unlock()
}

// Get returns the current entry for a URI, or nil if the document is
// unknown or its last parse failed without a prior success.
func (s *Store) Get(uri string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[uri]
}

// Hash returns the content hash of the cached entry, or 0 when absent.
func (s *Store) Hash(uri string) uint64 {
	if e := s.Get(uri); e != nil {
		return e.Hash
	}
	return 0
}

// Remove drops a document from the cache (file deleted or closed without a
// disk copy).
func (s *Store) Remove(uri string) {
	s.mu.Lock()
	delete(s.entries, uri)
	s.mu.Unlock()
}

// Snapshot returns the current entries in no particular order. The slice is
// fresh; the entries themselves are shared and must not be mutated.
func (s *Store) Snapshot() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

// Len reports how many documents have cached tables.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
