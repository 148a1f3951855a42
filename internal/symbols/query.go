package symbols

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/vcltools/vci/internal/types"
)

// Search answers a workspace-wide symbol query: case-insensitive substring
// filter across every cached document, ranked by Jaro-Winkler similarity to
// the query so that near-exact names surface first. An empty query returns
// everything up to the limit, in (uri, line) order. limit <= 0 means
// unlimited.
func (s *Store) Search(query string, limit int) []types.SymbolInformation {
	type scored struct {
		info  types.SymbolInformation
		score float32
	}

	lowered := strings.ToLower(query)
	var matches []scored
	for _, entry := range s.Snapshot() {
		for _, info := range entry.Flat {
			if lowered != "" && !strings.Contains(strings.ToLower(info.Name), lowered) {
				continue
			}
			var score float32
			if lowered != "" {
				sim, err := edlib.StringsSimilarity(lowered, strings.ToLower(info.Name), edlib.JaroWinkler)
				if err == nil {
					score = sim
				}
			}
			matches = append(matches, scored{info: info, score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		a, b := matches[i].info, matches[j].info
		if a.Location.URI != b.Location.URI {
			return a.Location.URI < b.Location.URI
		}
		if a.Location.Range.Start != b.Location.Range.Start {
			return a.Location.Range.Start.Before(b.Location.Range.Start)
		}
		return a.Name < b.Name
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]types.SymbolInformation, len(matches))
	for i, m := range matches {
		out[i] = m.info
	}
	return out
}
