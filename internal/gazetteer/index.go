package gazetteer

import (
	"strings"
	"unicode/utf8"

	"github.com/couchcryptid/water-advisory-service/internal/domain"
)

// MinQueryLength is the shortest query that triggers a search. Shorter
// queries produce noisy single-letter matches.
const MinQueryLength = 3

// Index is a linear-scan search index over an immutable gazetteer.
// It is safe for concurrent use.
type Index struct {
	entries []domain.WaterBody
	names   []string // lower-cased names, parallel to entries
	byName  map[string]int
}

// NewIndex builds an index. The slice is copied; declaration order is kept.
func NewIndex(entries []domain.WaterBody) *Index {
	idx := &Index{
		entries: make([]domain.WaterBody, len(entries)),
		names:   make([]string, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	copy(idx.entries, entries)
	for i, wb := range idx.entries {
		idx.names[i] = strings.ToLower(wb.Name)
		idx.byName[normalize(wb.Name)] = i
	}
	return idx
}

// Search returns the entries whose name or type contains query,
// case-insensitively, in declaration order. Queries below MinQueryLength are
// not issued.
func (idx *Index) Search(query string) domain.SearchOutcome {
	if utf8.RuneCountInString(query) < MinQueryLength {
		return domain.SearchOutcome{Query: query, Results: []domain.SearchResult{}}
	}

	needle := strings.ToLower(query)
	results := make([]domain.SearchResult, 0)
	for i, wb := range idx.entries {
		if strings.Contains(idx.names[i], needle) || strings.Contains(string(wb.Type), needle) {
			results = append(results, domain.SearchResult{Rank: len(results) + 1, WaterBody: wb})
		}
	}
	return domain.SearchOutcome{Query: query, Issued: true, Results: results}
}

// Lookup finds an entry by exact name, ignoring case and surrounding space.
func (idx *Index) Lookup(name string) (domain.WaterBody, bool) {
	i, ok := idx.byName[normalize(name)]
	if !ok {
		return domain.WaterBody{}, false
	}
	return idx.entries[i], true
}

// All returns a copy of every entry in declaration order.
func (idx *Index) All() []domain.WaterBody {
	out := make([]domain.WaterBody, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Len reports the number of entries.
func (idx *Index) Len() int { return len(idx.entries) }
