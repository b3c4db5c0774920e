package gazetteer

import (
	"testing"

	"github.com/couchcryptid/water-advisory-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultIndex(t *testing.T) *Index {
	t.Helper()
	entries, err := Default()
	require.NoError(t, err)
	return NewIndex(entries)
}

func names(outcome domain.SearchOutcome) []string {
	out := make([]string, 0, len(outcome.Results))
	for _, r := range outcome.Results {
		out = append(out, r.WaterBody.Name)
	}
	return out
}

func TestSearch_ShortQueriesAreNotIssued(t *testing.T) {
	idx := defaultIndex(t)

	for _, q := range []string{"", "a", "ab", "Da"} {
		outcome := idx.Search(q)
		assert.False(t, outcome.Issued, "query %q", q)
		assert.Empty(t, outcome.Results, "query %q", q)
	}
}

func TestSearch_SubstringCaseInsensitive(t *testing.T) {
	idx := defaultIndex(t)

	outcome := idx.Search("GANGES")
	assert.True(t, outcome.Issued)
	assert.Equal(t, []string{"Ganges River"}, names(outcome))
	assert.Equal(t, 1, outcome.Results[0].Rank)
}

func TestSearch_DeclarationOrder(t *testing.T) {
	idx := defaultIndex(t)

	assert.Equal(t, []string{"Dal Lake", "Vembanad Lake"}, names(idx.Search("lake")))
	assert.Equal(t, []string{"Mumbai Port", "Kolkata Port", "Chennai Port", "Cochin Port"}, names(idx.Search("Port")))

	outcome := idx.Search("port")
	for i, r := range outcome.Results {
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestSearch_MatchesType(t *testing.T) {
	idx := defaultIndex(t)

	// Neither name contains "sea" in the Bay of Bengal case; the type does.
	assert.Equal(t, []string{"Arabian Sea", "Bay of Bengal"}, names(idx.Search("sea")))
}

func TestSearch_NoResultsIsDistinctFromNotIssued(t *testing.T) {
	idx := defaultIndex(t)

	outcome := idx.Search("Narmada")
	assert.True(t, outcome.Issued)
	assert.NotNil(t, outcome.Results)
	assert.Empty(t, outcome.Results)
}

func TestLookup(t *testing.T) {
	idx := defaultIndex(t)

	wb, ok := idx.Lookup("  dal lake ")
	require.True(t, ok)
	assert.Equal(t, "Dal Lake", wb.Name)

	_, ok = idx.Lookup("Dal")
	assert.False(t, ok)
}

func TestIndex_CopiesInput(t *testing.T) {
	entries := []domain.WaterBody{{Name: "Pulicat Lake", Type: domain.TypeLake}}
	idx := NewIndex(entries)
	entries[0].Name = "mutated"

	assert.Equal(t, "Pulicat Lake", idx.All()[0].Name)
	assert.Equal(t, 1, idx.Len())
}
