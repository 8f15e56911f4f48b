package pipeline

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/internal/models"
)

func TestArrayMove(t *testing.T) {
	cases := []struct {
		from, to int
		want     []string
	}{
		{from: 2, to: 0, want: []string{"C", "A", "B"}},
		{from: 0, to: 2, want: []string{"B", "C", "A"}},
		{from: 0, to: 1, want: []string{"B", "A", "C"}},
		{from: 1, to: 1, want: []string{"A", "B", "C"}},
	}
	in := []string{"A", "B", "C"}
	for _, tc := range cases {
		got, err := ArrayMove(in, tc.from, tc.to)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "move %d -> %d", tc.from, tc.to)
	}
	assert.Equal(t, []string{"A", "B", "C"}, in, "input must stay untouched")
}

func TestArrayMove_OutOfRange(t *testing.T) {
	_, err := ArrayMove([]string{"A"}, 0, 3)
	require.ErrorIs(t, err, models.ErrInvalidOrdering)
}

func TestReorderWithinStage_Scenario(t *testing.T) {
	got := ReorderWithinStage([]string{"C", "A", "B"})
	want := map[string]float64{"C": 1, "A": 2, "B": 3}
	require.Len(t, got, 3)
	for _, a := range got {
		assert.Equal(t, want[a.LeadID], a.NewSortOrder)
	}
}

func TestReorderWithinStage_TotalOrder(t *testing.T) {
	ids := []string{"l7", "l2", "l9", "l1", "l5"}
	assignments := ReorderWithinStage(ids)
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].NewSortOrder < assignments[j].NewSortOrder })
	var got []string
	for _, a := range assignments {
		got = append(got, a.LeadID)
	}
	assert.Equal(t, ids, got)
}

func TestCheckPermutation(t *testing.T) {
	leads := []models.Lead{{ID: "A"}, {ID: "B"}}
	assert.NoError(t, CheckPermutation(leads, []string{"B", "A"}))
	assert.ErrorIs(t, CheckPermutation(leads, []string{"A"}), models.ErrInvalidOrdering)
	assert.ErrorIs(t, CheckPermutation(leads, []string{"A", "A"}), models.ErrInvalidOrdering)
	assert.ErrorIs(t, CheckPermutation(leads, []string{"A", "Z"}), models.ErrInvalidOrdering)
}

func TestAppendPosition(t *testing.T) {
	leads := []models.Lead{
		{ID: "a", Stage: "base", SortOrder: 1},
		{ID: "b", Stage: "base", SortOrder: 7.5},
		{ID: "c", Stage: "qualificado", SortOrder: 40},
	}
	assert.Equal(t, 8.5, AppendPosition(leads, "base"))
	assert.Equal(t, 1.0, AppendPosition(leads, "contatando"))
	for _, l := range leads {
		if l.Stage == "qualificado" {
			assert.Greater(t, AppendPosition(leads, "qualificado"), l.SortOrder)
		}
	}
}

func TestSortLeads_TiesByID(t *testing.T) {
	leads := []models.Lead{{ID: "b", SortOrder: 1}, {ID: "a", SortOrder: 1}, {ID: "c", SortOrder: 0}}
	SortLeads(leads)
	assert.Equal(t, "c", leads[0].ID)
	assert.Equal(t, "a", leads[1].ID)
	assert.Equal(t, "b", leads[2].ID)
}
