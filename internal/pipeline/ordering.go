package pipeline

import (
	"fmt"
	"sort"

	"leadflow/internal/models"
)

// ArrayMove removes the element at from and reinserts it at to, keeping the
// relative order of everything else. The input slice is not modified.
func ArrayMove[T any](items []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, fmt.Errorf("move %d -> %d out of range [0,%d): %w", from, to, len(items), models.ErrInvalidOrdering)
	}
	out := make([]T, 0, len(items))
	moved := items[from]
	for i, it := range items {
		if i != from {
			out = append(out, it)
		}
	}
	out = append(out, moved)
	copy(out[to+1:], out[to:len(out)-1])
	out[to] = moved
	return out, nil
}

// ReorderWithinStage assigns each lead its 1-based position in orderedLeadIDs.
func ReorderWithinStage(orderedLeadIDs []string) []models.SortAssignment {
	out := make([]models.SortAssignment, len(orderedLeadIDs))
	for i, id := range orderedLeadIDs {
		out[i] = models.SortAssignment{LeadID: id, NewSortOrder: float64(i + 1)}
	}
	return out
}

// CheckPermutation verifies orderedLeadIDs lists exactly the ids in current.
func CheckPermutation(current []models.Lead, orderedLeadIDs []string) error {
	if len(current) != len(orderedLeadIDs) {
		return fmt.Errorf("got %d ids for %d leads: %w", len(orderedLeadIDs), len(current), models.ErrInvalidOrdering)
	}
	want := make(map[string]bool, len(current))
	for _, l := range current {
		want[l.ID] = true
	}
	for _, id := range orderedLeadIDs {
		if !want[id] {
			return fmt.Errorf("lead %q is not in this stage or listed twice: %w", id, models.ErrInvalidOrdering)
		}
		want[id] = false
	}
	return nil
}

// AppendPosition is max(sortOrder)+1 over leads in stage, or 1 for an empty stage.
func AppendPosition(leads []models.Lead, stage string) float64 {
	found := false
	max := 0.0
	for _, l := range leads {
		if l.Stage != stage {
			continue
		}
		if !found || l.SortOrder > max {
			max = l.SortOrder
			found = true
		}
	}
	if !found {
		return 1
	}
	return max + 1
}

// SortLeads orders leads by SortOrder, ties by ID.
func SortLeads(leads []models.Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		if leads[i].SortOrder != leads[j].SortOrder {
			return leads[i].SortOrder < leads[j].SortOrder
		}
		return leads[i].ID < leads[j].ID
	})
}
