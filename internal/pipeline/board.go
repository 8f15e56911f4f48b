package pipeline

import (
	"fmt"

	"leadflow/internal/models"
)

// Board is a session-local snapshot of a workspace's leads. It is a value:
// reducers return a new Board and never touch the one they were given.
type Board struct {
	Leads []models.Lead
}

func NewBoard(leads []models.Lead) Board {
	return Board{Leads: cloneLeads(leads)}
}

func (b Board) Clone() Board {
	return Board{Leads: cloneLeads(b.Leads)}
}

func (b Board) Lead(id string) (models.Lead, bool) {
	for _, l := range b.Leads {
		if l.ID == id {
			return l.Clone(), true
		}
	}
	return models.Lead{}, false
}

// InStage returns the stage's leads in display order.
func (b Board) InStage(stage string) []models.Lead {
	var out []models.Lead
	for _, l := range b.Leads {
		if l.Stage == stage {
			out = append(out, l.Clone())
		}
	}
	SortLeads(out)
	return out
}

// ApplyMove is the optimistic reducer for a drag that ends on another (or the
// same) column.
func ApplyMove(b Board, req models.TransitionRequest) (Board, error) {
	next := b.Clone()
	idx := indexOf(next.Leads, req.LeadID)
	if idx < 0 {
		return Board{}, fmt.Errorf("lead %q: %w", req.LeadID, models.ErrNotFound)
	}
	lead := &next.Leads[idx]
	if req.FromStage != "" && req.FromStage != lead.Stage {
		return Board{}, fmt.Errorf("lead %q is in %q, not %q: %w", lead.ID, lead.Stage, req.FromStage, models.ErrStageConflict)
	}
	if req.ToStage == lead.Stage {
		if req.RequestedSortOrder != nil {
			lead.SortOrder = *req.RequestedSortOrder
		}
		return next, nil
	}
	sortOrder := AppendPosition(next.Leads, req.ToStage)
	if req.RequestedSortOrder != nil {
		sortOrder = *req.RequestedSortOrder
	}
	lead.Stage = req.ToStage
	lead.SortOrder = sortOrder
	return next, nil
}

// ApplyReorder moves the item at index from to index to within one column and
// re-enumerates the column. It returns the new board and the assignments to persist.
func ApplyReorder(b Board, stage string, from, to int) (Board, []models.SortAssignment, error) {
	column := b.InStage(stage)
	ids := make([]string, len(column))
	for i, l := range column {
		ids[i] = l.ID
	}
	moved, err := ArrayMove(ids, from, to)
	if err != nil {
		return Board{}, nil, err
	}
	assignments := ReorderWithinStage(moved)
	return ApplyAssignments(b, assignments), assignments, nil
}

// ApplyAssignments writes sort orders onto a copy of the board.
func ApplyAssignments(b Board, assignments []models.SortAssignment) Board {
	next := b.Clone()
	for _, a := range assignments {
		if idx := indexOf(next.Leads, a.LeadID); idx >= 0 {
			next.Leads[idx].SortOrder = a.NewSortOrder
		}
	}
	return next
}

func indexOf(leads []models.Lead, id string) int {
	for i := range leads {
		if leads[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneLeads(leads []models.Lead) []models.Lead {
	if leads == nil {
		return nil
	}
	out := make([]models.Lead, len(leads))
	for i, l := range leads {
		out[i] = l.Clone()
	}
	return out
}
