package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"leadflow/internal/models"
)

// Backend is the server side of the pipeline as seen by the coordinator.
type Backend interface {
	RequestTransition(ctx context.Context, workspaceID string, req models.TransitionRequest) (models.TransitionResult, error)
	ReorderWithinStage(ctx context.Context, workspaceID, stageID string, orderedLeadIDs []string) ([]models.SortAssignment, error)
}

// Outcome is delivered once the backend call behind an optimistic update resolves.
type Outcome struct {
	Result     models.TransitionResult
	Err        error
	RolledBack bool
}

// Coordinator applies drag-and-drop gestures to a local board immediately and
// reconciles them with the backend. Only one gesture may be in flight.
type Coordinator struct {
	mu          sync.Mutex
	workspaceID string
	board       Board
	backend     Backend
	inFlight    bool
	log         zerolog.Logger
}

func NewCoordinator(workspaceID string, board Board, backend Backend, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		workspaceID: workspaceID,
		board:       board.Clone(),
		backend:     backend,
		log:         log.With().Str("workspace_id", workspaceID).Logger(),
	}
}

// Board returns a copy of the current local state.
func (c *Coordinator) Board() Board {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board.Clone()
}

// Reset replaces the local state with fresh server data.
func (c *Coordinator) Reset(board Board) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return models.ErrOperationInFlight
	}
	c.board = board.Clone()
	return nil
}

// Move applies req locally and confirms it with the backend in the background.
// The returned channel yields exactly one Outcome and is then closed.
func (c *Coordinator) Move(ctx context.Context, req models.TransitionRequest) (<-chan Outcome, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, models.ErrOperationInFlight
	}
	snapshot := c.board.Clone()
	next, err := ApplyMove(c.board, req)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.board = next
	c.inFlight = true
	c.mu.Unlock()

	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		res, err := c.backend.RequestTransition(ctx, c.workspaceID, req)
		if err == nil && !res.OK && len(res.Errors) == 0 {
			err = errors.New("transition rejected without reason")
		}
		failed := err != nil || !res.OK
		c.finish(snapshot, failed, func(b Board) Board { return confirmLead(b, res.Lead) })
		if failed {
			c.log.Info().Str("lead_id", req.LeadID).Str("to_stage", req.ToStage).
				Int("validation_errors", len(res.Errors)).AnErr("error", err).
				Msg("optimistic move rolled back")
		}
		out <- Outcome{Result: res, Err: err, RolledBack: failed}
	}()
	return out, nil
}

// Reorder moves the card at index from to index to inside stage and persists
// the resulting full resequencing.
func (c *Coordinator) Reorder(ctx context.Context, stage string, from, to int) (<-chan Outcome, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, models.ErrOperationInFlight
	}
	snapshot := c.board.Clone()
	next, assignments, err := ApplyReorder(c.board, stage, from, to)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.board = next
	c.inFlight = true
	c.mu.Unlock()

	ids := make([]string, len(assignments))
	for i, a := range assignments {
		ids[i] = a.LeadID
	}

	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		saved, err := c.backend.ReorderWithinStage(ctx, c.workspaceID, stage, ids)
		c.finish(snapshot, err != nil, func(b Board) Board { return ApplyAssignments(b, saved) })
		if err != nil {
			c.log.Info().Str("stage", stage).Err(err).Msg("optimistic reorder rolled back")
			out <- Outcome{Err: err, RolledBack: true}
			return
		}
		out <- Outcome{Result: models.TransitionResult{OK: true}}
	}()
	return out, nil
}

// finish restores snapshot on rollback, otherwise lets confirm fold the
// server's answer into the optimistic board.
func (c *Coordinator) finish(snapshot Board, rollback bool, confirm func(Board) Board) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rollback {
		c.board = snapshot
	} else {
		c.board = confirm(c.board)
	}
	c.inFlight = false
}

// confirmLead adopts the stage and sort order the server stored for the lead.
func confirmLead(b Board, lead *models.Lead) Board {
	if lead == nil {
		return b
	}
	next := b.Clone()
	if idx := indexOf(next.Leads, lead.ID); idx >= 0 {
		next.Leads[idx].Stage = lead.Stage
		next.Leads[idx].SortOrder = lead.SortOrder
	}
	return next
}
