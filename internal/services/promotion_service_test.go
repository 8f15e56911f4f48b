package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/internal/models"
	"leadflow/internal/pipeline"
)

func newPromotionService(f *fixture) *PromotionService {
	promoter := pipeline.NewPromoter(pipeline.PromotionConfig{
		EarlyStages:     []string{"base", "lead_mapeado"},
		TargetStage:     "contatando",
		BulkSourceStage: "base",
		BulkTargetStage: "lead_mapeado",
	})
	return NewPromotionService(f.leads, f.transitions, promoter, nopLog)
}

func TestOnMessageSent(t *testing.T) {
	withEmail := lead("E", "lead_mapeado", 1)
	withEmail.Email = "e@example.com"
	noEmail := lead("N", "base", 1)
	late := lead("Q", "qualificado", 1)
	f := newFixture(withEmail, noEmail, late)
	svc := newPromotionService(f)
	ctx := context.Background()

	res, advanced, err := svc.OnMessageSent(ctx, ws, "E")
	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, "contatando", res.Lead.Stage)
	assert.Equal(t, "contatando", f.leads.get("E").Stage)

	// automation goes through the same validation as a manual move
	res, advanced, err = svc.OnMessageSent(ctx, ws, "N")
	require.NoError(t, err)
	assert.False(t, advanced)
	assert.False(t, res.OK)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "email", res.Errors[0].Field)
	assert.Equal(t, "base", f.leads.get("N").Stage)

	res, advanced, err = svc.OnMessageSent(ctx, ws, "Q")
	require.NoError(t, err)
	assert.False(t, advanced)
	assert.True(t, res.OK)
	assert.Equal(t, "qualificado", f.leads.get("Q").Stage)

	_, _, err = svc.OnMessageSent(ctx, ws, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPromoteEligible(t *testing.T) {
	full := lead("A", "base", 1)
	full.Company, full.Email = "ACME", "a@acme.io"
	viaPhone := lead("B", "base", 2)
	viaPhone.Position, viaPhone.Phone = "CEO", "119"
	noContact := lead("C", "base", 3)
	noContact.Company = "ACME"
	noName := lead("D", "base", 4)
	noName.Name, noName.Company, noName.Email = "", "ACME", "d@acme.io"
	elsewhere := lead("E", "contatando", 1)
	elsewhere.Company, elsewhere.Email = "ACME", "e@acme.io"

	f := newFixture(full, viaPhone, noContact, noName, elsewhere)
	out, err := newPromotionService(f).PromoteEligible(context.Background(), ws)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, out.Promoted)
	assert.Equal(t, []string{"C", "D"}, out.Skipped)
	assert.Empty(t, out.Failed)
	assert.Equal(t, "lead_mapeado", f.leads.get("A").Stage)
	assert.Equal(t, "lead_mapeado", f.leads.get("B").Stage)
	assert.Equal(t, "base", f.leads.get("C").Stage)
	assert.Equal(t, "contatando", f.leads.get("E").Stage)
}

func TestPromoteEligible_ReportsValidationFailures(t *testing.T) {
	l := lead("A", "base", 1)
	l.Company, l.Email = "ACME", "a@acme.io"
	f := newFixture(l)
	require.NoError(t, f.ruleSvc.ReplaceRules(context.Background(), ws, []models.ValidationRule{
		{Field: "linkedin", AppliesToStages: []string{"lead_mapeado"}},
	}))

	out, err := newPromotionService(f).PromoteEligible(context.Background(), ws)
	require.NoError(t, err)
	assert.Empty(t, out.Promoted)
	require.Contains(t, out.Failed, "A")
	assert.Equal(t, "linkedin", out.Failed["A"][0].Field)
}

type stubTransitioner struct {
	calls int
	fn    func(req models.TransitionRequest) (models.TransitionResult, error)
}

func (s *stubTransitioner) RequestTransition(_ context.Context, _ string, req models.TransitionRequest) (models.TransitionResult, error) {
	s.calls++
	return s.fn(req)
}

func TestPromoteEligible_StopsOnInfrastructureError(t *testing.T) {
	a, b := lead("A", "base", 1), lead("B", "base", 2)
	for _, l := range []*models.Lead{&a, &b} {
		l.Company, l.Email = "ACME", "x@acme.io"
	}
	f := newFixture(a, b)
	boom := errors.New("db down")
	stub := &stubTransitioner{fn: func(req models.TransitionRequest) (models.TransitionResult, error) {
		if req.LeadID == "A" {
			return models.TransitionResult{}, models.ErrStageConflict
		}
		return models.TransitionResult{}, boom
	}}
	svc := newPromotionService(f)
	svc.Transitions = stub

	out, err := svc.PromoteEligible(context.Background(), ws)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"A"}, out.Skipped)
	assert.Equal(t, 2, stub.calls)
}
