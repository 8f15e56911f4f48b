package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/internal/models"
)

func TestRules_FallBackToDefaults(t *testing.T) {
	f := newFixture()
	rules, err := f.ruleSvc.Rules(context.Background(), ws)
	require.NoError(t, err)
	assert.Equal(t, defaultRules, rules)
}

func TestReplaceRules(t *testing.T) {
	f := newFixture(lead("L", "base", 1))
	ctx := context.Background()

	custom := []models.ValidationRule{
		{Field: "cnpj", AppliesToStages: []string{"qualificado"}, Message: "CNPJ obrigatório"},
	}
	require.NoError(t, f.ruleSvc.ReplaceRules(ctx, ws, custom))

	rules, err := f.ruleSvc.Rules(ctx, ws)
	require.NoError(t, err)
	assert.Equal(t, custom, rules)

	errs, err := f.ruleSvc.ValidateLead(ctx, ws, "L", "qualificado")
	require.NoError(t, err)
	assert.Equal(t, []models.ValidationError{{Field: "cnpj", Message: "CNPJ obrigatório"}}, errs)

	// custom field values satisfy custom-field rules
	l := f.leads.leads["L"]
	l.CustomFields = map[string]string{"cnpj": "12.345.678/0001-90"}
	f.leads.leads["L"] = l
	errs, err = f.ruleSvc.ValidateLead(ctx, ws, "L", "qualificado")
	require.NoError(t, err)
	assert.NotNil(t, errs)
	assert.Empty(t, errs)
}

func TestReplaceRules_Rejects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	err := f.ruleSvc.ReplaceRules(ctx, ws, []models.ValidationRule{{Field: "phone", AppliesToStages: []string{"ghost"}}})
	assert.ErrorIs(t, err, models.ErrInvalidRules)

	err = f.ruleSvc.ReplaceRules(ctx, ws, []models.ValidationRule{{Field: "", AppliesToStages: []string{"base"}}})
	assert.ErrorIs(t, err, models.ErrInvalidRules)

	err = f.ruleSvc.ReplaceRules(ctx, ws, []models.ValidationRule{{Field: "phone"}})
	assert.ErrorIs(t, err, models.ErrInvalidRules)
}

func TestValidateLead_NotFound(t *testing.T) {
	f := newFixture(lead("L", "base", 1))
	_, err := f.ruleSvc.ValidateLead(context.Background(), ws, "L", "ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.ruleSvc.ValidateLead(context.Background(), ws, "nope", "base")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
