package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"leadflow/internal/models"
	"leadflow/internal/pipeline"
	"leadflow/internal/repositories"
)

var nopLog = zerolog.Nop()

type fakeStageRepo struct {
	mu     sync.Mutex
	stages map[string]models.Stage // key: workspace/id
	leads  *fakeLeadRepo
	err    error
}

func newFakeStageRepo(leads *fakeLeadRepo) *fakeStageRepo {
	return &fakeStageRepo{stages: map[string]models.Stage{}, leads: leads}
}

func stageKey(ws, id string) string { return ws + "/" + id }

func (r *fakeStageRepo) add(stages ...models.Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range stages {
		r.stages[stageKey(s.WorkspaceID, s.ID)] = s
	}
}

func (r *fakeStageRepo) List(_ context.Context, ws string) ([]models.Stage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []models.Stage
	for _, s := range r.stages {
		if s.WorkspaceID == ws {
			out = append(out, s)
		}
	}
	return pipeline.SortStages(out), nil
}

func (r *fakeStageRepo) Get(_ context.Context, ws, id string) (*models.Stage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	s, ok := r.stages[stageKey(ws, id)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &s, nil
}

func (r *fakeStageRepo) Create(_ context.Context, s *models.Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stages[stageKey(s.WorkspaceID, s.ID)]; ok {
		return models.ErrInvalidStage
	}
	var existing []models.Stage
	for _, st := range r.stages {
		if st.WorkspaceID == s.WorkspaceID {
			existing = append(existing, st)
		}
	}
	s.SortOrder = pipeline.NextStageOrder(existing)
	r.stages[stageKey(s.WorkspaceID, s.ID)] = *s
	return nil
}

func (r *fakeStageRepo) Update(_ context.Context, s *models.Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stages[stageKey(s.WorkspaceID, s.ID)]; !ok {
		return models.ErrNotFound
	}
	r.stages[stageKey(s.WorkspaceID, s.ID)] = *s
	return nil
}

func (r *fakeStageRepo) Delete(_ context.Context, ws, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stages, stageKey(ws, id))
	return nil
}

func (r *fakeStageRepo) CountLeads(ctx context.Context, ws, id string) (int, error) {
	if r.leads == nil {
		return 0, nil
	}
	leads, _ := r.leads.ListByStage(ctx, ws, id)
	return len(leads), nil
}

func (r *fakeStageRepo) ReplaceOrder(_ context.Context, ws string, stages []models.Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range stages {
		cur, ok := r.stages[stageKey(ws, s.ID)]
		if !ok {
			return models.ErrNotFound
		}
		cur.SortOrder = s.SortOrder
		r.stages[stageKey(ws, s.ID)] = cur
	}
	return nil
}

func (r *fakeStageRepo) InsertIfMissing(_ context.Context, stages []models.Stage) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range stages {
		k := stageKey(s.WorkspaceID, s.ID)
		if _, ok := r.stages[k]; ok {
			continue
		}
		r.stages[k] = s
		n++
	}
	return n, nil
}

type fakeLeadRepo struct {
	mu        sync.Mutex
	leads     map[string]models.Lead
	mutateErr error
	mutations int
}

func newFakeLeadRepo(leads ...models.Lead) *fakeLeadRepo {
	r := &fakeLeadRepo{leads: map[string]models.Lead{}}
	for _, l := range leads {
		r.leads[l.ID] = l.Clone()
	}
	return r
}

func (r *fakeLeadRepo) get(id string) models.Lead {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leads[id].Clone()
}

func (r *fakeLeadRepo) all(ws string) []models.Lead {
	var out []models.Lead
	for _, l := range r.leads {
		if l.WorkspaceID == ws {
			out = append(out, l.Clone())
		}
	}
	pipeline.SortLeads(out)
	return out
}

func (r *fakeLeadRepo) Create(_ context.Context, l *models.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.SortOrder = pipeline.AppendPosition(r.all(l.WorkspaceID), l.Stage)
	r.leads[l.ID] = l.Clone()
	return nil
}

func (r *fakeLeadRepo) GetByID(_ context.Context, ws, id string) (*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok || l.WorkspaceID != ws {
		return nil, models.ErrNotFound
	}
	c := l.Clone()
	return &c, nil
}

func (r *fakeLeadRepo) ListByWorkspace(_ context.Context, ws string) ([]models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.all(ws), nil
}

func (r *fakeLeadRepo) ListByStage(_ context.Context, ws, stage string) ([]models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Lead
	for _, l := range r.all(ws) {
		if l.Stage == stage {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLeadRepo) Mutate(_ context.Context, ws, id string, fn repositories.MutateFunc) (*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mutateErr != nil {
		return nil, r.mutateErr
	}
	l, ok := r.leads[id]
	if !ok || l.WorkspaceID != ws {
		return nil, models.ErrNotFound
	}
	snapshot := l.Clone()
	placement, err := fn(&snapshot)
	if err != nil {
		return nil, err
	}
	if placement == nil {
		return &snapshot, nil
	}

	var others []models.Lead
	for _, o := range r.all(ws) {
		if o.ID != id {
			others = append(others, o)
		}
	}
	l.Stage = placement.Stage
	if placement.SortOrder != nil {
		l.SortOrder = *placement.SortOrder
	} else {
		l.SortOrder = pipeline.AppendPosition(others, placement.Stage)
	}
	r.leads[id] = l
	r.mutations++
	out := l.Clone()
	return &out, nil
}

func (r *fakeLeadRepo) ReorderStage(_ context.Context, ws, stage string, fn repositories.ReorderFunc) ([]models.SortAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var current []models.Lead
	for _, l := range r.all(ws) {
		if l.Stage == stage {
			current = append(current, l)
		}
	}
	assignments, err := fn(current)
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		l := r.leads[a.LeadID]
		l.SortOrder = a.NewSortOrder
		r.leads[a.LeadID] = l
	}
	return assignments, nil
}

type fakeRuleRepo struct {
	rules   map[string][]models.ValidationRule
	listErr error
}

func (r *fakeRuleRepo) List(_ context.Context, ws string) ([]models.ValidationRule, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.rules[ws], nil
}

func (r *fakeRuleRepo) Replace(_ context.Context, ws string, rules []models.ValidationRule) error {
	if r.rules == nil {
		r.rules = map[string][]models.ValidationRule{}
	}
	r.rules[ws] = rules
	return nil
}

type fakeActivityRepo struct {
	mu        sync.Mutex
	inserted  []models.Activity
	insertErr error
}

func (r *fakeActivityRepo) Insert(_ context.Context, a *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, *a)
	return nil
}

func (r *fakeActivityRepo) ListByLead(_ context.Context, ws, leadID string, _ int) ([]models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Activity
	for _, a := range r.inserted {
		if a.WorkspaceID == ws && a.LeadID == leadID {
			out = append(out, a)
		}
	}
	return out, nil
}

type recordingActivity struct {
	mu      sync.Mutex
	records []models.Activity
}

func (r *recordingActivity) Record(_ context.Context, a models.Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, a)
}

type fakePublisher struct {
	published []models.Activity
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, a models.Activity) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, a)
	return nil
}

const ws = "ws-1"

func systemStage(id string, order int) models.Stage {
	return models.Stage{WorkspaceID: ws, ID: id, Name: id, SortOrder: order, IsSystem: true}
}

// defaultRules mirror the shipped configuration.
var defaultRules = []models.ValidationRule{
	{Field: models.FieldEmail, AppliesToStages: []string{"contatando"}},
	{Field: models.FieldPhone, AppliesToStages: []string{"qualificado"}},
	{Field: models.FieldPosition, AppliesToStages: []string{"qualificado"}},
}

type fixture struct {
	stages      *fakeStageRepo
	leads       *fakeLeadRepo
	rules       *fakeRuleRepo
	activity    *recordingActivity
	ruleSvc     *RuleService
	transitions *TransitionService
}

func newFixture(leads ...models.Lead) *fixture {
	f := &fixture{
		leads:    newFakeLeadRepo(leads...),
		rules:    &fakeRuleRepo{},
		activity: &recordingActivity{},
	}
	f.stages = newFakeStageRepo(f.leads)
	f.stages.add(
		systemStage("base", 1),
		systemStage("lead_mapeado", 2),
		systemStage("contatando", 3),
		systemStage("qualificado", 4),
	)
	f.ruleSvc = NewRuleService(f.rules, f.stages, f.leads, defaultRules)
	f.transitions = NewTransitionService(f.stages, f.leads, f.ruleSvc, f.activity, nopLog)
	return f
}
