package handlers_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"leadflow/internal/handlers"
	"leadflow/internal/middleware"
	"leadflow/internal/models"
	"leadflow/internal/pdf"
	"leadflow/internal/routes"
)

var testSecret = []byte("test-secret")

const testWS = "ws-1"

type stubStages struct {
	list    func(ctx context.Context, ws string) ([]models.Stage, error)
	create  func(ctx context.Context, ws string, req models.CreateStageRequest) (*models.Stage, error)
	update  func(ctx context.Context, ws, id string, req models.UpdateStageRequest) (*models.Stage, error)
	del     func(ctx context.Context, ws, id string) error
	reorder func(ctx context.Context, ws string, ids []string) ([]models.Stage, error)
	seed    func(ctx context.Context, ws string) (int, error)
}

func (s *stubStages) ListStages(ctx context.Context, ws string) ([]models.Stage, error) {
	return s.list(ctx, ws)
}
func (s *stubStages) ListVisibleStages(ctx context.Context, ws string) ([]models.Stage, error) {
	all, err := s.list(ctx, ws)
	var out []models.Stage
	for _, st := range all {
		if !st.IsHidden {
			out = append(out, st)
		}
	}
	return out, err
}
func (s *stubStages) CreateStage(ctx context.Context, ws string, req models.CreateStageRequest) (*models.Stage, error) {
	return s.create(ctx, ws, req)
}
func (s *stubStages) UpdateStage(ctx context.Context, ws, id string, req models.UpdateStageRequest) (*models.Stage, error) {
	return s.update(ctx, ws, id, req)
}
func (s *stubStages) DeleteStage(ctx context.Context, ws, id string) error { return s.del(ctx, ws, id) }
func (s *stubStages) ReorderStages(ctx context.Context, ws string, ids []string) ([]models.Stage, error) {
	return s.reorder(ctx, ws, ids)
}
func (s *stubStages) SeedSystemStages(ctx context.Context, ws string) (int, error) {
	return s.seed(ctx, ws)
}

type stubRules struct {
	rules    []models.ValidationRule
	replaced []models.ValidationRule
	replace  error
	validate func(ctx context.Context, ws, leadID, stage string) ([]models.ValidationError, error)
}

func (s *stubRules) Rules(context.Context, string) ([]models.ValidationRule, error) {
	return s.rules, nil
}
func (s *stubRules) ReplaceRules(_ context.Context, _ string, rules []models.ValidationRule) error {
	if s.replace != nil {
		return s.replace
	}
	s.replaced = rules
	return nil
}
func (s *stubRules) ValidateLead(ctx context.Context, ws, leadID, stage string) ([]models.ValidationError, error) {
	return s.validate(ctx, ws, leadID, stage)
}

type stubTransitions struct {
	transition func(ctx context.Context, ws string, req models.TransitionRequest) (models.TransitionResult, error)
	reorder    func(ctx context.Context, ws, stage string, ids []string) ([]models.SortAssignment, error)
	create     func(ctx context.Context, ws string, req models.CreateLeadRequest) (*models.Lead, []models.ValidationError, error)
	get        func(ctx context.Context, ws, id string) (*models.Lead, error)
	board      func(ctx context.Context, ws string) ([]models.BoardColumn, error)
}

func (s *stubTransitions) RequestTransition(ctx context.Context, ws string, req models.TransitionRequest) (models.TransitionResult, error) {
	return s.transition(ctx, ws, req)
}
func (s *stubTransitions) ReorderWithinStage(ctx context.Context, ws, stage string, ids []string) ([]models.SortAssignment, error) {
	return s.reorder(ctx, ws, stage, ids)
}
func (s *stubTransitions) CreateLead(ctx context.Context, ws string, req models.CreateLeadRequest) (*models.Lead, []models.ValidationError, error) {
	return s.create(ctx, ws, req)
}
func (s *stubTransitions) GetLead(ctx context.Context, ws, id string) (*models.Lead, error) {
	return s.get(ctx, ws, id)
}
func (s *stubTransitions) Board(ctx context.Context, ws string) ([]models.BoardColumn, error) {
	return s.board(ctx, ws)
}

type stubPromotions struct {
	messageSent func(ctx context.Context, ws, leadID string) (models.TransitionResult, bool, error)
	promote     func(ctx context.Context, ws string) (models.PromotionOutcome, error)
}

func (s *stubPromotions) OnMessageSent(ctx context.Context, ws, leadID string) (models.TransitionResult, bool, error) {
	return s.messageSent(ctx, ws, leadID)
}
func (s *stubPromotions) PromoteEligible(ctx context.Context, ws string) (models.PromotionOutcome, error) {
	return s.promote(ctx, ws)
}

type stubActivity struct {
	items []models.Activity
}

func (s *stubActivity) ListForLead(context.Context, string, string, int) ([]models.Activity, error) {
	return s.items, nil
}

// stubFeed hands out one channel per subscription and reports
// when the handler subscribes and when it lets go.
type stubFeed struct {
	err        error
	events     chan models.Activity
	subscribed chan string
	released   chan string
}

func newStubFeed() *stubFeed {
	return &stubFeed{
		events:     make(chan models.Activity, 8),
		subscribed: make(chan string, 1),
		released:   make(chan string, 1),
	}
}

func (f *stubFeed) Subscribe(ctx context.Context, ws string) (<-chan models.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.subscribed <- ws
	go func() {
		<-ctx.Done()
		f.released <- ws
	}()
	return f.events, nil
}

type testServer struct {
	router      *gin.Engine
	stages      *stubStages
	rules       *stubRules
	transitions *stubTransitions
	promotions  *stubPromotions
	activity    *stubActivity
	feed        *stubFeed
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	notCalled := func(name string) error {
		t.Errorf("%s should not be called", name)
		return nil
	}
	ts := &testServer{
		stages: &stubStages{
			list: func(context.Context, string) ([]models.Stage, error) { return nil, nil },
			create: func(context.Context, string, models.CreateStageRequest) (*models.Stage, error) {
				return nil, notCalled("create")
			},
			update: func(context.Context, string, string, models.UpdateStageRequest) (*models.Stage, error) {
				return nil, notCalled("update")
			},
			del: func(context.Context, string, string) error { return notCalled("delete") },
			reorder: func(context.Context, string, []string) ([]models.Stage, error) {
				return nil, notCalled("reorder")
			},
			seed: func(context.Context, string) (int, error) { return 0, nil },
		},
		rules: &stubRules{},
		transitions: &stubTransitions{
			transition: func(context.Context, string, models.TransitionRequest) (models.TransitionResult, error) {
				return models.TransitionResult{}, notCalled("transition")
			},
			reorder: func(context.Context, string, string, []string) ([]models.SortAssignment, error) {
				return nil, notCalled("reorder leads")
			},
			create: func(context.Context, string, models.CreateLeadRequest) (*models.Lead, []models.ValidationError, error) {
				return nil, nil, notCalled("create lead")
			},
			get: func(context.Context, string, string) (*models.Lead, error) { return nil, models.ErrNotFound },
			board: func(context.Context, string) ([]models.BoardColumn, error) {
				return []models.BoardColumn{}, nil
			},
		},
		promotions: &stubPromotions{
			messageSent: func(context.Context, string, string) (models.TransitionResult, bool, error) {
				return models.TransitionResult{OK: true}, false, nil
			},
			promote: func(context.Context, string) (models.PromotionOutcome, error) {
				return models.PromotionOutcome{}, nil
			},
		},
		activity: &stubActivity{},
		feed:     newStubFeed(),
	}

	log := zerolog.Nop()
	r := gin.New()
	routes.SetupRoutes(r, testSecret, routes.Handlers{
		Health:   &handlers.HealthHandler{},
		Stages:   handlers.NewStageHandler(ts.stages, log),
		Rules:    handlers.NewRuleHandler(ts.rules, log),
		Pipeline: handlers.NewPipelineHandler(ts.transitions, ts.promotions, pdf.NewReportGenerator(""), log),
		Leads:    handlers.NewLeadHandler(ts.transitions, ts.activity, log),
		Events:   handlers.NewEventsHandler(ts.feed, []string{"*"}, log),
	})
	ts.router = r
	return ts
}

func token(t *testing.T, workspace, role string) string {
	t.Helper()
	tok, err := middleware.SignToken(testSecret, "u-1", workspace, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, method, path, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, testWS, role))
	}
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}
