package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yuchenf/nightbite/models"
)

type fakeStore struct {
	decisions   []*models.Decision
	recRows     [][]models.Recommendation
	decisionErr error
	recErr      error
	nextID      uint64
}

func (f *fakeStore) CreateDecision(ctx context.Context, decision *models.Decision) (uint64, error) {
	if f.decisionErr != nil {
		return 0, f.decisionErr
	}

	f.nextID++
	decision.ID = f.nextID
	f.decisions = append(f.decisions, decision)

	return f.nextID, nil
}

func (f *fakeStore) CreateRecommendations(ctx context.Context, recs []models.Recommendation) error {
	if f.recErr != nil {
		return f.recErr
	}

	f.recRows = append(f.recRows, recs)

	return nil
}

// fakeModel feeds a canned completion through the real response parser,
// so fence stripping and schema validation stay on the tested path.
type fakeModel struct {
	content string
	err     error
	prompt  string
}

func (f *fakeModel) Recommend(ctx context.Context, prompt string) (*ModelResult, error) {
	f.prompt = prompt
	if f.err != nil {
		return nil, f.err
	}

	return parseModelOutput(f.content)
}

type fakeEvents struct {
	published []DecisionEvent
	err       error
}

func (f *fakeEvents) PublishDecision(event DecisionEvent) error {
	if f.err != nil {
		return f.err
	}

	f.published = append(f.published, event)

	return nil
}

func newTestApp(store *fakeStore, model *fakeModel, events eventPublisher) *App {
	gin.SetMode(gin.TestMode)

	handler := NewHandler(store, model, NewCalibrator(rand.New(rand.NewPCG(1, 2))), events)

	return &App{handler: handler}
}

func postRecommend(t *testing.T, app *App, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/recommend", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	app.routes().ServeHTTP(w, req)

	return w
}

const validBody = `{
	"time_of_day": "nighttime",
	"mood": "lonely",
	"hunger_level": "crunch",
	"exercised_today": false,
	"budget_level": 1,
	"excluded_foods": ["炸鸡"]
}`

func TestRecommendHappyPath(t *testing.T) {
	store := &fakeStore{}
	model := &fakeModel{content: fencedModelOutput}
	events := &fakeEvents{}
	app := newTestApp(store, model, events)

	w := postRecommend(t, app, validBody)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", w.Code, w.Body.String())
	}

	var resp RecommendResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}

	if resp.DecisionID != 1 {
		t.Fatalf("got decision id %d, want 1", resp.DecisionID)
	}
	if resp.BudgetLevel != 1 {
		t.Fatalf("got budget level %d, want 1", resp.BudgetLevel)
	}
	if len(resp.Recommendations) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(resp.Recommendations))
	}

	// The canned item costs 50 on a budget-1 request: the calibrator
	// must pull it into [5,15] (meituan factor is 1.0).
	price := resp.Recommendations[0].EstimatedPrice
	if price < 5 || price > 15 {
		t.Fatalf("price %.0f not clamped into [5,15]", price)
	}

	if len(store.decisions) != 1 {
		t.Fatalf("got %d decision rows, want 1", len(store.decisions))
	}
	if store.decisions[0].Mood != "lonely" || store.decisions[0].BudgetLevel != 1 {
		t.Fatalf("decision row captured wrong input: %+v", store.decisions[0])
	}
	if len(store.recRows) != 1 || len(store.recRows[0]) != 1 {
		t.Fatalf("recommendation rows not stored: %+v", store.recRows)
	}
	if store.recRows[0][0].DecisionID != 1 {
		t.Fatalf("recommendation row not tagged with decision id: %+v", store.recRows[0][0])
	}

	if !strings.Contains(model.prompt, "禁止推荐：炸鸡") {
		t.Fatalf("excluded foods missing from prompt")
	}

	if len(events.published) != 1 || events.published[0].DecisionID != 1 {
		t.Fatalf("decision event not published: %+v", events.published)
	}
}

func TestRecommendMissingBudgetLevel(t *testing.T) {
	store := &fakeStore{}
	app := newTestApp(store, &fakeModel{content: fencedModelOutput}, nil)

	body := `{
		"time_of_day": "nighttime",
		"mood": "lonely",
		"hunger_level": "crunch",
		"exercised_today": false
	}`

	w := postRecommend(t, app, body)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "budget_level") {
		t.Fatalf("error does not name the missing field: %s", w.Body.String())
	}
	if len(store.decisions) != 0 || len(store.recRows) != 0 {
		t.Fatalf("database writes happened despite validation failure")
	}
}

func TestRecommendExercisedFalseIsNotMissing(t *testing.T) {
	app := newTestApp(&fakeStore{}, &fakeModel{content: fencedModelOutput}, nil)

	w := postRecommend(t, app, validBody)

	if w.Code != http.StatusOK {
		t.Fatalf("exercised_today=false rejected: %s", w.Body.String())
	}
}

func TestRecommendDecisionStoreFailureIsFatal(t *testing.T) {
	store := &fakeStore{decisionErr: errors.New("connection refused")}
	app := newTestApp(store, &fakeModel{content: fencedModelOutput}, nil)

	w := postRecommend(t, app, validBody)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want 500", w.Code)
	}
}

func TestRecommendModelMalformedNoRowsStored(t *testing.T) {
	store := &fakeStore{}
	app := newTestApp(store, &fakeModel{content: `{"scene": "夜宵"}`}, nil)

	w := postRecommend(t, app, validBody)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want 500", w.Code)
	}
	if len(store.recRows) != 0 {
		t.Fatalf("recommendation rows stored despite malformed model output")
	}
}

func TestRecommendModelUnavailable(t *testing.T) {
	app := newTestApp(&fakeStore{}, &fakeModel{err: ErrModelUnavailable}, nil)

	w := postRecommend(t, app, validBody)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want 500", w.Code)
	}
}

func TestRecommendRowInsertFailureStillResponds(t *testing.T) {
	store := &fakeStore{recErr: errors.New("recommendations table gone")}
	app := newTestApp(store, &fakeModel{content: fencedModelOutput}, nil)

	w := postRecommend(t, app, validBody)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200 despite insert failure", w.Code)
	}

	var resp RecommendResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if len(resp.Recommendations) != 1 {
		t.Fatalf("in-memory recommendations missing from response")
	}
}

func TestRecommendEventPublishFailureIsNonFatal(t *testing.T) {
	events := &fakeEvents{err: errors.New("nats down")}
	app := newTestApp(&fakeStore{}, &fakeModel{content: fencedModelOutput}, events)

	w := postRecommend(t, app, validBody)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200 despite publish failure", w.Code)
	}
}

func TestRecommendCORSPreflight(t *testing.T) {
	app := newTestApp(&fakeStore{}, &fakeModel{content: fencedModelOutput}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/recommend", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	app.routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("preflight got status %d, want 200", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("preflight response missing CORS headers")
	}
}
