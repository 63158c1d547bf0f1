package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"policypulse/internal/domain/policy"
	"policypulse/internal/domain/sentiment"
	"policypulse/internal/service/ingest"
)

// stubManager implements policy.Manager.
type stubManager struct {
	policies map[string]policy.Policy
	deleted  []string
}

func newStubManager(ids ...string) *stubManager {
	m := &stubManager{policies: make(map[string]policy.Policy)}
	for _, id := range ids {
		m.policies[id] = policy.Policy{ID: id, Name: "Policy " + id, Keywords: []string{"kw"}}
	}
	return m
}

func (m *stubManager) Create(_ context.Context, p policy.Policy) (*policy.Policy, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ID = "pol-new"
	m.policies[p.ID] = p
	return &p, nil
}

func (m *stubManager) Get(_ context.Context, id string) (*policy.Policy, error) {
	p, ok := m.policies[id]
	if !ok {
		return nil, policy.ErrNotFound
	}
	return &p, nil
}

func (m *stubManager) List(_ context.Context) ([]policy.Policy, error) {
	var out []policy.Policy
	for _, p := range m.policies {
		out = append(out, p)
	}
	return out, nil
}

func (m *stubManager) Update(_ context.Context, id string, p policy.Policy) (*policy.Policy, error) {
	if _, ok := m.policies[id]; !ok {
		return nil, policy.ErrNotFound
	}
	p.ID = id
	m.policies[id] = p
	return &p, nil
}

func (m *stubManager) Delete(_ context.Context, id string) error {
	if _, ok := m.policies[id]; !ok {
		return policy.ErrNotFound
	}
	delete(m.policies, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// stubInsights implements InsightService.
type stubInsights struct {
	stats  sentiment.Stats
	points []sentiment.TrendPoint
}

func (s *stubInsights) Stats(_ context.Context, policyID string) (sentiment.Stats, error) {
	if policyID == "missing" {
		return sentiment.Stats{}, policy.ErrNotFound
	}
	return s.stats, nil
}

func (s *stubInsights) Trend(_ context.Context, policyID string, g sentiment.Granularity) ([]sentiment.TrendPoint, error) {
	switch g {
	case sentiment.GranularityWeek, sentiment.GranularityMonth, sentiment.GranularityAll:
		return s.points, nil
	}
	return nil, errors.New("unsupported granularity")
}

// stubCollector implements Collector.
type stubCollector struct {
	outcome ingest.CollectOutcome
}

func (c *stubCollector) Collect(_ context.Context, policyID string, count int) (ingest.CollectOutcome, error) {
	if policyID == "missing" {
		return ingest.CollectOutcome{}, policy.ErrNotFound
	}
	return c.outcome, nil
}

func newPolicyRouter(h *PolicyHandler) *chi.Mux {
	router := chi.NewRouter()
	router.Route("/policies", func(r chi.Router) {
		r.Get("/", h.ListPolicies)
		r.Post("/", h.CreatePolicy)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetPolicy)
			r.Put("/", h.UpdatePolicy)
			r.Delete("/", h.DeletePolicy)
			r.Get("/stats", h.GetPolicyStats)
			r.Get("/trend", h.GetPolicyTrend)
			r.Post("/collect", h.CollectPosts)
		})
	})
	return router
}

func TestCreatePolicy(t *testing.T) {
	h := NewPolicyHandler(newStubManager(), &stubInsights{}, &stubCollector{})
	router := newPolicyRouter(h)

	body := bytes.NewBufferString(`{"name": "Healthcare Reform", "keywords": ["healthcare"]}`)
	req := httptest.NewRequest(http.MethodPost, "/policies", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created policy.Policy
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if created.ID == "" || created.Name != "Healthcare Reform" {
		t.Errorf("unexpected created policy: %+v", created)
	}
}

func TestCreatePolicyRejectsInvalid(t *testing.T) {
	h := NewPolicyHandler(newStubManager(), &stubInsights{}, &stubCollector{})
	router := newPolicyRouter(h)

	body := bytes.NewBufferString(`{"name": "", "keywords": []}`)
	req := httptest.NewRequest(http.MethodPost, "/policies", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetPolicyNotFound(t *testing.T) {
	h := NewPolicyHandler(newStubManager("pol-1"), &stubInsights{}, &stubCollector{})
	router := newPolicyRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/policies/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeletePolicy(t *testing.T) {
	manager := newStubManager("pol-1")
	h := NewPolicyHandler(manager, &stubInsights{}, &stubCollector{})
	router := newPolicyRouter(h)

	req := httptest.NewRequest(http.MethodDelete, "/policies/pol-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(manager.deleted) != 1 || manager.deleted[0] != "pol-1" {
		t.Errorf("expected pol-1 deleted, got %v", manager.deleted)
	}
}

func TestGetPolicyStats(t *testing.T) {
	insights := &stubInsights{stats: sentiment.Stats{Positive: 3, Negative: 1, Neutral: 2, Total: 6}}
	h := NewPolicyHandler(newStubManager("pol-1"), insights, &stubCollector{})
	router := newPolicyRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/policies/pol-1/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var stats sentiment.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if stats != insights.stats {
		t.Errorf("got %+v, want %+v", stats, insights.stats)
	}
}

func TestGetPolicyTrendDefaultsToWeek(t *testing.T) {
	insights := &stubInsights{points: []sentiment.TrendPoint{{Date: "2025-05-06", Positive: 1, Total: 1}}}
	h := NewPolicyHandler(newStubManager("pol-1"), insights, &stubCollector{})
	router := newPolicyRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/policies/pol-1/trend", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetPolicyTrendRejectsBadGranularity(t *testing.T) {
	h := NewPolicyHandler(newStubManager("pol-1"), &stubInsights{}, &stubCollector{})
	router := newPolicyRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/policies/pol-1/trend?granularity=fortnight", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCollectPosts(t *testing.T) {
	collector := &stubCollector{outcome: ingest.CollectOutcome{GeneratedCount: 5, SavedCount: 4, DuplicateCount: 1}}
	h := NewPolicyHandler(newStubManager("pol-1"), &stubInsights{}, collector)
	router := newPolicyRouter(h)

	body := bytes.NewBufferString(`{"count": 5}`)
	req := httptest.NewRequest(http.MethodPost, "/policies/pol-1/collect", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var outcome ingest.CollectOutcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if outcome.SavedCount != 4 || outcome.DuplicateCount != 1 {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
}
