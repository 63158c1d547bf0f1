package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"policypulse/internal/domain/policy"
	"policypulse/internal/domain/post"
	"policypulse/internal/service/ingest"
)

// stubIngestor implements Ingestor.
type stubIngestor struct {
	outcome    ingest.Outcome
	gotPolicy  string
	gotCount   int
	gotOptions ingest.Options
}

func (s *stubIngestor) Ingest(_ context.Context, policyID string, candidates []post.Candidate, opts ingest.Options) (ingest.Outcome, error) {
	if policyID == "missing" {
		return ingest.Outcome{}, policy.ErrNotFound
	}
	s.gotPolicy = policyID
	s.gotCount = len(candidates)
	s.gotOptions = opts
	return s.outcome, nil
}

// limitPostStore implements post.Store and records the requested limit.
type limitPostStore struct {
	gotLimit int
	posts    []post.Post
}

func (s *limitPostStore) Save(_ context.Context, p post.Post) error { return nil }

func (s *limitPostStore) Get(_ context.Context, id string) (*post.Post, error) {
	for _, p := range s.posts {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, post.ErrNotFound
}

func (s *limitPostStore) HasDuplicate(_ context.Context, _, _, _ string) (bool, error) {
	return false, nil
}

func (s *limitPostStore) FindByPolicy(_ context.Context, policyID string, limit int) ([]post.Post, error) {
	s.gotLimit = limit
	return s.posts, nil
}

func (s *limitPostStore) CountByPolicy(_ context.Context, policyID string) (int, error) {
	return len(s.posts), nil
}

func (s *limitPostStore) DeleteByPolicy(_ context.Context, policyID string) error { return nil }

func TestIngestPosts(t *testing.T) {
	ingestor := &stubIngestor{outcome: ingest.Outcome{SavedCount: 2, DuplicateCount: 1}}
	h := NewPostHandler(ingestor, &limitPostStore{})

	body := bytes.NewBufferString(`{
		"policy_id": "pol-1",
		"posts": [
			{"external_id": "t1", "text": "first", "sentiment_hint": "positive"},
			{"external_id": "t2", "text": "second"},
			{"external_id": "t3", "text": "first"}
		]
	}`)
	req := httptest.NewRequest(http.MethodPost, "/posts", body)
	rec := httptest.NewRecorder()
	h.IngestPosts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ingestor.gotPolicy != "pol-1" || ingestor.gotCount != 3 {
		t.Errorf("unexpected pipeline call: policy=%q count=%d", ingestor.gotPolicy, ingestor.gotCount)
	}

	var outcome ingest.Outcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if outcome.SavedCount != 2 || outcome.DuplicateCount != 1 {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
}

func TestIngestPostsValidation(t *testing.T) {
	h := NewPostHandler(&stubIngestor{}, &limitPostStore{})

	tests := []struct {
		name string
		body string
	}{
		{"missing policy_id", `{"posts": [{"external_id": "t1", "text": "x"}]}`},
		{"empty posts", `{"policy_id": "pol-1", "posts": []}`},
		{"malformed JSON", `{"policy_id": `},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewBufferString(tt.body))
		rec := httptest.NewRecorder()
		h.IngestPosts(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tt.name, rec.Code)
		}
	}
}

func TestIngestPostsUnknownPolicy(t *testing.T) {
	h := NewPostHandler(&stubIngestor{}, &limitPostStore{})

	body := bytes.NewBufferString(`{"policy_id": "missing", "posts": [{"external_id": "t1", "text": "x"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/posts", body)
	rec := httptest.NewRecorder()
	h.IngestPosts(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestIngestPostsForwardsTestResult(t *testing.T) {
	ingestor := &stubIngestor{}
	h := NewPostHandler(ingestor, &limitPostStore{})

	body := bytes.NewBufferString(`{
		"policy_id": "pol-1",
		"posts": [{"external_id": "t1", "text": "x"}],
		"test_result": {"label": "negative", "score": 0.2, "confidence": 0.9}
	}`)
	req := httptest.NewRequest(http.MethodPost, "/posts", body)
	rec := httptest.NewRecorder()
	h.IngestPosts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ingestor.gotOptions.TestResult == nil || ingestor.gotOptions.TestResult.Score != 0.2 {
		t.Errorf("expected test result forwarded, got %+v", ingestor.gotOptions.TestResult)
	}
}

func TestListPostsCapsLimit(t *testing.T) {
	store := &limitPostStore{}
	h := NewPostHandler(&stubIngestor{}, store)

	req := httptest.NewRequest(http.MethodGet, "/posts?policy_id=pol-1&limit=500", nil)
	rec := httptest.NewRecorder()
	h.ListPosts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.gotLimit != maxPostPageSize {
		t.Errorf("expected the limit capped at %d, got %d", maxPostPageSize, store.gotLimit)
	}
}

func TestListPostsRequiresPolicyID(t *testing.T) {
	h := NewPostHandler(&stubIngestor{}, &limitPostStore{})

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	rec := httptest.NewRecorder()
	h.ListPosts(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListPostsEmptyCorpusIsEmptyArray(t *testing.T) {
	h := NewPostHandler(&stubIngestor{}, &limitPostStore{})

	req := httptest.NewRequest(http.MethodGet, "/posts?policy_id=pol-1", nil)
	rec := httptest.NewRecorder()
	h.ListPosts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]" {
		t.Errorf("expected an empty JSON array, got %q", body)
	}
}
