package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"policypulse/internal/domain/post"
	"policypulse/internal/domain/sentiment"
	"policypulse/internal/service/classify"
)

// bandClassifier implements sentiment.Classifier with the real
// normalization so the neutral band shows through the handler.
type bandClassifier struct {
	confidence float64
	polarity   string
}

func (c *bandClassifier) Classify(_ context.Context, text string) (sentiment.Result, error) {
	if text == "" {
		return sentiment.Result{}, sentiment.ErrEmptyText
	}
	return classify.Normalize(classify.Prediction{Label: c.polarity, Confidence: c.confidence}), nil
}

// capturingSentimentStore implements sentiment.Store and records upserts.
type capturingSentimentStore struct {
	upserted []sentiment.Sentiment
}

func (s *capturingSentimentStore) UpsertForPost(_ context.Context, record sentiment.Sentiment) (*sentiment.Sentiment, error) {
	s.upserted = append(s.upserted, record)
	return &record, nil
}

func (s *capturingSentimentStore) GetByPost(_ context.Context, postID string) (*sentiment.Sentiment, error) {
	return nil, nil
}

func (s *capturingSentimentStore) DeleteByPolicy(_ context.Context, policyID string) error {
	return nil
}

func TestAnalyzeText(t *testing.T) {
	h := NewSentimentHandler(&bandClassifier{polarity: "NEGATIVE", confidence: 0.92}, &capturingSentimentStore{}, &limitPostStore{})

	body := bytes.NewBufferString(`{"text": "This is a disaster"}`)
	req := httptest.NewRequest(http.MethodPost, "/sentiment", body)
	rec := httptest.NewRecorder()
	h.AnalyzeText(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result sentiment.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if result.Label != sentiment.LabelNegative || result.Score != 0.92 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestAnalyzeTextNeutralBand(t *testing.T) {
	h := NewSentimentHandler(&bandClassifier{polarity: "POSITIVE", confidence: 0.5}, &capturingSentimentStore{}, &limitPostStore{})

	body := bytes.NewBufferString(`{"text": "The policy exists"}`)
	req := httptest.NewRequest(http.MethodPost, "/sentiment", body)
	rec := httptest.NewRecorder()
	h.AnalyzeText(rec, req)

	var result sentiment.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if result.Label != sentiment.LabelNeutral {
		t.Errorf("mid-band confidence must read as neutral, got %s", result.Label)
	}
}

func TestAnalyzeTextRejectsEmpty(t *testing.T) {
	h := NewSentimentHandler(&bandClassifier{}, &capturingSentimentStore{}, &limitPostStore{})

	body := bytes.NewBufferString(`{"text": ""}`)
	req := httptest.NewRequest(http.MethodPost, "/sentiment", body)
	rec := httptest.NewRecorder()
	h.AnalyzeText(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeTextPersistsForPost(t *testing.T) {
	store := &capturingSentimentStore{}
	posts := &limitPostStore{posts: []post.Post{{ID: "post-7", PolicyID: "pol-1"}}}
	h := NewSentimentHandler(&bandClassifier{polarity: "POSITIVE", confidence: 0.9}, store, posts)

	body := bytes.NewBufferString(`{"text": "Great reform!", "post_id": "post-7"}`)
	req := httptest.NewRequest(http.MethodPost, "/sentiment", body)
	rec := httptest.NewRecorder()
	h.AnalyzeText(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(store.upserted) != 1 {
		t.Fatalf("expected one persisted record, got %d", len(store.upserted))
	}
	if store.upserted[0].PostID != "post-7" || store.upserted[0].Label != sentiment.LabelPositive {
		t.Errorf("unexpected persisted record: %+v", store.upserted[0])
	}
}

func TestAnalyzeTextUnknownPostIsNotFound(t *testing.T) {
	store := &capturingSentimentStore{}
	h := NewSentimentHandler(&bandClassifier{polarity: "POSITIVE", confidence: 0.9}, store, &limitPostStore{})

	body := bytes.NewBufferString(`{"text": "Great reform!", "post_id": "nope"}`)
	req := httptest.NewRequest(http.MethodPost, "/sentiment", body)
	rec := httptest.NewRecorder()
	h.AnalyzeText(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown post, got %d", rec.Code)
	}
	if len(store.upserted) != 0 {
		t.Errorf("no sentiment must be written for an unknown post, got %d records", len(store.upserted))
	}
}
