// internal/server/handlers/post.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"policypulse/internal/domain/policy"
	"policypulse/internal/domain/post"
	"policypulse/internal/domain/sentiment"
	"policypulse/internal/service/ingest"
)

// maxPostPageSize caps how many posts a single listing request returns
const maxPostPageSize = 100

// Ingestor runs candidate posts through the ingestion pipeline
type Ingestor interface {
	Ingest(ctx context.Context, policyID string, candidates []post.Candidate, opts ingest.Options) (ingest.Outcome, error)
}

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	ingestor Ingestor
	posts    post.Store
}

// NewPostHandler creates a new post handler
func NewPostHandler(ingestor Ingestor, posts post.Store) *PostHandler {
	return &PostHandler{
		ingestor: ingestor,
		posts:    posts,
	}
}

type candidateRequest struct {
	ExternalID    string    `json:"external_id"`
	Text          string    `json:"text"`
	Author        string    `json:"author"`
	CreatedAt     time.Time `json:"created_at"`
	SentimentHint string    `json:"sentiment_hint"`
}

type ingestRequest struct {
	PolicyID   string             `json:"policy_id"`
	Posts      []candidateRequest `json:"posts"`
	TestResult *sentiment.Result  `json:"test_result,omitempty"`
}

// IngestPosts submits candidate posts for a policy
func (h *PostHandler) IngestPosts(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.PolicyID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing policy_id", nil)
		return
	}
	if len(req.Posts) == 0 {
		respondWithError(w, http.StatusBadRequest, "No posts to ingest", nil)
		return
	}

	candidates := make([]post.Candidate, 0, len(req.Posts))
	for _, c := range req.Posts {
		candidates = append(candidates, post.Candidate{
			ExternalID:    c.ExternalID,
			Text:          c.Text,
			Author:        c.Author,
			CreatedAt:     c.CreatedAt,
			SentimentHint: c.SentimentHint,
		})
	}

	outcome, err := h.ingestor.Ingest(r.Context(), req.PolicyID, candidates, ingest.Options{
		TestResult: req.TestResult,
	})
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Policy not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to ingest posts", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, outcome)
}

// ListPosts returns the newest posts for a policy
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	policyID := r.URL.Query().Get("policy_id")
	if policyID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing policy_id", nil)
		return
	}

	limit := maxPostPageSize
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	posts, err := h.posts.FindByPolicy(r.Context(), policyID, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list posts", err)
		return
	}

	if posts == nil {
		posts = []post.Post{}
	}

	respondWithJSON(w, http.StatusOK, posts)
}
