// internal/server/handlers/sentiment.go

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"policypulse/internal/domain/post"
	"policypulse/internal/domain/sentiment"
	"policypulse/internal/service/classify"
)

// SentimentHandler handles ad-hoc sentiment analysis requests
type SentimentHandler struct {
	classifier sentiment.Classifier
	sentiments sentiment.Store
	posts      post.Store
}

// NewSentimentHandler creates a new sentiment handler
func NewSentimentHandler(classifier sentiment.Classifier, sentiments sentiment.Store, posts post.Store) *SentimentHandler {
	return &SentimentHandler{
		classifier: classifier,
		sentiments: sentiments,
		posts:      posts,
	}
}

type analyzeRequest struct {
	Text   string `json:"text"`
	PostID string `json:"post_id,omitempty"`
}

// AnalyzeText classifies a single text. When a post ID is supplied the
// result is also persisted against that post, replacing any earlier
// record it had.
func (h *SentimentHandler) AnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.classifier.Classify(r.Context(), req.Text)
	if err != nil {
		switch {
		case errors.Is(err, sentiment.ErrEmptyText):
			respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, classify.ErrModelUnavailable):
			respondWithError(w, http.StatusServiceUnavailable, "Sentiment model unavailable", err)
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to analyze text", err)
		}
		return
	}

	if req.PostID != "" {
		if _, err := h.posts.Get(r.Context(), req.PostID); err != nil {
			if errors.Is(err, post.ErrNotFound) {
				respondWithError(w, http.StatusNotFound, "Post not found", nil)
			} else {
				respondWithError(w, http.StatusInternalServerError, "Failed to look up post", err)
			}
			return
		}

		record := sentiment.Sentiment{
			Score:      result.Score,
			Label:      result.Label,
			Confidence: result.Confidence,
			PostID:     req.PostID,
		}
		if _, err := h.sentiments.UpsertForPost(r.Context(), record); err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to save sentiment", err)
			return
		}
	}

	respondWithJSON(w, http.StatusOK, result)
}
