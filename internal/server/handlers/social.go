// internal/server/handlers/social.go

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"policypulse/internal/domain/post"
	"policypulse/internal/service/social"
)

// SocialSearcher fetches recent real posts for a set of keywords
type SocialSearcher interface {
	Search(ctx context.Context, keywords []string) ([]post.Candidate, error)
}

// SocialHandler handles live social search requests
type SocialHandler struct {
	searcher SocialSearcher
}

// NewSocialHandler creates a new social handler
func NewSocialHandler(searcher SocialSearcher) *SocialHandler {
	return &SocialHandler{
		searcher: searcher,
	}
}

// SearchPosts returns recent posts matching the given keywords
func (h *SocialHandler) SearchPosts(w http.ResponseWriter, r *http.Request) {
	keywordsParam := r.URL.Query().Get("keywords")
	if keywordsParam == "" {
		respondWithError(w, http.StatusBadRequest, "Missing keywords", nil)
		return
	}

	keywords := strings.Split(keywordsParam, ",")

	candidates, err := h.searcher.Search(r.Context(), keywords)
	if err != nil {
		switch {
		case errors.Is(err, social.ErrNotConfigured):
			respondWithError(w, http.StatusServiceUnavailable, err.Error(), nil)
		case errors.Is(err, social.ErrRateLimited):
			respondWithError(w, http.StatusTooManyRequests, err.Error(), nil)
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to search posts", err)
		}
		return
	}

	if candidates == nil {
		candidates = []post.Candidate{}
	}

	respondWithJSON(w, http.StatusOK, candidates)
}
