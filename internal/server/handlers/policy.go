// internal/server/handlers/policy.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"policypulse/internal/domain/policy"
	"policypulse/internal/domain/sentiment"
	"policypulse/internal/service/ingest"
)

// InsightService computes aggregate sentiment for a policy
type InsightService interface {
	Stats(ctx context.Context, policyID string) (sentiment.Stats, error)
	Trend(ctx context.Context, policyID string, granularity sentiment.Granularity) ([]sentiment.TrendPoint, error)
}

// Collector runs a generate-and-ingest round trip for a policy
type Collector interface {
	Collect(ctx context.Context, policyID string, count int) (ingest.CollectOutcome, error)
}

// PolicyHandler handles policy-related HTTP requests
type PolicyHandler struct {
	manager   policy.Manager
	insights  InsightService
	collector Collector
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(manager policy.Manager, insights InsightService, collector Collector) *PolicyHandler {
	return &PolicyHandler{
		manager:   manager,
		insights:  insights,
		collector: collector,
	}
}

type policyRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// CreatePolicy creates a new policy
func (h *PolicyHandler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, err := h.manager.Create(r.Context(), policy.Policy{
		Name:        req.Name,
		Description: req.Description,
		Keywords:    req.Keywords,
	})
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// ListPolicies returns all policies
func (h *PolicyHandler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.manager.List(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list policies", err)
		return
	}

	if policies == nil {
		policies = []policy.Policy{}
	}

	respondWithJSON(w, http.StatusOK, policies)
}

// GetPolicy returns a specific policy by ID
func (h *PolicyHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.manager.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Policy not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to get policy", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

// UpdatePolicy performs a full-field update of a policy
func (h *PolicyHandler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req policyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updated, err := h.manager.Update(r.Context(), id, policy.Policy{
		Name:        req.Name,
		Description: req.Description,
		Keywords:    req.Keywords,
	})
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Policy not found", nil)
		} else {
			respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// DeletePolicy removes a policy and everything attached to it
func (h *PolicyHandler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.manager.Delete(r.Context(), id); err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Policy not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to delete policy", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetPolicyStats returns whole-corpus sentiment counts for a policy
func (h *PolicyHandler) GetPolicyStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	stats, err := h.insights.Stats(r.Context(), id)
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Policy not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to compute stats", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// GetPolicyTrend returns date-bucketed sentiment counts for a policy
func (h *PolicyHandler) GetPolicyTrend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	granularity := sentiment.Granularity(r.URL.Query().Get("granularity"))
	if granularity == "" {
		granularity = sentiment.GranularityWeek
	}

	points, err := h.insights.Trend(r.Context(), id, granularity)
	if err != nil {
		switch {
		case errors.Is(err, policy.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Policy not found", nil)
		case isGranularityError(granularity):
			respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to compute trend", err)
		}
		return
	}

	if points == nil {
		points = []sentiment.TrendPoint{}
	}

	respondWithJSON(w, http.StatusOK, points)
}

type collectRequest struct {
	Count int `json:"count"`
}

// CollectPosts generates fresh posts for a policy and ingests them
func (h *PolicyHandler) CollectPosts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req collectRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	outcome, err := h.collector.Collect(r.Context(), id, req.Count)
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Policy not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to collect posts", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, outcome)
}

func isGranularityError(g sentiment.Granularity) bool {
	switch g {
	case sentiment.GranularityWeek, sentiment.GranularityMonth, sentiment.GranularityAll:
		return false
	}
	return true
}
