// internal/server/handlers/generate.go

package handlers

import (
	"encoding/json"
	"net/http"

	"policypulse/internal/service/ingest"
)

// GenerateHandler exposes the synthetic post provider directly, without
// ingesting the results.
type GenerateHandler struct {
	generator ingest.Generator
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(generator ingest.Generator) *GenerateHandler {
	return &GenerateHandler{
		generator: generator,
	}
}

type generateRequest struct {
	Keywords    []string `json:"keywords"`
	Description string   `json:"description"`
	Count       int      `json:"count"`
}

// GeneratePosts returns a batch of synthetic candidate posts
func (h *GenerateHandler) GeneratePosts(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if len(req.Keywords) == 0 {
		respondWithError(w, http.StatusBadRequest, "Missing keywords", nil)
		return
	}

	candidates, err := h.generator.Generate(r.Context(), req.Keywords, req.Description, req.Count)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to generate posts", err)
		return
	}

	respondWithJSON(w, http.StatusOK, candidates)
}
