// internal/service/generate/gemini.go

package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"policypulse/internal/config"
)

// TextProvider produces free-form text for a prompt. The concrete
// implementation is the Gemini REST API; tests substitute a stub.
type TextProvider interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeminiClient calls the Google generative language REST API.
type GeminiClient struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
}

var _ TextProvider = (*GeminiClient)(nil)

// NewGeminiClient creates a client for the configured model
func NewGeminiClient(cfg config.GenerateConfig) *GeminiClient {
	return &GeminiClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.GoogleAPIKey,
		model:    cfg.Model,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GenerateText sends one prompt and returns the first candidate's text
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generative API returned status %s", resp.Status)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generative API returned no candidates")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
