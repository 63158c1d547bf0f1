// internal/adapter/inference/client.go

package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"policypulse/internal/config"
	"policypulse/internal/service/classify"
)

// Client talks to an external inference service hosting the pretrained
// binary sentiment model.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
}

var _ classify.Model = (*Client)(nil)

// NewClient creates a reusable HTTP client for the inference service
func NewClient(cfg config.InferenceConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    "distilbert-base-uncased-finetuned-sst-2-english",
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

// Load asks the service to warm the model so later inference calls do not
// pay the load cost.
func (c *Client) Load(ctx context.Context) error {
	payload := map[string]string{"model": c.model}
	return c.post(ctx, "/v1/models/load", payload, nil)
}

// Infer scores a single text against the loaded model
func (c *Client) Infer(ctx context.Context, text string) (classify.Prediction, error) {
	payload := map[string]string{
		"model": c.model,
		"text":  text,
	}

	var resp struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}

	if err := c.post(ctx, "/v1/classify", payload, &resp); err != nil {
		return classify.Prediction{}, err
	}

	return classify.Prediction{Label: resp.Label, Confidence: resp.Score}, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, v interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service returned status %s", resp.Status)
	}

	if v == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
