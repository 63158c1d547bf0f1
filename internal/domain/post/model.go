package post

import (
	"errors"
	"time"

	"policypulse/internal/domain/sentiment"
)

// ErrNotFound is returned when a referenced post does not exist.
var ErrNotFound = errors.New("post not found")

// Post is a unit of text content attributed to a policy
type Post struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	Text       string    `json:"text"`
	Author     string    `json:"author"`
	CreatedAt  time.Time `json:"created_at"`
	PolicyID   string    `json:"policy_id"`

	// Sentiment is attached on read when one exists
	Sentiment *sentiment.Sentiment `json:"sentiment,omitempty"`
}

// Candidate is a not-yet-persisted post produced by a content source.
// It becomes a Post only after passing the deduplication gate.
type Candidate struct {
	ExternalID    string    `json:"external_id"`
	Text          string    `json:"text"`
	Author        string    `json:"author"`
	CreatedAt     time.Time `json:"created_at"`
	SentimentHint string    `json:"sentiment_hint,omitempty"`
}
