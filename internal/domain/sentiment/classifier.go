// internal/domain/sentiment/classifier.go

package sentiment

import (
	"context"
)

// Classifier produces a bounded sentiment judgment for raw text
type Classifier interface {
	// Classify scores a single text and returns a normalized result
	Classify(ctx context.Context, text string) (Result, error)
}

// Store defines persistence for sentiment records
type Store interface {
	// UpsertForPost creates the sentiment for a post, or updates it if one
	// already exists. Enforces the at-most-one-per-post rule.
	UpsertForPost(ctx context.Context, s Sentiment) (*Sentiment, error)

	// GetByPost returns the sentiment for a post, or nil if none exists
	GetByPost(ctx context.Context, postID string) (*Sentiment, error)

	// DeleteByPolicy removes all sentiments belonging to a policy's posts
	DeleteByPolicy(ctx context.Context, policyID string) error
}
