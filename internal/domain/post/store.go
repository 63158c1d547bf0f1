// internal/domain/post/store.go

package post

import (
	"context"
)

// Store defines persistence for posts
type Store interface {
	// Save persists a new post
	Save(ctx context.Context, p Post) error

	// Get returns a post by ID
	Get(ctx context.Context, id string) (*Post, error)

	// HasDuplicate reports whether any post under the policy shares the
	// candidate's external ID or its exact text
	HasDuplicate(ctx context.Context, policyID, externalID, text string) (bool, error)

	// FindByPolicy returns a policy's posts with their sentiments attached,
	// newest first. A limit <= 0 returns the full corpus.
	FindByPolicy(ctx context.Context, policyID string, limit int) ([]Post, error)

	// CountByPolicy returns the number of posts under a policy
	CountByPolicy(ctx context.Context, policyID string) (int, error)

	// DeleteByPolicy removes all posts under a policy
	DeleteByPolicy(ctx context.Context, policyID string) error
}
