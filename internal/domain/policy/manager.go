// internal/domain/policy/manager.go

package policy

import (
	"context"
)

// Store defines persistence for policies
type Store interface {
	// Save persists a new policy
	Save(ctx context.Context, p Policy) error

	// Get returns a policy by ID
	Get(ctx context.Context, id string) (*Policy, error)

	// List returns all policies
	List(ctx context.Context) ([]Policy, error)

	// Update replaces the mutable fields of an existing policy
	Update(ctx context.Context, p Policy) error

	// Delete removes the policy record only; dependents are handled by the manager
	Delete(ctx context.Context, id string) error
}

// Manager defines the policy lifecycle operations
type Manager interface {
	// Create creates a new policy
	Create(ctx context.Context, p Policy) (*Policy, error)

	// Get returns a policy by ID with its derived post count
	Get(ctx context.Context, id string) (*Policy, error)

	// List returns all policies with their derived post counts
	List(ctx context.Context) ([]Policy, error)

	// Update performs a full-field update of an existing policy
	Update(ctx context.Context, id string, p Policy) (*Policy, error)

	// Delete removes a policy and cascades to its posts and sentiments
	Delete(ctx context.Context, id string) error
}
