// internal/adapter/storage/policy_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"policypulse/internal/domain/policy"
)

// PolicyStore implements storage for policies
type PolicyStore struct {
	db *pgxpool.Pool
}

// NewPolicyStore creates a new policy store
func NewPolicyStore(db *pgxpool.Pool) *PolicyStore {
	return &PolicyStore{
		db: db,
	}
}

// Save persists a new policy
func (s *PolicyStore) Save(ctx context.Context, p policy.Policy) error {
	query := `
		INSERT INTO policies (id, name, description, keywords, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	_, err := s.db.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Keywords,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting policy: %w", err)
	}

	return nil
}

// Get retrieves a policy by ID
func (s *PolicyStore) Get(ctx context.Context, id string) (*policy.Policy, error) {
	query := `
		SELECT id, name, description, keywords, created_at, updated_at
		FROM policies
		WHERE id = $1
	`

	var p policy.Policy
	err := s.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Keywords,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, policy.ErrNotFound
		}
		return nil, fmt.Errorf("error querying policy: %w", err)
	}

	return &p, nil
}

// List retrieves all policies ordered by creation time
func (s *PolicyStore) List(ctx context.Context) ([]policy.Policy, error) {
	query := `
		SELECT id, name, description, keywords, created_at, updated_at
		FROM policies
		ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying policies: %w", err)
	}
	defer rows.Close()

	var policies []policy.Policy
	for rows.Next() {
		var p policy.Policy
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Keywords,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning policy: %w", err)
		}
		policies = append(policies, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating policies: %w", err)
	}

	return policies, nil
}

// Update replaces the mutable fields of an existing policy
func (s *PolicyStore) Update(ctx context.Context, p policy.Policy) error {
	query := `
		UPDATE policies
		SET name = $2, description = $3, keywords = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, p.ID, p.Name, p.Description, p.Keywords, time.Now())
	if err != nil {
		return fmt.Errorf("error updating policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return policy.ErrNotFound
	}

	return nil
}

// Delete removes the policy record. Dependent posts and sentiments must
// already have been removed by the manager's cascade.
func (s *PolicyStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM policies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return policy.ErrNotFound
	}

	return nil
}
