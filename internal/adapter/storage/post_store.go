// internal/adapter/storage/post_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"policypulse/internal/domain/post"
	"policypulse/internal/domain/sentiment"
)

// PostStore implements storage for posts
type PostStore struct {
	db *pgxpool.Pool
}

// NewPostStore creates a new post store
func NewPostStore(db *pgxpool.Pool) *PostStore {
	return &PostStore{
		db: db,
	}
}

// Save persists a new post
func (s *PostStore) Save(ctx context.Context, p post.Post) error {
	query := `
		INSERT INTO posts (id, external_id, text, author, created_at, policy_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.Exec(ctx, query,
		p.ID,
		p.ExternalID,
		p.Text,
		p.Author,
		p.CreatedAt,
		p.PolicyID,
	)
	if err != nil {
		return fmt.Errorf("error inserting post: %w", err)
	}

	return nil
}

// Get returns a post by ID
func (s *PostStore) Get(ctx context.Context, id string) (*post.Post, error) {
	query := `
		SELECT id, external_id, text, author, created_at, policy_id
		FROM posts
		WHERE id = $1
	`

	var p post.Post
	err := s.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.ExternalID,
		&p.Text,
		&p.Author,
		&p.CreatedAt,
		&p.PolicyID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, post.ErrNotFound
		}
		return nil, fmt.Errorf("error querying post: %w", err)
	}

	return &p, nil
}

// HasDuplicate reports whether any post under the policy shares the
// candidate's external ID or its exact text. Both checks are
// case-sensitive with no normalization.
func (s *PostStore) HasDuplicate(ctx context.Context, policyID, externalID, text string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM posts
			WHERE policy_id = $1 AND (external_id = $2 OR text = $3)
		)
	`

	var exists bool
	if err := s.db.QueryRow(ctx, query, policyID, externalID, text).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking duplicate post: %w", err)
	}

	return exists, nil
}

// FindByPolicy returns a policy's posts with sentiments attached, newest
// first. A limit <= 0 returns the full corpus.
func (s *PostStore) FindByPolicy(ctx context.Context, policyID string, limit int) ([]post.Post, error) {
	query := `
		SELECT
			p.id, p.external_id, p.text, p.author, p.created_at, p.policy_id,
			s.id, s.score, s.label, s.confidence, s.created_at
		FROM posts p
		LEFT JOIN sentiments s ON s.post_id = p.id
		WHERE p.policy_id = $1
		ORDER BY p.created_at DESC
	`

	args := []interface{}{policyID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying posts: %w", err)
	}
	defer rows.Close()

	var posts []post.Post
	for rows.Next() {
		var p post.Post

		// Sentiment columns are nullable because of the left join
		var sentimentID, label *string
		var score, confidence *float64
		var sCreatedAt *time.Time

		if err := rows.Scan(
			&p.ID,
			&p.ExternalID,
			&p.Text,
			&p.Author,
			&p.CreatedAt,
			&p.PolicyID,
			&sentimentID,
			&score,
			&label,
			&confidence,
			&sCreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning post: %w", err)
		}

		if sentimentID != nil {
			p.Sentiment = &sentiment.Sentiment{
				ID:         *sentimentID,
				Score:      *score,
				Label:      sentiment.Label(*label),
				Confidence: *confidence,
				PostID:     p.ID,
			}
			if sCreatedAt != nil {
				p.Sentiment.CreatedAt = *sCreatedAt
			}
		}

		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return posts, nil
}

// CountByPolicy returns the number of posts under a policy
func (s *PostStore) CountByPolicy(ctx context.Context, policyID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE policy_id = $1`, policyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting posts: %w", err)
	}

	return count, nil
}

// DeleteByPolicy removes all posts under a policy
func (s *PostStore) DeleteByPolicy(ctx context.Context, policyID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM posts WHERE policy_id = $1`, policyID); err != nil {
		return fmt.Errorf("error deleting posts: %w", err)
	}

	return nil
}
