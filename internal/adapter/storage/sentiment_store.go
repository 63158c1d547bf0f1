// internal/adapter/storage/sentiment_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"policypulse/internal/domain/sentiment"
)

// SentimentStore implements storage for sentiment records
type SentimentStore struct {
	db *pgxpool.Pool
}

// NewSentimentStore creates a new sentiment store
func NewSentimentStore(db *pgxpool.Pool) *SentimentStore {
	return &SentimentStore{
		db: db,
	}
}

// UpsertForPost creates the sentiment for a post, or updates it if one
// already exists. The at-most-one-per-post rule is enforced here by
// check-then-write rather than by a schema constraint.
func (s *SentimentStore) UpsertForPost(ctx context.Context, record sentiment.Sentiment) (*sentiment.Sentiment, error) {
	existing, err := s.GetByPost(ctx, record.PostID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		query := `
			UPDATE sentiments
			SET score = $2, label = $3, confidence = $4
			WHERE id = $1
		`

		if _, err := s.db.Exec(ctx, query, existing.ID, record.Score, record.Label, record.Confidence); err != nil {
			return nil, fmt.Errorf("error updating sentiment: %w", err)
		}

		existing.Score = record.Score
		existing.Label = record.Label
		existing.Confidence = record.Confidence
		return existing, nil
	}

	record.ID = uuid.New().String()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO sentiments (id, score, label, confidence, post_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := s.db.Exec(ctx, query,
		record.ID,
		record.Score,
		record.Label,
		record.Confidence,
		record.PostID,
		record.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("error inserting sentiment: %w", err)
	}

	return &record, nil
}

// GetByPost returns the sentiment for a post, or nil if none exists
func (s *SentimentStore) GetByPost(ctx context.Context, postID string) (*sentiment.Sentiment, error) {
	query := `
		SELECT id, score, label, confidence, post_id, created_at
		FROM sentiments
		WHERE post_id = $1
	`

	var record sentiment.Sentiment
	err := s.db.QueryRow(ctx, query, postID).Scan(
		&record.ID,
		&record.Score,
		&record.Label,
		&record.Confidence,
		&record.PostID,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying sentiment: %w", err)
	}

	return &record, nil
}

// DeleteByPolicy removes all sentiments belonging to a policy's posts
func (s *SentimentStore) DeleteByPolicy(ctx context.Context, policyID string) error {
	query := `
		DELETE FROM sentiments
		WHERE post_id IN (SELECT id FROM posts WHERE policy_id = $1)
	`

	if _, err := s.db.Exec(ctx, query, policyID); err != nil {
		return fmt.Errorf("error deleting sentiments: %w", err)
	}

	return nil
}
