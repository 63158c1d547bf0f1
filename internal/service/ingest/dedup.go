// internal/service/ingest/dedup.go

package ingest

import (
	"context"
	"log"

	"policypulse/internal/domain/post"
)

// Gate decides whether a candidate duplicates the existing corpus of a
// policy. A candidate is a duplicate iff an existing post shares its
// external ID or its exact text; either condition alone suffices. The
// match is deliberately permissive: regenerated synthetic content often
// repeats exact phrasing under fresh external IDs.
type Gate struct {
	posts post.Store
}

// NewGate creates a deduplication gate over the post store
func NewGate(posts post.Store) *Gate {
	return &Gate{
		posts: posts,
	}
}

// IsDuplicate reports whether the candidate already exists under the
// policy. A store fault fails open: the candidate is treated as new so a
// transient outage never blocks ingestion, and the fallback is logged.
func (g *Gate) IsDuplicate(ctx context.Context, policyID string, c post.Candidate) bool {
	duplicate, err := g.posts.HasDuplicate(ctx, policyID, c.ExternalID, c.Text)
	if err != nil {
		log.Printf("dedup check failed for policy %s, treating candidate %s as new: %v",
			policyID, c.ExternalID, err)
		return false
	}

	return duplicate
}
