// internal/service/policies/manager.go

package policies

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"policypulse/internal/domain/policy"
	"policypulse/internal/domain/post"
	"policypulse/internal/domain/sentiment"
)

// EventPublisher announces policy lifecycle events on the event bus
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// Service implements the policy lifecycle over the persistence layer.
// Post counts are derived at read time so they always reflect the stored
// corpus.
type Service struct {
	policies    policy.Store
	posts       post.Store
	sentiments  sentiment.Store
	events      EventPublisher
	eventsTopic string
}

var _ policy.Manager = (*Service)(nil)

// NewService creates a policy lifecycle service. The publisher may be nil
// when no event bus is configured.
func NewService(policies policy.Store, posts post.Store, sentiments sentiment.Store, events EventPublisher, eventsTopic string) *Service {
	return &Service{
		policies:    policies,
		posts:       posts,
		sentiments:  sentiments,
		events:      events,
		eventsTopic: eventsTopic,
	}
}

// Create validates and persists a new policy
func (s *Service) Create(ctx context.Context, p policy.Policy) (*policy.Policy, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	p.ID = uuid.New().String()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.PostCount = 0

	if err := s.policies.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("saving policy: %w", err)
	}

	return &p, nil
}

// Get returns a policy with its derived post count
func (s *Service) Get(ctx context.Context, id string) (*policy.Policy, error) {
	p, err := s.policies.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.attachPostCount(ctx, p)

	return p, nil
}

// List returns all policies with their derived post counts
func (s *Service) List(ctx context.Context) ([]policy.Policy, error) {
	all, err := s.policies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing policies: %w", err)
	}

	for i := range all {
		s.attachPostCount(ctx, &all[i])
	}

	return all, nil
}

// Update replaces the mutable fields of an existing policy. The update is
// full-field: the supplied name, description and keywords overwrite the
// stored values wholesale.
func (s *Service) Update(ctx context.Context, id string, p policy.Policy) (*policy.Policy, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.policies.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Name = p.Name
	existing.Description = p.Description
	existing.Keywords = p.Keywords
	existing.UpdatedAt = time.Now()

	if err := s.policies.Update(ctx, *existing); err != nil {
		return nil, fmt.Errorf("updating policy: %w", err)
	}

	s.attachPostCount(ctx, existing)

	return existing, nil
}

// Delete removes a policy and everything hanging off it. Dependents go
// first so a failure partway through never leaves records referencing a
// policy that no longer exists.
func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.policies.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.sentiments.DeleteByPolicy(ctx, id); err != nil {
		return fmt.Errorf("deleting sentiments for policy %s: %w", id, err)
	}

	if err := s.posts.DeleteByPolicy(ctx, id); err != nil {
		return fmt.Errorf("deleting posts for policy %s: %w", id, err)
	}

	if err := s.policies.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting policy %s: %w", id, err)
	}

	s.publishDeleted(*existing)

	return nil
}

// publishDeleted announces the removal on the event bus. Delivery is best
// effort; failures are logged and never undo the delete.
func (s *Service) publishDeleted(p policy.Policy) {
	if s.events == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"policy_id": p.ID,
		"name":      p.Name,
	})
	if err != nil {
		log.Printf("failed to marshal delete event for policy %s: %v", p.ID, err)
		return
	}

	subject := fmt.Sprintf("%s.deleted", s.eventsTopic)
	if err := s.events.Publish(subject, payload); err != nil {
		log.Printf("failed to publish delete event for policy %s: %v", p.ID, err)
	}
}

// attachPostCount fills in the derived count, leaving it at zero when the
// count query fails. A degraded count is preferable to failing the read.
func (s *Service) attachPostCount(ctx context.Context, p *policy.Policy) {
	count, err := s.posts.CountByPolicy(ctx, p.ID)
	if err != nil {
		log.Printf("failed to count posts for policy %s: %v", p.ID, err)
		return
	}
	p.PostCount = count
}
