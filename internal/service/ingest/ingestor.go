// internal/service/ingest/ingestor.go

package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"policypulse/internal/domain/policy"
	"policypulse/internal/domain/post"
	"policypulse/internal/domain/sentiment"
)

// Hint score mapping. The values are a fixed convention inherited from
// the data provider contract; they are constants by agreement, not
// derived from the model.
var (
	hintScores = map[sentiment.Label]float64{
		sentiment.LabelPositive: 0.8,
		sentiment.LabelNegative: 0.2,
		sentiment.LabelNeutral:  0.5,
	}
	hintPolarConfidence   = 0.8
	hintNeutralConfidence = 0.5
)

// Generator produces candidate posts for a policy's keywords
type Generator interface {
	// Generate returns up to count candidates. It may return partial
	// results alongside an error when the provider degrades mid-call.
	Generate(ctx context.Context, keywords []string, description string, count int) ([]post.Candidate, error)
}

// EventPublisher publishes ingestion events to the event bus
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// Config contains configuration for the ingestion pipeline
type Config struct {
	// BatchSize bounds how many candidates are processed between deadline
	// checks. It is a resource-management knob only and never changes
	// saved/duplicate outcomes.
	BatchSize int

	// GenerateTimeout bounds the provider call inside Collect
	GenerateTimeout time.Duration

	// CollectTimeout bounds the whole collect round trip
	CollectTimeout time.Duration

	// EventsTopic is the prefix for published ingest events
	EventsTopic string
}

// Outcome reports what an ingestion call actually did
type Outcome struct {
	SavedCount     int  `json:"saved_count"`
	DuplicateCount int  `json:"duplicate_count"`
	Truncated      bool `json:"truncated,omitempty"`
}

// CollectOutcome reports a generate-and-ingest round trip
type CollectOutcome struct {
	GeneratedCount int  `json:"generated_count"`
	SavedCount     int  `json:"saved_count"`
	DuplicateCount int  `json:"duplicate_count"`
	Truncated      bool `json:"truncated,omitempty"`
}

// Options carries per-call ingestion modifiers
type Options struct {
	// TestResult is an explicit caller-supplied sentiment result. It is
	// honored only for a single-candidate submission, which is how the
	// interactive test page ingests one scored post.
	TestResult *sentiment.Result
}

// Ingestor runs candidates through the dedup gate, resolves their
// sentiment and persists both records. Item-level failures are logged and
// skipped; a batch never fails wholesale because of one bad candidate.
type Ingestor struct {
	policies   policy.Store
	posts      post.Store
	sentiments sentiment.Store
	classifier sentiment.Classifier
	generator  Generator
	events     EventPublisher
	gate       *Gate
	config     Config
}

// NewIngestor creates an ingestion pipeline
func NewIngestor(
	policies policy.Store,
	posts post.Store,
	sentiments sentiment.Store,
	classifier sentiment.Classifier,
	generator Generator,
	events EventPublisher,
	config Config,
) *Ingestor {
	if config.BatchSize <= 0 {
		config.BatchSize = 5
	}

	return &Ingestor{
		policies:   policies,
		posts:      posts,
		sentiments: sentiments,
		classifier: classifier,
		generator:  generator,
		events:     events,
		gate:       NewGate(posts),
		config:     config,
	}
}

// Ingest processes candidates for a policy in the order supplied and
// returns the running counts of saved and skipped items. The counts
// reflect work actually done: when the context expires mid-batch the
// outcome is returned with Truncated set instead of an error, and nothing
// already ingested is rolled back.
func (ing *Ingestor) Ingest(ctx context.Context, policyID string, candidates []post.Candidate, opts Options) (Outcome, error) {
	if _, err := ing.policies.Get(ctx, policyID); err != nil {
		return Outcome{}, err
	}

	// The explicit result applies only to a single-item submission
	testResult := opts.TestResult
	if len(candidates) != 1 {
		testResult = nil
	}

	var out Outcome
	for start := 0; start < len(candidates); start += ing.config.BatchSize {
		if ctx.Err() != nil {
			out.Truncated = true
			return out, nil
		}

		end := start + ing.config.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		for _, c := range candidates[start:end] {
			saved, duplicate := ing.ingestOne(ctx, policyID, c, testResult)
			if saved {
				out.SavedCount++
			}
			if duplicate {
				out.DuplicateCount++
			}
		}
	}

	return out, nil
}

// Collect generates candidates for a policy and ingests them in one round
// trip. The provider call and the whole round trip carry explicit
// deadlines; a timeout with partial results is a degraded success, not an
// error.
func (ing *Ingestor) Collect(ctx context.Context, policyID string, count int) (CollectOutcome, error) {
	pol, err := ing.policies.Get(ctx, policyID)
	if err != nil {
		return CollectOutcome{}, err
	}

	if ing.generator == nil {
		return CollectOutcome{}, fmt.Errorf("no content generator configured")
	}

	ctx, cancel := context.WithTimeout(ctx, ing.config.CollectTimeout)
	defer cancel()

	genCtx, genCancel := context.WithTimeout(ctx, ing.config.GenerateTimeout)
	candidates, genErr := ing.generator.Generate(genCtx, pol.Keywords, pol.Description, count)
	genCancel()

	if len(candidates) == 0 {
		if genErr != nil {
			return CollectOutcome{}, fmt.Errorf("generating candidates: %w", genErr)
		}
		return CollectOutcome{}, nil
	}

	if genErr != nil {
		log.Printf("provider degraded for policy %s, continuing with %d candidates: %v",
			policyID, len(candidates), genErr)
	}

	out, err := ing.Ingest(ctx, policyID, candidates, Options{})
	if err != nil {
		return CollectOutcome{}, err
	}

	return CollectOutcome{
		GeneratedCount: len(candidates),
		SavedCount:     out.SavedCount,
		DuplicateCount: out.DuplicateCount,
		Truncated:      out.Truncated || genErr != nil,
	}, nil
}

// ingestOne runs one candidate through the gate, persists the post, then
// resolves and persists its sentiment. The item counts as saved only when
// both records are durably written; a post whose sentiment resolution
// fails stays behind as a logged, recoverable orphan.
func (ing *Ingestor) ingestOne(ctx context.Context, policyID string, c post.Candidate, testResult *sentiment.Result) (saved, duplicate bool) {
	if ing.gate.IsDuplicate(ctx, policyID, c) {
		return false, true
	}

	p := post.Post{
		ID:         uuid.New().String(),
		ExternalID: c.ExternalID,
		Text:       c.Text,
		Author:     c.Author,
		CreatedAt:  c.CreatedAt,
		PolicyID:   policyID,
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	if err := ing.posts.Save(ctx, p); err != nil {
		log.Printf("failed to save post %s for policy %s: %v", c.ExternalID, policyID, err)
		return false, false
	}

	result, err := ing.resolveSentiment(ctx, c, testResult)
	if err != nil {
		log.Printf("sentiment unresolved for post %s (policy %s), leaving orphan: %v",
			p.ID, policyID, err)
		return false, false
	}

	record := sentiment.Sentiment{
		Score:      result.Score,
		Label:      result.Label,
		Confidence: result.Confidence,
		PostID:     p.ID,
	}
	if _, err := ing.sentiments.UpsertForPost(ctx, record); err != nil {
		log.Printf("failed to save sentiment for post %s (policy %s), leaving orphan: %v",
			p.ID, policyID, err)
		return false, false
	}

	ing.publishPostEvent(policyID, p, result)

	return true, false
}

// resolveSentiment picks the sentiment source by priority: the explicit
// caller-supplied result, then the candidate's hint, then the classifier.
func (ing *Ingestor) resolveSentiment(ctx context.Context, c post.Candidate, testResult *sentiment.Result) (sentiment.Result, error) {
	if testResult != nil {
		return *testResult, nil
	}

	if result, ok := resultFromHint(c.SentimentHint); ok {
		return result, nil
	}

	return ing.classifier.Classify(ctx, c.Text)
}

// resultFromHint converts a provider-supplied label into a result using
// the fixed score mapping. Unrecognized hints are ignored so the text
// falls through to the classifier.
func resultFromHint(hint string) (sentiment.Result, bool) {
	label := sentiment.Label(strings.ToLower(strings.TrimSpace(hint)))
	if !label.Recognized() {
		return sentiment.Result{}, false
	}

	confidence := hintPolarConfidence
	if label == sentiment.LabelNeutral {
		confidence = hintNeutralConfidence
	}

	return sentiment.Result{
		Label:      label,
		Score:      hintScores[label],
		Confidence: confidence,
	}, true
}

// publishPostEvent announces a saved post on the event bus. Event
// delivery is best effort; failures are logged and never affect counts.
func (ing *Ingestor) publishPostEvent(policyID string, p post.Post, result sentiment.Result) {
	if ing.events == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"post_id":     p.ID,
		"external_id": p.ExternalID,
		"text":        p.Text,
		"label":       result.Label,
		"score":       result.Score,
		"created_at":  p.CreatedAt,
	})
	if err != nil {
		log.Printf("failed to marshal post event: %v", err)
		return
	}

	subject := fmt.Sprintf("%s.%s.posts", ing.config.EventsTopic, policyID)
	if err := ing.events.Publish(subject, payload); err != nil {
		log.Printf("failed to publish post event: %v", err)
	}
}
