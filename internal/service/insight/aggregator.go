// internal/service/insight/aggregator.go

package insight

import (
	"context"
	"fmt"
	"sort"
	"time"

	"policypulse/internal/config"
	"policypulse/internal/domain/policy"
	"policypulse/internal/domain/post"
	"policypulse/internal/domain/sentiment"
)

const (
	dayKey   = "2006-01-02"
	monthKey = "2006-01"
)

// Aggregator computes sentiment statistics over a policy's post corpus.
// Counts are derived on demand from stored posts; nothing is cached, so a
// re-ingestion or delete is reflected immediately.
type Aggregator struct {
	policies policy.Store
	posts    post.Store

	emptyPlaceholder bool
	now              func() time.Time
}

// NewAggregator creates an aggregation service
func NewAggregator(policies policy.Store, posts post.Store, cfg config.TrendConfig) *Aggregator {
	return &Aggregator{
		policies:         policies,
		posts:            posts,
		emptyPlaceholder: cfg.EmptyPlaceholder,
		now:              time.Now,
	}
}

// Stats returns whole-corpus counts for a policy. Only posts carrying a
// recognized sentiment label participate; unclassified posts and records
// with unknown labels are left out of every bucket including the total.
func (a *Aggregator) Stats(ctx context.Context, policyID string) (sentiment.Stats, error) {
	posts, err := a.corpus(ctx, policyID)
	if err != nil {
		return sentiment.Stats{}, err
	}

	var stats sentiment.Stats
	for _, p := range posts {
		label, ok := countableLabel(p)
		if !ok {
			continue
		}

		switch label {
		case sentiment.LabelPositive:
			stats.Positive++
		case sentiment.LabelNegative:
			stats.Negative++
		case sentiment.LabelNeutral:
			stats.Neutral++
		}
		stats.Total++
	}

	return stats, nil
}

// Trend returns date-bucketed counts for a policy. The whole corpus
// participates at every granularity; the granularity only picks the
// bucket key format, day buckets for week and month, calendar-month
// buckets for all-time. Buckets are keyed by formatted date strings and
// returned in ascending key order, which for these formats is
// chronological order.
func (a *Aggregator) Trend(ctx context.Context, policyID string, granularity sentiment.Granularity) ([]sentiment.TrendPoint, error) {
	keyFormat, err := bucketKeyFormat(granularity)
	if err != nil {
		return nil, err
	}

	posts, err := a.corpus(ctx, policyID)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*sentiment.TrendPoint)
	for _, p := range posts {
		label, ok := countableLabel(p)
		if !ok {
			continue
		}

		key := p.CreatedAt.Format(keyFormat)
		point, ok := buckets[key]
		if !ok {
			point = &sentiment.TrendPoint{Date: key}
			buckets[key] = point
		}

		switch label {
		case sentiment.LabelPositive:
			point.Positive++
		case sentiment.LabelNegative:
			point.Negative++
		case sentiment.LabelNeutral:
			point.Neutral++
		}
		point.Total++
	}

	if len(buckets) == 0 && a.emptyPlaceholder {
		return []sentiment.TrendPoint{{Date: a.now().Format(keyFormat)}}, nil
	}

	points := make([]sentiment.TrendPoint, 0, len(buckets))
	for _, point := range buckets {
		points = append(points, *point)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})

	return points, nil
}

// bucketKeyFormat maps a granularity to its bucket key format. The
// granularity never filters posts; it only bounds how many distinct
// buckets the corpus can spread across.
func bucketKeyFormat(granularity sentiment.Granularity) (string, error) {
	switch granularity {
	case sentiment.GranularityWeek, sentiment.GranularityMonth:
		return dayKey, nil
	case sentiment.GranularityAll:
		return monthKey, nil
	default:
		return "", fmt.Errorf("unsupported granularity %q", granularity)
	}
}

// corpus loads every post for the policy, failing with policy.ErrNotFound
// when the policy itself does not exist.
func (a *Aggregator) corpus(ctx context.Context, policyID string) ([]post.Post, error) {
	if _, err := a.policies.Get(ctx, policyID); err != nil {
		return nil, err
	}

	return a.posts.FindByPolicy(ctx, policyID, 0)
}

// countableLabel extracts the label of a post if it should be counted.
// Posts without a sentiment record are skipped, as are records whose label
// fell outside the known set.
func countableLabel(p post.Post) (sentiment.Label, bool) {
	if p.Sentiment == nil {
		return "", false
	}
	if !p.Sentiment.Label.Recognized() {
		return "", false
	}
	return p.Sentiment.Label, true
}
