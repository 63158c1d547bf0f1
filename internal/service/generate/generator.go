// internal/service/generate/generator.go

package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"policypulse/internal/adapter/memcache"
	"policypulse/internal/config"
	"policypulse/internal/domain/post"
	"policypulse/internal/service/ingest"
)

// sentimentMix weights the distribution requested from the provider and
// used by the fallback synthesizer.
var sentimentMix = []string{
	"positive", "positive",
	"negative", "negative",
	"neutral",
}

// Service produces synthetic social posts about a policy topic. Batches
// are cached briefly so that a burst of collect calls for the same policy
// does not hammer the provider, and a provider outage degrades to locally
// synthesized content instead of an empty collection round.
type Service struct {
	provider TextProvider
	cache    *memcache.Cache
	maxPosts int
	now      func() time.Time
}

var _ ingest.Generator = (*Service)(nil)

// NewService creates a generation service backed by the given provider
func NewService(provider TextProvider, cfg config.GenerateConfig) *Service {
	return &Service{
		provider: provider,
		cache:    memcache.New(cfg.CacheExpiry, cfg.CacheMaxEntries),
		maxPosts: cfg.MaxPosts,
		now:      time.Now,
	}
}

// generatedPost is the shape each array element must take in the
// provider's JSON reply.
type generatedPost struct {
	Text      string `json:"text"`
	Author    string `json:"author"`
	Sentiment string `json:"sentiment"`
}

// Generate returns count candidate posts for the keywords. The provider
// reply is cached per keyword set and minute; on provider or parse
// failure the whole batch is synthesized locally, and an under-delivering
// provider is topped up the same way.
func (s *Service) Generate(ctx context.Context, keywords []string, description string, count int) ([]post.Candidate, error) {
	if count <= 0 || count > s.maxPosts {
		count = s.maxPosts
	}

	key := fmt.Sprintf("%s|%s|%d|%s",
		strings.Join(keywords, ","), description, count, s.now().Format("2006-01-02T15:04"))
	if cached, ok := s.cache.Get(key); ok {
		if candidates, ok := cached.([]post.Candidate); ok {
			return candidates, nil
		}
	}

	candidates, err := s.fromProvider(ctx, keywords, description, count)
	if err != nil {
		if ctx.Err() != nil {
			return candidates, ctx.Err()
		}
		log.Printf("content provider failed for keywords %v, synthesizing locally: %v", keywords, err)
	}

	if len(candidates) < count {
		candidates = append(candidates, s.synthesize(keywords, count-len(candidates))...)
	}
	if len(candidates) > count {
		candidates = candidates[:count]
	}

	s.cache.Set(key, candidates)

	return candidates, nil
}

// fromProvider asks the text provider for a batch and parses its reply
func (s *Service) fromProvider(ctx context.Context, keywords []string, description string, count int) ([]post.Candidate, error) {
	raw, err := s.provider.GenerateText(ctx, buildPrompt(keywords, description, count))
	if err != nil {
		return nil, err
	}

	return s.parseCandidates(raw)
}

// buildPrompt writes the generation instruction. The reply contract is a
// bare JSON array so parsing stays format-driven rather than
// conversation-driven.
func buildPrompt(keywords []string, description string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d realistic short social media posts about the policy topic described by the keywords: %s.\n",
		count, strings.Join(keywords, ", "))
	if description != "" {
		fmt.Fprintf(&b, "Topic background: %s\n", description)
	}
	b.WriteString("Mix the opinions: roughly 40% positive, 40% negative, 20% neutral.\n")
	b.WriteString("Respond with ONLY a JSON array, no prose and no code fences. ")
	b.WriteString(`Each element must be {"text": string, "author": string, "sentiment": "positive"|"negative"|"neutral"}.`)
	return b.String()
}

// parseCandidates extracts the JSON array from the provider's reply.
// Models wrap arrays in prose or code fences often enough that scanning
// for the outermost brackets is more reliable than strict decoding.
func (s *Service) parseCandidates(raw string) ([]post.Candidate, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in provider reply")
	}

	var parsed []generatedPost
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("parsing provider reply: %w", err)
	}

	now := s.now()
	batch := now.UnixMilli()

	candidates := make([]post.Candidate, 0, len(parsed))
	for i, gp := range parsed {
		if strings.TrimSpace(gp.Text) == "" {
			continue
		}

		author := gp.Author
		if author == "" {
			author = fmt.Sprintf("user_%d", rand.Intn(100000))
		}

		candidates = append(candidates, post.Candidate{
			ExternalID:    fmt.Sprintf("synthetic-%d-%d", batch, i),
			Text:          gp.Text,
			Author:        author,
			CreatedAt:     now,
			SentimentHint: gp.Sentiment,
		})
	}

	return candidates, nil
}

var fallbackTemplates = map[string][]string{
	"positive": {
		"Finally some progress on %s. This is what we voted for!",
		"Really encouraged by the new direction on %s. Long overdue.",
		"The latest %s announcement is a genuine step forward.",
	},
	"negative": {
		"Another empty promise on %s. Who actually benefits from this?",
		"The %s plan is going to hurt the people it claims to help.",
		"Can't believe they're pushing this %s nonsense through.",
	},
	"neutral": {
		"Reading through the details of the %s proposal now.",
		"Curious how the %s changes will play out over the next year.",
		"The %s debate continues. Both sides raising fair points.",
	},
}

// synthesize produces locally generated candidates when the provider is
// unavailable or under-delivers.
func (s *Service) synthesize(keywords []string, count int) []post.Candidate {
	topic := "this policy"
	if len(keywords) > 0 {
		topic = keywords[rand.Intn(len(keywords))]
	}

	now := s.now()
	batch := now.UnixMilli()

	candidates := make([]post.Candidate, 0, count)
	for i := 0; i < count; i++ {
		hint := sentimentMix[rand.Intn(len(sentimentMix))]
		templates := fallbackTemplates[hint]
		text := fmt.Sprintf(templates[rand.Intn(len(templates))], topic)

		candidates = append(candidates, post.Candidate{
			ExternalID:    fmt.Sprintf("fallback-%d-%d", batch, i),
			Text:          fmt.Sprintf("%s (#%d)", text, i+1),
			Author:        fmt.Sprintf("user_%d", rand.Intn(100000)),
			CreatedAt:     now,
			SentimentHint: hint,
		})
	}

	return candidates
}
