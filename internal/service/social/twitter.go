// internal/service/social/twitter.go

package social

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	twitter "github.com/g8rswimmer/go-twitter/v2"

	"policypulse/internal/adapter/memcache"
	"policypulse/internal/config"
	"policypulse/internal/domain/post"
)

// ErrNotConfigured is returned when no bearer token is available.
var ErrNotConfigured = errors.New("Twitter bearer token not configured")

// ErrRateLimited is returned when the minimum request interval has not
// elapsed and no cached result is available for the query.
var ErrRateLimited = errors.New("social search rate limited")

// recentSearcher is the slice of the Twitter client this service uses.
// The concrete *twitter.Client satisfies it.
type recentSearcher interface {
	TweetRecentSearch(ctx context.Context, query string, opts twitter.TweetRecentSearchOpts) (*twitter.TweetRecentSearchResponse, error)
}

// bearerAuthorizer adds the bearer token to outgoing API requests
type bearerAuthorizer struct {
	token string
}

func (a bearerAuthorizer) Add(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.token)
}

// Service fetches recent real posts matching a policy's keywords. Results
// are cached per query so a burst of searches, or a search during the
// cool-down interval, is served without touching the API.
type Service struct {
	client      recentSearcher
	cache       *memcache.Cache
	configured  bool
	minInterval time.Duration

	mu          sync.Mutex
	lastRequest time.Time

	now func() time.Time
}

// NewService creates a social search service. With an empty bearer token
// the service is constructed but every search fails with ErrNotConfigured.
func NewService(cfg config.TwitterConfig) *Service {
	svc := &Service{
		cache:       memcache.New(cfg.CacheExpiry, cfg.CacheMaxEntries),
		configured:  cfg.BearerToken != "",
		minInterval: cfg.MinRequestInterval,
		now:         time.Now,
	}

	if svc.configured {
		svc.client = &twitter.Client{
			Authorizer: bearerAuthorizer{token: cfg.BearerToken},
			Client:     http.DefaultClient,
			Host:       "https://api.twitter.com",
		}
	}

	return svc
}

// Search returns recent posts matching the keywords. At most the first
// two keywords participate in the query to keep it inside the API's
// operator limits. During the cool-down interval, and on API failure,
// cached results for the same query are served instead.
func (s *Service) Search(ctx context.Context, keywords []string) ([]post.Candidate, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("no keywords to search for")
	}

	query := buildQuery(keywords)

	s.mu.Lock()
	coolingDown := s.now().Sub(s.lastRequest) < s.minInterval
	if !coolingDown {
		s.lastRequest = s.now()
	}
	s.mu.Unlock()

	if coolingDown {
		if cached, ok := s.cache.Get(query); ok {
			if candidates, ok := cached.([]post.Candidate); ok {
				return candidates, nil
			}
		}
		return nil, ErrRateLimited
	}

	resp, err := s.client.TweetRecentSearch(ctx, query, twitter.TweetRecentSearchOpts{
		MaxResults:  10,
		TweetFields: []twitter.TweetField{twitter.TweetFieldCreatedAt, twitter.TweetFieldAuthorID},
	})
	if err != nil {
		if cached, ok := s.cache.Get(query); ok {
			if candidates, ok := cached.([]post.Candidate); ok {
				log.Printf("social search failed for %q, serving cached results: %v", query, err)
				return candidates, nil
			}
		}
		return nil, fmt.Errorf("searching recent posts: %w", err)
	}

	candidates := candidatesFromTweets(resp.Raw.Tweets)
	s.cache.Set(query, candidates)

	return candidates, nil
}

// buildQuery joins up to two keywords with OR and filters out retweets
func buildQuery(keywords []string) string {
	terms := keywords
	if len(terms) > 2 {
		terms = terms[:2]
	}
	return fmt.Sprintf("(%s) -is:retweet lang:en", strings.Join(terms, " OR "))
}

// candidatesFromTweets converts API tweet objects into ingestion
// candidates. Tweets carry no sentiment hint; classification happens at
// ingest time.
func candidatesFromTweets(tweets []*twitter.TweetObj) []post.Candidate {
	candidates := make([]post.Candidate, 0, len(tweets))
	for _, t := range tweets {
		if t == nil || t.Text == "" {
			continue
		}

		createdAt, err := time.Parse(time.RFC3339, t.CreatedAt)
		if err != nil {
			createdAt = time.Time{}
		}

		candidates = append(candidates, post.Candidate{
			ExternalID: t.ID,
			Text:       t.Text,
			Author:     t.AuthorID,
			CreatedAt:  createdAt,
		})
	}
	return candidates
}
