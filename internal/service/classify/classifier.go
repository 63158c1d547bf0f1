// internal/service/classify/classifier.go

package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"policypulse/internal/domain/sentiment"
)

// ErrModelUnavailable is returned when the underlying model cannot be
// loaded or fails to produce a prediction.
var ErrModelUnavailable = errors.New("sentiment model unavailable")

// Neutral confidence band. A prediction whose confidence falls inside the
// band is reported as neutral regardless of its binary polarity: the
// model's own uncertainty is treated as evidence of neutrality. The bounds
// are a convention carried over from the model evaluation, kept tunable.
var (
	neutralBandLow  = 0.45
	neutralBandHigh = 0.55
)

// Prediction is the raw output of a binary sentiment model
type Prediction struct {
	// Label is the model's polarity label, e.g. "POSITIVE" or "LABEL_0"
	Label string

	// Confidence is the model's confidence magnitude in [0,1]
	Confidence float64
}

// Model is the underlying binary text-classification model
type Model interface {
	// Load prepares the model for inference. Expensive; called at most
	// once per process lifetime unless it fails.
	Load(ctx context.Context) error

	// Infer scores a single text
	Infer(ctx context.Context, text string) (Prediction, error)
}

type request struct {
	id   string
	text string
}

type response struct {
	id     string
	result sentiment.Result
	err    error
}

// Service runs the sentiment model on a dedicated worker goroutine so that
// model load and inference never block request handling. Callers tag each
// call with a correlation ID and suspend on a reply channel; the worker
// routes every response back to its originating caller by that ID and
// processes requests to completion, one at a time.
//
// The model is process-wide state: loaded lazily on first use, shared by
// all callers, and treated as read-only afterwards. Callers that arrive
// while the first load is still in flight queue behind it and are released
// once it completes; a failed load fails only the call that triggered it
// and the next call retries.
type Service struct {
	model    Model
	requests chan request
	done     chan struct{}

	mu      sync.Mutex
	waiters map[string]chan response

	startOnce sync.Once
	stopOnce  sync.Once
}

var _ sentiment.Classifier = (*Service)(nil)

// New creates a classifier service around a model backend. The worker
// goroutine starts lazily on the first Classify call and lives for the
// rest of the process.
func New(model Model) *Service {
	return &Service{
		model:    model,
		requests: make(chan request, 64),
		done:     make(chan struct{}),
		waiters:  make(map[string]chan response),
	}
}

// Classify scores a single text and returns a normalized three-way result
func (s *Service) Classify(ctx context.Context, text string) (sentiment.Result, error) {
	if strings.TrimSpace(text) == "" {
		return sentiment.Result{}, sentiment.ErrEmptyText
	}

	s.startOnce.Do(func() {
		go s.run()
	})

	id := uuid.New().String()
	reply := make(chan response, 1)

	s.mu.Lock()
	s.waiters[id] = reply
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.waiters, id)
		s.mu.Unlock()
	}()

	select {
	case s.requests <- request{id: id, text: text}:
	case <-s.done:
		return sentiment.Result{}, fmt.Errorf("%w: service stopped", ErrModelUnavailable)
	case <-ctx.Done():
		return sentiment.Result{}, ctx.Err()
	}

	select {
	case resp := <-reply:
		return resp.result, resp.err
	case <-s.done:
		// The worker may have replied just before shutting down
		select {
		case resp := <-reply:
			return resp.result, resp.err
		default:
		}
		return sentiment.Result{}, fmt.Errorf("%w: service stopped", ErrModelUnavailable)
	case <-ctx.Done():
		return sentiment.Result{}, ctx.Err()
	}
}

// Stop terminates the worker goroutine. Classify calls racing past the
// stop fail with ErrModelUnavailable instead of blocking.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// run is the worker loop. It owns the model exclusively: load state never
// escapes this goroutine.
func (s *Service) run() {
	loaded := false

	for {
		var req request
		select {
		case <-s.done:
			return
		case req = <-s.requests:
		}

		if !loaded {
			if err := s.model.Load(context.Background()); err != nil {
				s.dispatch(response{
					id:  req.id,
					err: fmt.Errorf("%w: load failed: %v", ErrModelUnavailable, err),
				})
				continue
			}
			loaded = true
		}

		result, err := s.infer(req.text)
		s.dispatch(response{id: req.id, result: result, err: err})
	}
}

func (s *Service) infer(text string) (sentiment.Result, error) {
	pred, err := s.model.Infer(context.Background(), text)
	if err != nil {
		return sentiment.Result{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	return Normalize(pred), nil
}

// Normalize converts a raw binary prediction into the three-way result,
// applying the neutral override band. Score and Confidence both carry the
// raw magnitude; downstream sources may supply them independently.
func Normalize(pred Prediction) sentiment.Result {
	raw := strings.ToLower(pred.Label)

	var label sentiment.Label
	switch {
	case strings.Contains(raw, "negative") || raw == "label_0":
		label = sentiment.LabelNegative
	case strings.Contains(raw, "positive") || raw == "label_1":
		label = sentiment.LabelPositive
	default:
		label = sentiment.LabelNeutral
	}

	if pred.Confidence >= neutralBandLow && pred.Confidence <= neutralBandHigh {
		label = sentiment.LabelNeutral
	}

	return sentiment.Result{
		Label:      label,
		Score:      pred.Confidence,
		Confidence: pred.Confidence,
	}
}

// dispatch routes a response to the waiter registered under its
// correlation ID. Waiters that gave up (context cancelled) have already
// deregistered; their responses are dropped.
func (s *Service) dispatch(resp response) {
	s.mu.Lock()
	reply, ok := s.waiters[resp.id]
	s.mu.Unlock()

	if ok {
		reply <- resp
	}
}
