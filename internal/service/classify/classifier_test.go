package classify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"policypulse/internal/domain/sentiment"
)

// fakeModel implements Model for testing.
type fakeModel struct {
	loadDelay time.Duration
	loadErr   error
	loads     int32

	mu          sync.Mutex
	predictions map[string]Prediction
	inferErr    error
}

func (m *fakeModel) Load(_ context.Context) error {
	atomic.AddInt32(&m.loads, 1)
	if m.loadDelay > 0 {
		time.Sleep(m.loadDelay)
	}
	return m.loadErr
}

func (m *fakeModel) Infer(_ context.Context, text string) (Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inferErr != nil {
		return Prediction{}, m.inferErr
	}
	if pred, ok := m.predictions[text]; ok {
		return pred, nil
	}
	return Prediction{Label: "POSITIVE", Confidence: 0.9}, nil
}

func TestNormalizeNeutralBand(t *testing.T) {
	for _, confidence := range []float64{0.45, 0.46, 0.5, 0.54, 0.55} {
		for _, polarity := range []string{"POSITIVE", "NEGATIVE", "LABEL_0", "LABEL_1"} {
			result := Normalize(Prediction{Label: polarity, Confidence: confidence})
			if result.Label != sentiment.LabelNeutral {
				t.Errorf("confidence %.2f polarity %s: expected neutral, got %s",
					confidence, polarity, result.Label)
			}
		}
	}
}

func TestNormalizeOutsideBand(t *testing.T) {
	tests := []struct {
		polarity   string
		confidence float64
		want       sentiment.Label
	}{
		{"NEGATIVE", 0.92, sentiment.LabelNegative},
		{"NEGATIVE", 0.44, sentiment.LabelNegative},
		{"POSITIVE", 0.56, sentiment.LabelPositive},
		{"POSITIVE", 0.99, sentiment.LabelPositive},
		{"LABEL_0", 0.80, sentiment.LabelNegative},
		{"LABEL_1", 0.80, sentiment.LabelPositive},
	}

	for _, tt := range tests {
		result := Normalize(Prediction{Label: tt.polarity, Confidence: tt.confidence})
		if result.Label != tt.want {
			t.Errorf("polarity %s confidence %.2f: expected %s, got %s",
				tt.polarity, tt.confidence, tt.want, result.Label)
		}
		if result.Score != tt.confidence || result.Confidence != tt.confidence {
			t.Errorf("expected score and confidence to carry the raw magnitude %.2f, got %.2f/%.2f",
				tt.confidence, result.Score, result.Confidence)
		}
	}
}

func TestClassifyRejectsEmptyInput(t *testing.T) {
	svc := New(&fakeModel{})

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Classify(context.Background(), text); !errors.Is(err, sentiment.ErrEmptyText) {
			t.Errorf("text %q: expected ErrEmptyText, got %v", text, err)
		}
	}

	// Rejection happens before the worker is involved, so the model must
	// never have been loaded.
	model := &fakeModel{}
	svc = New(model)
	svc.Classify(context.Background(), "  ")
	if atomic.LoadInt32(&model.loads) != 0 {
		t.Error("empty input must not trigger a model load")
	}
}

func TestClassifyScoresText(t *testing.T) {
	model := &fakeModel{
		predictions: map[string]Prediction{
			"This is a disaster": {Label: "NEGATIVE", Confidence: 0.92},
		},
	}
	svc := New(model)

	result, err := svc.Classify(context.Background(), "This is a disaster")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Label != sentiment.LabelNegative {
		t.Errorf("expected negative, got %s", result.Label)
	}
	if result.Score != 0.92 {
		t.Errorf("expected score 0.92, got %.2f", result.Score)
	}
}

func TestConcurrentFirstUseSharesOneLoad(t *testing.T) {
	model := &fakeModel{loadDelay: 50 * time.Millisecond}
	svc := New(model)

	const callers = 16
	var wg sync.WaitGroup
	errs := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Classify(context.Background(), "some text")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if loads := atomic.LoadInt32(&model.loads); loads != 1 {
		t.Errorf("expected exactly one model load, got %d", loads)
	}
}

func TestLoadFailureSurfacesAndRetries(t *testing.T) {
	model := &fakeModel{loadErr: errors.New("weights missing")}
	svc := New(model)

	if _, err := svc.Classify(context.Background(), "text"); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}

	// Once the backend recovers, the next call retries the load.
	model.loadErr = nil
	if _, err := svc.Classify(context.Background(), "text"); err != nil {
		t.Fatalf("expected recovery after load failure, got %v", err)
	}
	if loads := atomic.LoadInt32(&model.loads); loads != 2 {
		t.Errorf("expected a retried load, got %d loads", loads)
	}
}

func TestInferenceFailureIsClassificationError(t *testing.T) {
	model := &fakeModel{inferErr: errors.New("backend down")}
	svc := New(model)

	if _, err := svc.Classify(context.Background(), "text"); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestClassifyHonorsContextCancellation(t *testing.T) {
	model := &fakeModel{loadDelay: 200 * time.Millisecond}
	svc := New(model)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := svc.Classify(ctx, "text"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestClassifyAfterStop(t *testing.T) {
	model := &fakeModel{}
	svc := New(model)

	if _, err := svc.Classify(context.Background(), "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc.Stop()
	svc.Stop() // idempotent

	if _, err := svc.Classify(context.Background(), "text"); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable after stop, got %v", err)
	}
}
