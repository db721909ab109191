package classification

import (
	"context"
	"errors"
	"testing"
	"time"

	"router_server/core/domain"
	"router_server/core/port/out"
	"router_server/pkg/apperr"
)

// fakeClassifier is a scripted SemanticClassifier for tests.
type fakeClassifier struct {
	resp  *out.SemanticClassification
	err   error
	calls int
}

func (f *fakeClassifier) ClassifyText(ctx context.Context, text string, categories []domain.Intent) (*out.SemanticClassification, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestSemanticClassifySuccess(t *testing.T) {
	fake := &fakeClassifier{
		resp: &out.SemanticClassification{
			Intent:     "billing_finance",
			Urgency:    "high",
			Confidence: 0.92,
			Reasoning:  "Disputed invoice charge",
			Entities:   []string{"$500", "invoice", "invoice"},
			Sentiment:  "negative",
		},
	}
	a := NewSemanticAdapter(fake, time.Second)

	result, err := a.Classify(context.Background(), "Invoice question", "A $500 charge we never authorized")
	if err != nil {
		t.Fatal(err)
	}

	if result.Intent != domain.IntentBillingFinance {
		t.Errorf("expected billing_finance, got %s", result.Intent)
	}
	if result.Urgency != domain.UrgencyHigh {
		t.Errorf("expected high, got %s", result.Urgency)
	}
	if result.Source != domain.SourceSemantic {
		t.Errorf("expected semantic source, got %s", result.Source)
	}
	if len(result.Entities) != 2 {
		t.Errorf("expected deduplicated entities, got %v", result.Entities)
	}
}

func TestSemanticClassifyCoercion(t *testing.T) {
	fake := &fakeClassifier{
		resp: &out.SemanticClassification{
			Intent:     "Banking Stuff",
			Urgency:    "extreme",
			Confidence: 1.7,
			Sentiment:  "angry",
		},
	}
	a := NewSemanticAdapter(fake, time.Second)

	result, err := a.Classify(context.Background(), "subject", "body")
	if err != nil {
		t.Fatal(err)
	}

	if result.Intent != domain.IntentGeneralSupport {
		t.Errorf("expected coerced general_support, got %s", result.Intent)
	}
	if result.Urgency != domain.UrgencyMedium {
		t.Errorf("expected coerced medium, got %s", result.Urgency)
	}
	if result.Sentiment != domain.SentimentNeutral {
		t.Errorf("expected coerced neutral, got %s", result.Sentiment)
	}
	if result.Confidence != 1.0 {
		t.Errorf("expected clamped confidence 1.0, got %.2f", result.Confidence)
	}
}

func TestSemanticClassifyCaseInsensitiveIntent(t *testing.T) {
	fake := &fakeClassifier{
		resp: &out.SemanticClassification{
			Intent:     " Technical_Support ",
			Urgency:    "CRITICAL",
			Confidence: 0.8,
			Sentiment:  "urgent",
		},
	}
	a := NewSemanticAdapter(fake, time.Second)

	result, err := a.Classify(context.Background(), "subject", "body")
	if err != nil {
		t.Fatal(err)
	}
	if result.Intent != domain.IntentTechnicalSupport {
		t.Errorf("expected technical_support, got %s", result.Intent)
	}
	if result.Urgency != domain.UrgencyCritical {
		t.Errorf("expected critical, got %s", result.Urgency)
	}
}

func TestSemanticClassifyFailure(t *testing.T) {
	fake := &fakeClassifier{err: errors.New("upstream 500")}
	a := NewSemanticAdapter(fake, time.Second)

	_, err := a.Classify(context.Background(), "subject", "body")
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperr.IsClassificationUnavailable(err) {
		t.Errorf("expected CLASSIFICATION_UNAVAILABLE, got %v", err)
	}
}

func TestSemanticClassifyNilClassifier(t *testing.T) {
	a := NewSemanticAdapter(nil, time.Second)

	_, err := a.Classify(context.Background(), "subject", "body")
	if !apperr.IsClassificationUnavailable(err) {
		t.Errorf("expected CLASSIFICATION_UNAVAILABLE, got %v", err)
	}
}

func TestSemanticCircuitBreakerOpens(t *testing.T) {
	fake := &fakeClassifier{err: errors.New("upstream down")}
	a := NewSemanticAdapter(fake, time.Second)

	// Trip the breaker with consecutive failures.
	for i := 0; i < 10; i++ {
		a.Classify(context.Background(), "subject", "body")
	}

	callsBefore := fake.calls
	if _, err := a.Classify(context.Background(), "subject", "body"); !apperr.IsClassificationUnavailable(err) {
		t.Errorf("expected CLASSIFICATION_UNAVAILABLE, got %v", err)
	}
	if fake.calls != callsBefore {
		t.Error("expected open breaker to short-circuit the call")
	}
}
