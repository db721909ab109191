package classification

import (
	"context"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"router_server/core/domain"
	"router_server/core/port/out"
	"router_server/core/service/extraction"
	"router_server/pkg/apperr"
	"router_server/pkg/logger"
)

// SemanticAdapter wraps the external semantic classification capability and
// normalizes its output into the same shape as the fallback. Failures are
// reported as CLASSIFICATION_UNAVAILABLE so the orchestrator can fall back
// silently.
type SemanticAdapter struct {
	classifier out.SemanticClassifier
	timeout    time.Duration
	cb         *gobreaker.CircuitBreaker
	log        *logger.Logger
}

// NewSemanticAdapter creates a semantic adapter with a circuit breaker around
// the external call.
func NewSemanticAdapter(classifier out.SemanticClassifier, timeout time.Duration) *SemanticAdapter {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	cbSettings := gobreaker.Settings{
		Name:        "semantic-classifier",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
	}

	return &SemanticAdapter{
		classifier: classifier,
		timeout:    timeout,
		cb:         gobreaker.NewCircuitBreaker(cbSettings),
		log:        logger.Default().WithField("component", "semantic_adapter"),
	}
}

// Classify calls the external capability with a bounded timeout and coerces
// the response into domain invariants. A nil classifier, breaker-open state,
// timeout, or malformed output all surface as CLASSIFICATION_UNAVAILABLE.
func (a *SemanticAdapter) Classify(ctx context.Context, subject, body string) (*domain.ClassificationResult, error) {
	if a.classifier == nil {
		return nil, apperr.ClassificationUnavailable(nil)
	}

	text := extraction.CombineText(subject, body)

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.cb.Execute(func() (interface{}, error) {
		return a.classifier.ClassifyText(callCtx, text, domain.AllIntents)
	})
	if err != nil {
		return nil, apperr.ClassificationUnavailable(err)
	}

	resp, ok := raw.(*out.SemanticClassification)
	if !ok || resp == nil {
		return nil, apperr.ClassificationUnavailable(nil)
	}

	return a.coerce(resp), nil
}

// coerce validates the raw response against the domain invariants and pulls
// out-of-range values to the nearest valid one. Coercions are warnings, not
// errors.
func (a *SemanticAdapter) coerce(resp *out.SemanticClassification) *domain.ClassificationResult {
	intent := domain.Intent(strings.ToLower(strings.TrimSpace(resp.Intent)))
	if !intent.IsValid() {
		a.log.Warn("%v", apperr.UnknownCategoryCoerced(resp.Intent))
		intent = domain.IntentGeneralSupport
	}

	urgency := domain.Urgency(strings.ToLower(strings.TrimSpace(resp.Urgency)))
	if !urgency.IsValid() {
		a.log.Warn("unrecognized urgency %q coerced to medium", resp.Urgency)
		urgency = domain.UrgencyMedium
	}

	sentiment := domain.Sentiment(strings.ToLower(strings.TrimSpace(resp.Sentiment)))
	if !sentiment.IsValid() {
		sentiment = domain.SentimentNeutral
	}

	return &domain.ClassificationResult{
		Intent:     intent,
		Urgency:    urgency,
		Confidence: domain.ClampConfidence(resp.Confidence),
		Reasoning:  resp.Reasoning,
		Entities:   dedupeEntities(resp.Entities),
		Sentiment:  sentiment,
		Source:     domain.SourceSemantic,
	}
}

// dedupeEntities preserves order while dropping duplicates and blanks.
func dedupeEntities(entities []string) []string {
	var out []string
	seen := make(map[string]bool, len(entities))
	for _, e := range entities {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		key := strings.ToLower(e)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}
