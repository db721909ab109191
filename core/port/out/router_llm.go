package out

import (
	"context"

	"router_server/core/domain"
)

// SemanticClassification is the raw output of the external semantic
// classification capability. Values are unvalidated; the semantic adapter
// coerces them into domain invariants.
type SemanticClassification struct {
	Intent     string   `json:"intent"`
	Urgency    string   `json:"urgency"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Entities   []string `json:"entities"`
	Sentiment  string   `json:"sentiment"`
}

// SemanticClassifier is the outbound port for the hosted language-model
// classification capability. Treated as unreliable: every call site must have
// a non-AI fallback.
type SemanticClassifier interface {
	ClassifyText(ctx context.Context, text string, categories []domain.Intent) (*SemanticClassification, error)
}
