package domain

import "time"

// PatternType represents the kind of learned association.
type PatternType string

const (
	// PatternIntentKeyword associates a keyword with an intent.
	// Key = intent, Value = keyword.
	PatternIntentKeyword PatternType = "intent_keyword"

	// PatternTeamIntent associates an intent with an assigned team.
	// Key = team, Value = intent.
	PatternTeamIntent PatternType = "team_intent"
)

// LearningPattern is a persisted statistical association derived from
// historical routing outcomes. (PatternType, Key, Value) is the natural key;
// re-observation increments UsageCount and recomputes Confidence rather than
// duplicating rows.
type LearningPattern struct {
	ID          int64       `json:"id"`
	PatternType PatternType `json:"pattern_type"`
	Key         string      `json:"key"`
	Value       string      `json:"value"`
	Confidence  float64     `json:"confidence"`
	UsageCount  int         `json:"usage_count"`
	LastUsed    time.Time   `json:"last_used"`
}

// PatternSmoothing is the smoothing constant of the pattern confidence
// formula usage/(usage+smoothing). Confidence approaches 1 asymptotically as
// a token is repeatedly associated with an intent, so rare coincidental
// matches contribute little.
const PatternSmoothing = 5.0

// PatternConfidence computes the confidence for a usage count.
func PatternConfidence(usageCount int) float64 {
	if usageCount <= 0 {
		return 0
	}
	n := float64(usageCount)
	return n / (n + PatternSmoothing)
}

// FeedbackRecord captures a manual reassignment of an already-routed ticket.
// Records are append-only and immutable once created.
type FeedbackRecord struct {
	ID              int64     `json:"id"`
	TicketRef       string    `json:"ticket_ref"`
	OriginalIntent  Intent    `json:"original_intent"`
	CorrectedIntent Intent    `json:"corrected_intent"`
	OriginalTeam    string    `json:"original_team"`
	CorrectedTeam   string    `json:"corrected_team"`
	CreatedAt       time.Time `json:"created_at"`
}
