package out

import (
	"context"

	"router_server/core/domain"
)

// PatternStore is the outbound port for persisted learning state. The
// Learning System is its sole writer; classifiers only read snapshots built
// from ListPatterns.
type PatternStore interface {
	// UpsertPattern applies usageDelta to the (patternType, key, value)
	// pattern, creating it if absent. The stored usage count never goes below
	// zero and confidence is recomputed from the resulting count.
	UpsertPattern(ctx context.Context, patternType domain.PatternType, key, value string, usageDelta int) error

	// ListPatterns returns patterns of the given type, or all patterns when
	// patternType is empty.
	ListPatterns(ctx context.Context, patternType domain.PatternType) ([]domain.LearningPattern, error)

	// RecordFeedback appends an immutable reassignment record.
	RecordFeedback(ctx context.Context, record *domain.FeedbackRecord) error

	// CountFeedback returns the number of recorded feedback rows.
	CountFeedback(ctx context.Context) (int64, error)
}
