package persistence

import (
	"context"
	"time"

	"router_server/core/domain"
	"router_server/core/port/out"

	"github.com/jmoiron/sqlx"
)

// PatternAdapter implements PatternStore on Postgres.
//
// Schema:
//
//	CREATE TABLE learning_patterns (
//	    id            BIGSERIAL PRIMARY KEY,
//	    pattern_type  TEXT NOT NULL,
//	    pattern_key   TEXT NOT NULL,
//	    pattern_value TEXT NOT NULL,
//	    usage_count   INT NOT NULL DEFAULT 0,
//	    confidence    DOUBLE PRECISION NOT NULL DEFAULT 0,
//	    last_used     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    UNIQUE (pattern_type, pattern_key, pattern_value)
//	);
//
//	CREATE TABLE routing_feedback (
//	    id               BIGSERIAL PRIMARY KEY,
//	    ticket_ref       TEXT NOT NULL,
//	    original_intent  TEXT NOT NULL,
//	    corrected_intent TEXT NOT NULL,
//	    original_team    TEXT NOT NULL,
//	    corrected_team   TEXT NOT NULL,
//	    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PatternAdapter struct {
	db *sqlx.DB
}

// NewPatternAdapter creates a new PatternAdapter
func NewPatternAdapter(db *sqlx.DB) *PatternAdapter {
	return &PatternAdapter{db: db}
}

// Ensure PatternAdapter implements PatternStore
var _ out.PatternStore = (*PatternAdapter)(nil)

// patternRow represents the database row
type patternRow struct {
	ID          int64     `db:"id"`
	PatternType string    `db:"pattern_type"`
	Key         string    `db:"pattern_key"`
	Value       string    `db:"pattern_value"`
	UsageCount  int       `db:"usage_count"`
	Confidence  float64   `db:"confidence"`
	LastUsed    time.Time `db:"last_used"`
}

// UpsertPattern applies usageDelta to a pattern, creating it if absent. The
// usage count floors at zero and confidence is recomputed in the same
// statement: usage / (usage + smoothing), smoothing matching
// domain.PatternSmoothing.
func (a *PatternAdapter) UpsertPattern(ctx context.Context, patternType domain.PatternType, key, value string, usageDelta int) error {
	query := `
		INSERT INTO learning_patterns (pattern_type, pattern_key, pattern_value, usage_count, confidence, last_used)
		VALUES ($1, $2, $3,
			GREATEST(0, $4),
			GREATEST(0, $4)::double precision / (GREATEST(0, $4) + 5.0),
			NOW())
		ON CONFLICT (pattern_type, pattern_key, pattern_value) DO UPDATE SET
			usage_count = GREATEST(0, learning_patterns.usage_count + $4),
			confidence = GREATEST(0, learning_patterns.usage_count + $4)::double precision
				/ (GREATEST(0, learning_patterns.usage_count + $4) + 5.0),
			last_used = NOW()
	`

	_, err := a.db.ExecContext(ctx, query, string(patternType), key, value, usageDelta)
	return err
}

// ListPatterns returns patterns of the given type, or every pattern when
// patternType is empty.
func (a *PatternAdapter) ListPatterns(ctx context.Context, patternType domain.PatternType) ([]domain.LearningPattern, error) {
	query := `
		SELECT id, pattern_type, pattern_key, pattern_value, usage_count, confidence, last_used
		FROM learning_patterns
		WHERE ($1 = '' OR pattern_type = $1)
		ORDER BY id
	`

	var rows []patternRow
	if err := a.db.SelectContext(ctx, &rows, query, string(patternType)); err != nil {
		return nil, err
	}

	patterns := make([]domain.LearningPattern, len(rows))
	for i, row := range rows {
		patterns[i] = domain.LearningPattern{
			ID:          row.ID,
			PatternType: domain.PatternType(row.PatternType),
			Key:         row.Key,
			Value:       row.Value,
			UsageCount:  row.UsageCount,
			Confidence:  row.Confidence,
			LastUsed:    row.LastUsed,
		}
	}
	return patterns, nil
}

// RecordFeedback appends an immutable reassignment record.
func (a *PatternAdapter) RecordFeedback(ctx context.Context, record *domain.FeedbackRecord) error {
	query := `
		INSERT INTO routing_feedback (ticket_ref, original_intent, corrected_intent, original_team, corrected_team, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return a.db.QueryRowxContext(
		ctx, query,
		record.TicketRef,
		string(record.OriginalIntent),
		string(record.CorrectedIntent),
		record.OriginalTeam,
		record.CorrectedTeam,
		createdAt,
	).Scan(&record.ID)
}

// CountFeedback returns the number of recorded feedback rows.
func (a *PatternAdapter) CountFeedback(ctx context.Context) (int64, error) {
	var count int64
	err := a.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM routing_feedback`)
	return count, err
}
