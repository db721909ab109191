// Package learning implements the adaptive learning loop: it observes routing
// outcomes, maintains the persisted pattern store, and periodically rebuilds
// the immutable snapshot the classifiers and the routing engine read.
package learning

import (
	"context"
	"sync"
	"time"

	"router_server/core/domain"
	"router_server/core/port/out"
	"router_server/core/service/classification"
	"router_server/core/service/extraction"
	"router_server/pkg/apperr"
	"router_server/pkg/logger"
)

// maxKeywordsPerTicket bounds how many tokens of a single ticket are learned,
// so a long rambling message cannot flood the pattern table.
const maxKeywordsPerTicket = 12

// historyRebuildLimit caps how many historical events RebuildFromHistory
// replays in one pass.
const historyRebuildLimit = 500

// Stats summarizes the current state of the learning loop.
type Stats struct {
	KeywordPatterns  int       `json:"keyword_patterns"`
	TeamPatterns     int       `json:"team_patterns"`
	FeedbackRecords  int64     `json:"feedback_records"`
	ObservedTickets  int64     `json:"observed_tickets"`
	SnapshotBuiltAt  time.Time `json:"snapshot_built_at"`
	SnapshotPatterns int       `json:"snapshot_patterns"`
}

// Learner is the sole writer of the pattern store. Observation is best-effort:
// a store failure is logged and skipped, never propagated to the routing
// pipeline.
type Learner struct {
	store     out.PatternStore
	events    out.RoutingEventLog
	snapshots *classification.SnapshotHolder
	log       *logger.Logger

	refreshEvery int

	mu       sync.Mutex
	observed int64
	sinceRef int
}

// NewLearner creates a learner that refreshes the snapshot every refreshEvery
// observed tickets.
func NewLearner(store out.PatternStore, events out.RoutingEventLog, snapshots *classification.SnapshotHolder, refreshEvery int) *Learner {
	if refreshEvery <= 0 {
		refreshEvery = 10
	}
	return &Learner{
		store:        store,
		events:       events,
		snapshots:    snapshots,
		log:          logger.Default().WithField("component", "learner"),
		refreshEvery: refreshEvery,
	}
}

// ObserveDecision learns from one routing decision: ticket keywords reinforce
// the decided intent, and the decided team reinforces the intent→team mapping.
// Low-confidence decisions are skipped entirely; learning from guesses would
// reinforce the guessing.
func (l *Learner) ObserveDecision(ctx context.Context, evt *out.RouteDecisionEvent) {
	if evt == nil || l.store == nil {
		return
	}
	if evt.NeedsReview || !evt.Intent.IsValid() {
		return
	}

	log := l.log.WithTicket(evt.TicketRef)

	for _, token := range learnableTokens(evt.Text) {
		if err := l.store.UpsertPattern(ctx, domain.PatternIntentKeyword, string(evt.Intent), token, 1); err != nil {
			log.WithError(err).Warn("keyword pattern upsert failed, skipping")
			break
		}
	}

	if domain.ValidTeam(evt.Team) {
		if err := l.store.UpsertPattern(ctx, domain.PatternTeamIntent, evt.Team, string(evt.Intent), 1); err != nil {
			log.WithError(err).Warn("team pattern upsert failed, skipping")
		}
	}

	l.bumpAndMaybeRefresh(ctx)
}

// ApplyFeedback records a manual reassignment and adjusts the patterns that
// produced the misroute: keywords of the ticket decay under the original
// intent and reinforce the corrected one, and the corrected team→intent
// association is strengthened. text is the ticket's combined subject+body.
func (l *Learner) ApplyFeedback(ctx context.Context, record *domain.FeedbackRecord, text string) error {
	if record == nil {
		return apperr.InvalidInput("feedback record is required")
	}
	if !record.CorrectedIntent.IsValid() || !domain.ValidTeam(record.CorrectedTeam) {
		return apperr.InvalidInput("corrected intent and team must be valid")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if err := l.store.RecordFeedback(ctx, record); err != nil {
		return err
	}

	log := l.log.WithTicket(record.TicketRef)

	tokens := learnableTokens(text)
	for _, token := range tokens {
		if record.OriginalIntent.IsValid() {
			if err := l.store.UpsertPattern(ctx, domain.PatternIntentKeyword, string(record.OriginalIntent), token, -1); err != nil {
				log.WithError(err).Warn("keyword decay failed, skipping")
				break
			}
		}
	}
	for _, token := range tokens {
		if err := l.store.UpsertPattern(ctx, domain.PatternIntentKeyword, string(record.CorrectedIntent), token, 1); err != nil {
			log.WithError(err).Warn("corrected keyword upsert failed, skipping")
			break
		}
	}

	if err := l.store.UpsertPattern(ctx, domain.PatternTeamIntent, record.CorrectedTeam, string(record.CorrectedIntent), 1); err != nil {
		log.WithError(err).Warn("corrected team pattern upsert failed")
	}
	if record.OriginalIntent.IsValid() && domain.ValidTeam(record.OriginalTeam) {
		if err := l.store.UpsertPattern(ctx, domain.PatternTeamIntent, record.OriginalTeam, string(record.OriginalIntent), -1); err != nil {
			log.WithError(err).Warn("original team pattern decay failed")
		}
	}

	if l.events != nil {
		reassigned := &out.RoutingEvent{
			TicketRef: record.TicketRef,
			EventType: out.EventTicketReassigned,
			Intent:    record.CorrectedIntent,
			Team:      record.CorrectedTeam,
			CreatedAt: record.CreatedAt,
		}
		if err := l.events.Append(ctx, reassigned); err != nil {
			log.WithError(err).Warn("reassignment audit append failed")
		}
	}

	// Corrections should take effect immediately, not at the next threshold.
	if err := l.Refresh(ctx); err != nil {
		log.WithError(err).Warn("snapshot refresh after feedback failed")
	}
	return nil
}

// RebuildFromHistory replays recent completed routings from the audit log,
// skipping any ticket that was later reassigned, and refreshes the snapshot.
// Returns how many events were replayed.
func (l *Learner) RebuildFromHistory(ctx context.Context) (int, error) {
	if l.events == nil {
		return 0, apperr.InvalidInput("no event log configured")
	}

	events, err := l.events.ListCompleted(ctx, historyRebuildLimit)
	if err != nil {
		return 0, err
	}

	replayed := 0
	for _, evt := range events {
		reassigned, err := l.events.WasReassigned(ctx, evt.TicketRef)
		if err != nil {
			l.log.WithTicket(evt.TicketRef).WithError(err).Warn("reassignment lookup failed, skipping event")
			continue
		}
		if reassigned || !evt.Intent.IsValid() {
			continue
		}

		for _, token := range learnableTokens(evt.Text) {
			if err := l.store.UpsertPattern(ctx, domain.PatternIntentKeyword, string(evt.Intent), token, 1); err != nil {
				l.log.WithTicket(evt.TicketRef).WithError(err).Warn("history keyword upsert failed, skipping")
				break
			}
		}
		if domain.ValidTeam(evt.Team) {
			if err := l.store.UpsertPattern(ctx, domain.PatternTeamIntent, evt.Team, string(evt.Intent), 1); err != nil {
				l.log.WithTicket(evt.TicketRef).WithError(err).Warn("history team upsert failed")
			}
		}
		replayed++
	}

	if err := l.Refresh(ctx); err != nil {
		return replayed, err
	}
	l.log.WithField("replayed", replayed).Info("rebuilt patterns from routing history")
	return replayed, nil
}

// Refresh rebuilds the snapshot from the full pattern store and publishes it.
func (l *Learner) Refresh(ctx context.Context) error {
	patterns, err := l.store.ListPatterns(ctx, "")
	if err != nil {
		return apperr.DatabaseError(err, "list patterns")
	}
	l.snapshots.Store(classification.BuildSnapshot(patterns))

	l.mu.Lock()
	l.sinceRef = 0
	l.mu.Unlock()
	return nil
}

// Stats reports pattern counts, feedback volume, and snapshot freshness.
func (l *Learner) Stats(ctx context.Context) (*Stats, error) {
	keyword, err := l.store.ListPatterns(ctx, domain.PatternIntentKeyword)
	if err != nil {
		return nil, apperr.DatabaseError(err, "list keyword patterns")
	}
	team, err := l.store.ListPatterns(ctx, domain.PatternTeamIntent)
	if err != nil {
		return nil, apperr.DatabaseError(err, "list team patterns")
	}
	feedback, err := l.store.CountFeedback(ctx)
	if err != nil {
		return nil, apperr.DatabaseError(err, "count feedback")
	}

	l.mu.Lock()
	observed := l.observed
	l.mu.Unlock()

	snapshot := l.snapshots.Load()
	return &Stats{
		KeywordPatterns:  len(keyword),
		TeamPatterns:     len(team),
		FeedbackRecords:  feedback,
		ObservedTickets:  observed,
		SnapshotBuiltAt:  snapshot.BuiltAt(),
		SnapshotPatterns: snapshot.PatternCount(),
	}, nil
}

// bumpAndMaybeRefresh advances the observation counter and refreshes the
// snapshot when the threshold is reached.
func (l *Learner) bumpAndMaybeRefresh(ctx context.Context) {
	l.mu.Lock()
	l.observed++
	l.sinceRef++
	due := l.sinceRef >= l.refreshEvery
	l.mu.Unlock()

	if !due {
		return
	}
	if err := l.Refresh(ctx); err != nil {
		l.log.WithError(err).Warn("periodic snapshot refresh failed")
	}
}

// learnableTokens extracts at most maxKeywordsPerTicket keyword tokens.
func learnableTokens(text string) []string {
	tokens := extraction.Tokenize(text)
	if len(tokens) > maxKeywordsPerTicket {
		tokens = tokens[:maxKeywordsPerTicket]
	}
	return tokens
}
