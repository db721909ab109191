package learning

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"router_server/core/domain"
	"router_server/core/port/out"
	"router_server/core/service/classification"
)

// memoryStore is an in-memory PatternStore for tests.
type memoryStore struct {
	mu       sync.Mutex
	patterns map[string]*domain.LearningPattern
	feedback []*domain.FeedbackRecord
	nextID   int64
	failAll  bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{patterns: make(map[string]*domain.LearningPattern)}
}

func patternKey(pt domain.PatternType, key, value string) string {
	return string(pt) + "|" + key + "|" + value
}

func (s *memoryStore) UpsertPattern(ctx context.Context, pt domain.PatternType, key, value string, usageDelta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return fmt.Errorf("store unavailable")
	}

	k := patternKey(pt, key, value)
	p, ok := s.patterns[k]
	if !ok {
		s.nextID++
		p = &domain.LearningPattern{ID: s.nextID, PatternType: pt, Key: key, Value: value}
		s.patterns[k] = p
	}
	p.UsageCount += usageDelta
	if p.UsageCount < 0 {
		p.UsageCount = 0
	}
	p.Confidence = domain.PatternConfidence(p.UsageCount)
	p.LastUsed = time.Now()
	return nil
}

func (s *memoryStore) ListPatterns(ctx context.Context, pt domain.PatternType) ([]domain.LearningPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, fmt.Errorf("store unavailable")
	}

	var result []domain.LearningPattern
	for _, p := range s.patterns {
		if pt == "" || p.PatternType == pt {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (s *memoryStore) RecordFeedback(ctx context.Context, record *domain.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	record.ID = s.nextID
	s.feedback = append(s.feedback, record)
	return nil
}

func (s *memoryStore) CountFeedback(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.feedback)), nil
}

func (s *memoryStore) usage(pt domain.PatternType, key, value string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.patterns[patternKey(pt, key, value)]; ok {
		return p.UsageCount
	}
	return 0
}

// memoryEventLog is an in-memory RoutingEventLog for tests.
type memoryEventLog struct {
	mu     sync.Mutex
	events []*out.RoutingEvent
}

func (l *memoryEventLog) Append(ctx context.Context, evt *out.RoutingEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evt)
	return nil
}

func (l *memoryEventLog) ListCompleted(ctx context.Context, limit int64) ([]*out.RoutingEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []*out.RoutingEvent
	for i := len(l.events) - 1; i >= 0 && int64(len(result)) < limit; i-- {
		if l.events[i].EventType == out.EventRoutingCompleted {
			result = append(result, l.events[i])
		}
	}
	return result, nil
}

func (l *memoryEventLog) WasReassigned(ctx context.Context, ticketRef string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, evt := range l.events {
		if evt.TicketRef == ticketRef && evt.EventType == out.EventTicketReassigned {
			return true, nil
		}
	}
	return false, nil
}

func decisionEvent(ticketRef, text string, intent domain.Intent, team string) *out.RouteDecisionEvent {
	return &out.RouteDecisionEvent{
		TicketRef:  ticketRef,
		Channel:    domain.ChannelEmail,
		Text:       text,
		Intent:     intent,
		Urgency:    domain.UrgencyMedium,
		Confidence: 0.9,
		Team:       team,
		DecidedAt:  time.Now(),
	}
}

func TestObserveDecisionLearnsPatterns(t *testing.T) {
	store := newMemoryStore()
	holder := classification.NewSnapshotHolder(nil)
	l := NewLearner(store, nil, holder, 100)

	evt := decisionEvent("TKT-1", "webhook delivery failures since yesterday",
		domain.IntentTechnicalSupport, domain.TeamTechSupport)
	l.ObserveDecision(context.Background(), evt)

	if got := store.usage(domain.PatternIntentKeyword, "technical_support", "webhook"); got != 1 {
		t.Errorf("expected webhook usage 1, got %d", got)
	}
	if got := store.usage(domain.PatternTeamIntent, domain.TeamTechSupport, "technical_support"); got != 1 {
		t.Errorf("expected team pattern usage 1, got %d", got)
	}
}

func TestObserveDecisionUsageMonotonic(t *testing.T) {
	store := newMemoryStore()
	l := NewLearner(store, nil, classification.NewSnapshotHolder(nil), 100)

	for i := 0; i < 5; i++ {
		l.ObserveDecision(context.Background(),
			decisionEvent("TKT-2", "invoice copy request", domain.IntentBillingFinance, domain.TeamFinance))
	}

	if got := store.usage(domain.PatternIntentKeyword, "billing_finance", "invoice"); got != 5 {
		t.Errorf("expected usage 5, got %d", got)
	}
	if c := domain.PatternConfidence(5); c != 0.5 {
		t.Errorf("expected confidence 0.5 at usage 5, got %f", c)
	}
}

func TestObserveDecisionSkipsNeedsReview(t *testing.T) {
	store := newMemoryStore()
	l := NewLearner(store, nil, classification.NewSnapshotHolder(nil), 100)

	evt := decisionEvent("TKT-3", "vague request text", domain.IntentGeneralSupport, domain.TeamTriage)
	evt.NeedsReview = true
	l.ObserveDecision(context.Background(), evt)

	if got := store.usage(domain.PatternIntentKeyword, "general_support", "vague"); got != 0 {
		t.Errorf("expected no learning from reviewed decisions, got usage %d", got)
	}
}

func TestObserveDecisionRefreshThreshold(t *testing.T) {
	store := newMemoryStore()
	holder := classification.NewSnapshotHolder(nil)
	l := NewLearner(store, nil, holder, 3)

	before := holder.Load()

	for i := 0; i < 2; i++ {
		l.ObserveDecision(context.Background(),
			decisionEvent("TKT-4", "webhook errors", domain.IntentTechnicalSupport, domain.TeamTechSupport))
	}
	if holder.Load() != before {
		t.Fatal("snapshot must not refresh below the threshold")
	}

	l.ObserveDecision(context.Background(),
		decisionEvent("TKT-4", "webhook errors", domain.IntentTechnicalSupport, domain.TeamTechSupport))
	if holder.Load() == before {
		t.Fatal("expected snapshot refresh at the threshold")
	}
}

func TestObserveDecisionStoreFailureIsSwallowed(t *testing.T) {
	store := newMemoryStore()
	store.failAll = true
	l := NewLearner(store, nil, classification.NewSnapshotHolder(nil), 100)

	// Must not panic or propagate anything.
	l.ObserveDecision(context.Background(),
		decisionEvent("TKT-5", "invoice error", domain.IntentBillingFinance, domain.TeamFinance))
}

func TestApplyFeedback(t *testing.T) {
	store := newMemoryStore()
	events := &memoryEventLog{}
	holder := classification.NewSnapshotHolder(nil)
	l := NewLearner(store, events, holder, 100)

	text := "certification audit request for our compliance report"

	// Seed the misroute.
	l.ObserveDecision(context.Background(),
		decisionEvent("TKT-6", text, domain.IntentGeneralSupport, domain.TeamTechSupport))

	record := &domain.FeedbackRecord{
		TicketRef:       "TKT-6",
		OriginalIntent:  domain.IntentGeneralSupport,
		CorrectedIntent: domain.IntentComplianceRegulatory,
		OriginalTeam:    domain.TeamTechSupport,
		CorrectedTeam:   domain.TeamCompliance,
	}
	if err := l.ApplyFeedback(context.Background(), record, text); err != nil {
		t.Fatal(err)
	}

	if got := store.usage(domain.PatternIntentKeyword, "general_support", "certification"); got != 0 {
		t.Errorf("expected decayed usage 0, got %d", got)
	}
	if got := store.usage(domain.PatternIntentKeyword, "compliance_regulatory", "certification"); got != 1 {
		t.Errorf("expected corrected usage 1, got %d", got)
	}
	if got := store.usage(domain.PatternTeamIntent, domain.TeamCompliance, "compliance_regulatory"); got != 1 {
		t.Errorf("expected corrected team usage 1, got %d", got)
	}

	if n, _ := store.CountFeedback(context.Background()); n != 1 {
		t.Errorf("expected 1 feedback record, got %d", n)
	}

	reassigned, err := events.WasReassigned(context.Background(), "TKT-6")
	if err != nil {
		t.Fatal(err)
	}
	if !reassigned {
		t.Error("expected a reassignment audit event")
	}
}

func TestApplyFeedbackRejectsInvalid(t *testing.T) {
	l := NewLearner(newMemoryStore(), nil, classification.NewSnapshotHolder(nil), 100)

	err := l.ApplyFeedback(context.Background(), &domain.FeedbackRecord{
		TicketRef:       "TKT-7",
		CorrectedIntent: "not_an_intent",
		CorrectedTeam:   "Nobody",
	}, "text")
	if err == nil {
		t.Fatal("expected error for invalid correction")
	}
}

func TestRebuildFromHistory(t *testing.T) {
	store := newMemoryStore()
	events := &memoryEventLog{}
	holder := classification.NewSnapshotHolder(nil)
	l := NewLearner(store, events, holder, 100)

	events.Append(context.Background(), &out.RoutingEvent{
		TicketRef: "TKT-A",
		EventType: out.EventRoutingCompleted,
		Text:      "webhook retries exhausted",
		Intent:    domain.IntentTechnicalSupport,
		Team:      domain.TeamTechSupport,
	})
	events.Append(context.Background(), &out.RoutingEvent{
		TicketRef: "TKT-B",
		EventType: out.EventRoutingCompleted,
		Text:      "invoice question",
		Intent:    domain.IntentBillingFinance,
		Team:      domain.TeamFinance,
	})
	// TKT-B was later reassigned: it must be skipped.
	events.Append(context.Background(), &out.RoutingEvent{
		TicketRef: "TKT-B",
		EventType: out.EventTicketReassigned,
	})

	replayed, err := l.RebuildFromHistory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if replayed != 1 {
		t.Errorf("expected 1 replayed event, got %d", replayed)
	}

	if got := store.usage(domain.PatternIntentKeyword, "technical_support", "webhook"); got != 1 {
		t.Errorf("expected webhook learned from history, got usage %d", got)
	}
	if got := store.usage(domain.PatternIntentKeyword, "billing_finance", "invoice"); got != 0 {
		t.Errorf("expected reassigned ticket skipped, got usage %d", got)
	}
}

func TestStats(t *testing.T) {
	store := newMemoryStore()
	holder := classification.NewSnapshotHolder(nil)
	l := NewLearner(store, &memoryEventLog{}, holder, 100)

	l.ObserveDecision(context.Background(),
		decisionEvent("TKT-8", "webhook errors", domain.IntentTechnicalSupport, domain.TeamTechSupport))

	stats, err := l.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.KeywordPatterns == 0 {
		t.Error("expected keyword patterns")
	}
	if stats.TeamPatterns != 1 {
		t.Errorf("expected 1 team pattern, got %d", stats.TeamPatterns)
	}
	if stats.ObservedTickets != 1 {
		t.Errorf("expected 1 observed ticket, got %d", stats.ObservedTickets)
	}
}
