// Package classification implements intent classification: a semantic
// adapter over the external AI capability and a deterministic weighted
// keyword fallback, both reading learned patterns from an immutable snapshot.
package classification

import (
	"sync/atomic"
	"time"

	"router_server/core/domain"
)

// LearnedWeightScale converts a pattern confidence into the keyword weight
// added on top of the static base weights at refresh time:
// weight = base + confidence * scale.
const LearnedWeightScale = 2.0

// teamOverrideMinUsage is the usage count a team_intent pattern needs before
// it replaces the bootstrap intent→team default.
const teamOverrideMinUsage = 2

// PatternSnapshot is an immutable view of the learned pattern store. Readers
// never observe partial updates: the whole snapshot is swapped at refresh
// time.
type PatternSnapshot struct {
	keywordWeights map[domain.Intent]map[string]float64
	teamForIntent  map[domain.Intent]string
	patternCount   int
	builtAt        time.Time
}

// NewBootstrapSnapshot returns the snapshot used before any learning has
// happened: no learned keyword weights, default team mapping.
func NewBootstrapSnapshot() *PatternSnapshot {
	return BuildSnapshot(nil)
}

// BuildSnapshot rebuilds the snapshot from the full pattern list.
func BuildSnapshot(patterns []domain.LearningPattern) *PatternSnapshot {
	s := &PatternSnapshot{
		keywordWeights: make(map[domain.Intent]map[string]float64),
		teamForIntent:  make(map[domain.Intent]string, len(domain.DefaultTeamForIntent)),
		patternCount:   len(patterns),
		builtAt:        time.Now(),
	}
	for intent, team := range domain.DefaultTeamForIntent {
		s.teamForIntent[intent] = team
	}

	// Best team_intent pattern per intent, by (usage, confidence).
	type teamCandidate struct {
		team       string
		usage      int
		confidence float64
	}
	best := make(map[domain.Intent]teamCandidate)

	for _, p := range patterns {
		switch p.PatternType {
		case domain.PatternIntentKeyword:
			intent := domain.Intent(p.Key)
			if !intent.IsValid() || p.UsageCount <= 0 {
				continue
			}
			weights := s.keywordWeights[intent]
			if weights == nil {
				weights = make(map[string]float64)
				s.keywordWeights[intent] = weights
			}
			weights[p.Value] = p.Confidence * LearnedWeightScale

		case domain.PatternTeamIntent:
			intent := domain.Intent(p.Value)
			if !intent.IsValid() || !domain.ValidTeam(p.Key) {
				continue
			}
			if p.UsageCount < teamOverrideMinUsage {
				continue
			}
			cur, ok := best[intent]
			if !ok || p.UsageCount > cur.usage ||
				(p.UsageCount == cur.usage && p.Confidence > cur.confidence) {
				best[intent] = teamCandidate{team: p.Key, usage: p.UsageCount, confidence: p.Confidence}
			}
		}
	}

	for intent, cand := range best {
		s.teamForIntent[intent] = cand.team
	}

	return s
}

// KeywordWeight returns the learned weight for a token under an intent,
// zero when unlearned.
func (s *PatternSnapshot) KeywordWeight(intent domain.Intent, token string) float64 {
	return s.keywordWeights[intent][token]
}

// TeamFor returns the team currently mapped to the intent.
func (s *PatternSnapshot) TeamFor(intent domain.Intent) string {
	if team, ok := s.teamForIntent[intent]; ok {
		return team
	}
	return domain.TeamTechSupport
}

// PatternCount returns the number of patterns the snapshot was built from.
func (s *PatternSnapshot) PatternCount() int {
	return s.patternCount
}

// BuiltAt returns when the snapshot was built.
func (s *PatternSnapshot) BuiltAt() time.Time {
	return s.builtAt
}

// SnapshotHolder publishes pattern snapshots atomically. Writers build a new
// snapshot off to the side and Store it; readers Load whatever snapshot is
// current and keep using it for the whole request.
type SnapshotHolder struct {
	current atomic.Pointer[PatternSnapshot]
}

// NewSnapshotHolder creates a holder seeded with the given snapshot.
func NewSnapshotHolder(initial *PatternSnapshot) *SnapshotHolder {
	h := &SnapshotHolder{}
	if initial == nil {
		initial = NewBootstrapSnapshot()
	}
	h.current.Store(initial)
	return h
}

// Load returns the current snapshot.
func (h *SnapshotHolder) Load() *PatternSnapshot {
	return h.current.Load()
}

// Store swaps in a new snapshot.
func (h *SnapshotHolder) Store(s *PatternSnapshot) {
	if s == nil {
		return
	}
	h.current.Store(s)
}
