package classification

import (
	"testing"

	"router_server/core/domain"
)

func TestBootstrapSnapshotDefaults(t *testing.T) {
	s := NewBootstrapSnapshot()

	if s.PatternCount() != 0 {
		t.Errorf("expected zero patterns, got %d", s.PatternCount())
	}
	if got := s.TeamFor(domain.IntentBillingFinance); got != domain.TeamFinance {
		t.Errorf("expected %s, got %s", domain.TeamFinance, got)
	}
	if got := s.TeamFor(domain.IntentGeneralSupport); got != domain.TeamTechSupport {
		t.Errorf("expected %s, got %s", domain.TeamTechSupport, got)
	}
	if w := s.KeywordWeight(domain.IntentTechnicalSupport, "webhook"); w != 0 {
		t.Errorf("expected zero weight, got %f", w)
	}
}

func TestBuildSnapshotKeywordWeights(t *testing.T) {
	s := BuildSnapshot([]domain.LearningPattern{
		{PatternType: domain.PatternIntentKeyword, Key: "technical_support", Value: "webhook", Confidence: 0.5, UsageCount: 5},
		{PatternType: domain.PatternIntentKeyword, Key: "technical_support", Value: "retired", Confidence: 0.5, UsageCount: 0},
		{PatternType: domain.PatternIntentKeyword, Key: "not_an_intent", Value: "junk", Confidence: 0.9, UsageCount: 9},
	})

	if w := s.KeywordWeight(domain.IntentTechnicalSupport, "webhook"); w != 0.5*LearnedWeightScale {
		t.Errorf("expected weight %f, got %f", 0.5*LearnedWeightScale, w)
	}
	// Zero-usage patterns are decayed out and contribute nothing.
	if w := s.KeywordWeight(domain.IntentTechnicalSupport, "retired"); w != 0 {
		t.Errorf("expected zero weight for decayed pattern, got %f", w)
	}
}

func TestBuildSnapshotTeamOverride(t *testing.T) {
	s := BuildSnapshot([]domain.LearningPattern{
		{PatternType: domain.PatternTeamIntent, Key: domain.TeamCompliance, Value: "billing_finance", Confidence: 0.7, UsageCount: 12},
		{PatternType: domain.PatternTeamIntent, Key: domain.TeamFinance, Value: "billing_finance", Confidence: 0.6, UsageCount: 8},
	})

	if got := s.TeamFor(domain.IntentBillingFinance); got != domain.TeamCompliance {
		t.Errorf("expected learned override %s, got %s", domain.TeamCompliance, got)
	}
}

func TestBuildSnapshotTeamOverrideMinUsage(t *testing.T) {
	s := BuildSnapshot([]domain.LearningPattern{
		{PatternType: domain.PatternTeamIntent, Key: domain.TeamSales, Value: "general_support", Confidence: 0.2, UsageCount: 1},
	})

	// A single observation must not displace the bootstrap mapping.
	if got := s.TeamFor(domain.IntentGeneralSupport); got != domain.TeamTechSupport {
		t.Errorf("expected bootstrap default %s, got %s", domain.TeamTechSupport, got)
	}
}

func TestSnapshotHolderSwap(t *testing.T) {
	holder := NewSnapshotHolder(nil)

	first := holder.Load()
	if first == nil {
		t.Fatal("expected bootstrap snapshot")
	}

	next := BuildSnapshot([]domain.LearningPattern{
		{PatternType: domain.PatternIntentKeyword, Key: "sales_inquiry", Value: "reseller", Confidence: 0.8, UsageCount: 20},
	})
	holder.Store(next)

	if holder.Load() != next {
		t.Error("expected swapped snapshot")
	}

	// Storing nil keeps the current snapshot.
	holder.Store(nil)
	if holder.Load() != next {
		t.Error("expected nil store to be ignored")
	}

	// The old snapshot stays usable for readers that loaded it earlier.
	if got := first.TeamFor(domain.IntentSalesInquiry); got != domain.TeamSales {
		t.Errorf("expected %s from retained snapshot, got %s", domain.TeamSales, got)
	}
}
