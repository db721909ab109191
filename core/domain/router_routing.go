package domain

import "time"

// Team names in the team registry. The registry is static: the core consumes
// it at startup and never creates or deletes teams.
const (
	TeamTechSupport = "Tech Support"
	TeamKYC         = "KYC"
	TeamFinance     = "Finance"
	TeamCompliance  = "Compliance"
	TeamSales       = "Sales"
	TeamTriage      = "Triage"
)

// AllTeams lists the valid team names.
var AllTeams = []string{
	TeamTechSupport,
	TeamKYC,
	TeamFinance,
	TeamCompliance,
	TeamSales,
	TeamTriage,
}

// ValidTeam reports whether the name is in the team registry.
func ValidTeam(name string) bool {
	for _, t := range AllTeams {
		if t == name {
			return true
		}
	}
	return false
}

// DefaultTeamForIntent is the bootstrap intent→team mapping, replaced at
// refresh time by the learned snapshot.
var DefaultTeamForIntent = map[Intent]string{
	IntentTechnicalSupport:     TeamTechSupport,
	IntentKYCVerification:      TeamKYC,
	IntentBillingFinance:       TeamFinance,
	IntentComplianceRegulatory: TeamCompliance,
	IntentSalesInquiry:         TeamSales,
	IntentGeneralSupport:       TeamTechSupport,
}

// ReviewConfidenceThreshold is the confidence below which a decision always
// routes to Triage with NeedsReview set.
const ReviewConfidenceThreshold = 0.60

// Response-time budgets keyed by urgency. Critical means immediate.
var ResponseTimeBudget = map[Urgency]time.Duration{
	UrgencyCritical: 0,
	UrgencyHigh:     4 * time.Hour,
	UrgencyMedium:   24 * time.Hour,
	UrgencyLow:      72 * time.Hour,
}

// RoutingDecision is the outcome of routing one classified request.
// Invariant: NeedsReview is true whenever the classification confidence is
// below ReviewConfidenceThreshold, regardless of team.
type RoutingDecision struct {
	Team               string        `json:"team"`
	Escalate           bool          `json:"escalate"`
	ResponseTimeBudget time.Duration `json:"response_time_budget"`
	NeedsReview        bool          `json:"needs_review"`
	Reasoning          string        `json:"reasoning"` // advisory only
}
