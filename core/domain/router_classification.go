package domain

// Intent represents the closed-set category describing what a request is about.
type Intent string

const (
	IntentKYCVerification      Intent = "kyc_verification"
	IntentTechnicalSupport     Intent = "technical_support"
	IntentBillingFinance       Intent = "billing_finance"
	IntentComplianceRegulatory Intent = "compliance_regulatory"
	IntentSalesInquiry         Intent = "sales_inquiry"
	IntentGeneralSupport       Intent = "general_support"
)

// AllIntents lists the fixed category set in tie-break priority order.
// When two intents score equally the earlier one wins, reflecting typical
// business urgency.
var AllIntents = []Intent{
	IntentTechnicalSupport,
	IntentKYCVerification,
	IntentBillingFinance,
	IntentComplianceRegulatory,
	IntentSalesInquiry,
	IntentGeneralSupport,
}

// IsValid reports whether the intent is a recognized category.
func (i Intent) IsValid() bool {
	switch i {
	case IntentKYCVerification, IntentTechnicalSupport, IntentBillingFinance,
		IntentComplianceRegulatory, IntentSalesInquiry, IntentGeneralSupport:
		return true
	}
	return false
}

// Urgency represents the ordered severity level used for SLA and escalation.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// urgencyRank orders urgency levels, higher = more severe.
var urgencyRank = map[Urgency]int{
	UrgencyLow:      0,
	UrgencyMedium:   1,
	UrgencyHigh:     2,
	UrgencyCritical: 3,
}

// IsValid reports whether the urgency is a recognized level.
func (u Urgency) IsValid() bool {
	_, ok := urgencyRank[u]
	return ok
}

// Rank returns the ordinal severity of the urgency (low=0 .. critical=3).
func (u Urgency) Rank() int {
	return urgencyRank[u]
}

// Upgrade returns the urgency one step more severe, capped at critical.
func (u Urgency) Upgrade() Urgency {
	switch u {
	case UrgencyLow:
		return UrgencyMedium
	case UrgencyMedium:
		return UrgencyHigh
	case UrgencyHigh, UrgencyCritical:
		return UrgencyCritical
	}
	return u
}

// Sentiment represents the tone detected in the request text.
type Sentiment string

const (
	SentimentUrgent   Sentiment = "urgent"
	SentimentNegative Sentiment = "negative"
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
)

// IsValid reports whether the sentiment is a recognized label.
func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentUrgent, SentimentNegative, SentimentPositive, SentimentNeutral:
		return true
	}
	return false
}

// ClassificationSource indicates how the classification was determined.
type ClassificationSource string

const (
	SourceSemantic ClassificationSource = "semantic" // external AI classification
	SourceFallback ClassificationSource = "fallback" // local keyword scorer
)

// ClassificationResult is the outcome of classifying one request.
// Invariants: Confidence in [0,1]; Intent is a recognized category.
type ClassificationResult struct {
	Intent     Intent               `json:"intent"`
	Urgency    Urgency              `json:"urgency"`
	Confidence float64              `json:"confidence"`
	Reasoning  string               `json:"reasoning"` // advisory only
	Entities   []string             `json:"entities"`  // ordered, deduplicated
	Sentiment  Sentiment            `json:"sentiment"`
	Source     ClassificationSource `json:"source"`
}

// ClampConfidence clamps a confidence value into [0,1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
