package classification

import (
	"fmt"
	"regexp"
	"strings"

	"router_server/core/domain"
	"router_server/core/service/extraction"
)

// Static base keyword sets per intent. Exact phrase presence scores
// phraseMatchWeight, a standalone word-boundary match scores wordMatchWeight.
// Learned intent_keyword patterns add snapshot weights on top.
var baseKeywords = map[domain.Intent][]string{
	domain.IntentKYCVerification: {
		"account verification", "identity check", "kyc", "document upload",
		"verification stuck", "pending verification", "id verification",
	},
	domain.IntentTechnicalSupport: {
		"api error", "integration", "webhook", "error code", "technical issue",
		"500 error", "403 error", "404 error", "timeout", "rate limit", "sdk",
	},
	domain.IntentBillingFinance: {
		"invoice", "billing", "charge", "payment", "refund", "subscription",
		"pricing", "cost", "fee", "balance", "transaction",
	},
	domain.IntentComplianceRegulatory: {
		"compliance", "gdpr", "pci dss", "soc 2", "audit", "regulation",
		"data protection", "privacy", "security certificate", "certification",
	},
	domain.IntentSalesInquiry: {
		"demo", "pricing plan", "enterprise", "partnership", "white label",
		"new customer", "signup", "trial", "features",
	},
	domain.IntentGeneralSupport: {
		"help", "how to", "question", "information", "documentation", "guide",
	},
}

const (
	phraseMatchWeight = 2.0
	wordMatchWeight   = 1.0
	contextBoost      = 3.0

	// Confidence when every category scores zero.
	zeroScoreConfidence = 0.3
)

// Context boost patterns: multi-word constructions that identify an intent
// more strongly than its keywords alone.
var contextBoosts = map[domain.Intent]*regexp.Regexp{
	domain.IntentKYCVerification:   regexp.MustCompile(`\b(?:verify|verification|kyc|document)\s+(?:is\s+)?(?:stuck|pending|failed|rejected|issue)`),
	domain.IntentTechnicalSupport:  regexp.MustCompile(`\b(?:api|webhook|integration|sdk)\s+(?:error|errors|failing|fails|keeps failing|not working|broken)`),
	domain.IntentBillingFinance:    regexp.MustCompile(`\b(?:invoice|payment|charge|refund|billing)\s+(?:question|issue|problem|failed)`),
}

// Urgency rule table, evaluated on the combined text independently of the
// intent scoring.
var (
	criticalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:completely|totally|entirely)\s+(?:down|broken|failed)\b`),
		regexp.MustCompile(`\b(?:outage|service\s+down|system\s+down|not\s+working\s+at\s+all)\b`),
		regexp.MustCompile(`\b(?:security|breach|leak|hack|hacked|compromised)\b`),
		regexp.MustCompile(`\b(?:blocked|blocking)\s+(?:all|everything|operations|business)\b`),
	}
	highPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:error|errors|failing|failed|stuck|delayed|timeout)\b`),
		regexp.MustCompile(`\b(?:blocking|blocked|preventing)\b`),
		regexp.MustCompile(`\b(?:dispute|disputed|discrepancy|wrong\s+charge|incorrect\s+billing|unauthorized|never\s+authorized|didn'?t\s+authorize)\b`),
		regexp.MustCompile(`\b(?:can'?t|cannot|unable)\s+(?:process|complete|access|verify|pay)\b`),
	}
	mediumPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:question|request|information|feature|how\s+to|how\s+do|where\s+can|can\s+you)\b`),
	}
)

// FallbackClassifier produces a classification without the external AI
// service: a weighted keyword scorer over the static base tables plus the
// learned snapshot. It never fails; any internal problem degrades to the
// zero-confidence default.
type FallbackClassifier struct {
	extractor *extraction.Extractor
	snapshots *SnapshotHolder
}

// NewFallbackClassifier creates a fallback classifier reading learned weights
// from the given snapshot holder.
func NewFallbackClassifier(extractor *extraction.Extractor, snapshots *SnapshotHolder) *FallbackClassifier {
	return &FallbackClassifier{
		extractor: extractor,
		snapshots: snapshots,
	}
}

// Classify scores the combined subject+body against every category. Identical
// text with an unchanged snapshot always yields an identical result.
func (c *FallbackClassifier) Classify(subject, body string) (result *domain.ClassificationResult) {
	// This component must never fail: degrade to the default instead.
	defer func() {
		if r := recover(); r != nil {
			result = c.defaultResult(fmt.Sprintf("fallback classifier recovered: %v", r))
		}
	}()

	ext, err := c.extractor.Extract(subject, body)
	if err != nil {
		return c.defaultResult("no usable text")
	}

	text := extraction.CombineText(subject, body)
	lower := strings.ToLower(text)
	tokens := extraction.Tokenize(text)
	snapshot := c.snapshots.Load()

	scores := make(map[domain.Intent]float64, len(domain.AllIntents))
	total := 0.0
	for _, intent := range domain.AllIntents {
		score := c.scoreIntent(intent, lower, tokens, snapshot)
		if score > 0 {
			scores[intent] = score
			total += score
		}
	}

	intent := domain.IntentGeneralSupport
	confidence := zeroScoreConfidence
	if total > 0 {
		intent = pickWinner(scores)
		confidence = domain.ClampConfidence(scores[intent] / total)
	}

	urgency := deriveUrgency(lower, ext.Sentiment)

	return &domain.ClassificationResult{
		Intent:     intent,
		Urgency:    urgency,
		Confidence: confidence,
		Reasoning:  buildReasoning(intent, ext),
		Entities:   ext.Entities,
		Sentiment:  ext.Sentiment,
		Source:     domain.SourceFallback,
	}
}

// scoreIntent sums the static table and the learned snapshot weights.
func (c *FallbackClassifier) scoreIntent(intent domain.Intent, lower string, tokens []string, snapshot *PatternSnapshot) float64 {
	score := 0.0
	for _, keyword := range baseKeywords[intent] {
		if strings.Contains(lower, keyword) {
			score += phraseMatchWeight
		} else if matchesAnyWord(lower, keyword) {
			score += wordMatchWeight
		}
	}
	if boost, ok := contextBoosts[intent]; ok && boost.MatchString(lower) {
		score += contextBoost
	}
	for _, token := range tokens {
		score += snapshot.KeywordWeight(intent, token)
	}
	return score
}

// keywordWordPatterns precompiles a word-boundary pattern per base keyword,
// matching any individual word of the phrase.
var keywordWordPatterns = buildKeywordWordPatterns()

func buildKeywordWordPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, keywords := range baseKeywords {
		for _, keyword := range keywords {
			if _, ok := patterns[keyword]; ok {
				continue
			}
			var words []string
			for _, word := range strings.Fields(keyword) {
				if len(word) >= 3 {
					words = append(words, regexp.QuoteMeta(word))
				}
			}
			if len(words) == 0 {
				continue
			}
			patterns[keyword] = regexp.MustCompile(`\b(?:` + strings.Join(words, "|") + `)\b`)
		}
	}
	return patterns
}

// matchesAnyWord reports whether any individual word of the keyword phrase
// appears on a word boundary.
func matchesAnyWord(lower, keyword string) bool {
	pattern := keywordWordPatterns[keyword]
	return pattern != nil && pattern.MatchString(lower)
}

// pickWinner returns the highest-scoring intent, ties broken by the fixed
// category priority order.
func pickWinner(scores map[domain.Intent]float64) domain.Intent {
	winner := domain.IntentGeneralSupport
	best := 0.0
	for _, intent := range domain.AllIntents {
		if score, ok := scores[intent]; ok && score > best {
			winner = intent
			best = score
		}
	}
	return winner
}

// deriveUrgency applies the urgency rule table, then lets an urgent sentiment
// upgrade the result by at most one step. Sentiment never downgrades.
func deriveUrgency(lower string, sentiment domain.Sentiment) domain.Urgency {
	urgency := domain.UrgencyLow
	switch {
	case matchesAny(lower, criticalPatterns):
		urgency = domain.UrgencyCritical
	case matchesAny(lower, highPatterns):
		urgency = domain.UrgencyHigh
	case matchesAny(lower, mediumPatterns):
		urgency = domain.UrgencyMedium
	}

	if sentiment == domain.SentimentUrgent && urgency.Rank() < domain.UrgencyHigh.Rank() {
		urgency = urgency.Upgrade()
	}
	return urgency
}

func matchesAny(lower string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}

func buildReasoning(intent domain.Intent, ext *extraction.Extraction) string {
	parts := []string{
		fmt.Sprintf("Classified as %q by keyword matching", intent),
	}
	if len(ext.Entities) > 0 {
		limit := len(ext.Entities)
		if limit > 3 {
			limit = 3
		}
		parts = append(parts, "detected entities: "+strings.Join(ext.Entities[:limit], ", "))
	}
	parts = append(parts, "sentiment: "+string(ext.Sentiment))
	return strings.Join(parts, "; ")
}

func (c *FallbackClassifier) defaultResult(reason string) *domain.ClassificationResult {
	return &domain.ClassificationResult{
		Intent:     domain.IntentGeneralSupport,
		Urgency:    domain.UrgencyMedium,
		Confidence: 0,
		Reasoning:  reason,
		Entities:   nil,
		Sentiment:  domain.SentimentNeutral,
		Source:     domain.SourceFallback,
	}
}
