// Package extraction implements the entity and sentiment extractor, the pure
// text-analysis leaf of the routing pipeline. Identical input always yields
// identical output: no randomness, no external calls.
package extraction

import (
	"regexp"
	"strings"

	"router_server/core/domain"
	"router_server/pkg/apperr"
)

// Entity patterns. Numeric error codes, currency amounts, and date phrases
// are matched by regex; account types and technical terms by a fixed phrase
// list.
var (
	errorCodePattern = regexp.MustCompile(`\b\d{3}\b`)
	amountPattern    = regexp.MustCompile(`(?i)\$\d+(?:\.\d+)?|\b\d+(?:\.\d+)?\s*(?:dollars?|USD)\b`)
	datePattern      = regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*(?:\s+\d{1,2})?\b|\b(?:today|yesterday|tomorrow|last\s+week|next\s+week|\d+\s+days?)\b`)
)

// accountTypePhrases are known account-type entities, matched case-insensitively.
var accountTypePhrases = []string{
	"bank account",
	"vendor account",
	"merchant account",
	"business account",
	"savings account",
	"checking account",
}

// technicalTermPhrases are known technical-term entities.
var technicalTermPhrases = []string{
	"api",
	"webhook",
	"sdk",
	"integration",
	"endpoint",
	"oauth",
	"sandbox",
	"rate limit",
	"dashboard",
}

// Sentiment keyword families in precedence order: urgency words outweigh
// negative words, which outweigh positive words.
var (
	urgentWords = []string{
		"urgent", "critical", "emergency", "immediately", "asap", "blocked", "down",
	}
	negativeWords = []string{
		"error", "failed", "failing", "stuck", "problem", "issue", "dispute",
		"wrong", "incorrect", "can't", "cannot", "unable",
	}
	positiveWords = []string{
		"thanks", "thank you", "great", "helpful", "appreciate",
	}
)

// Extraction holds the extractor output for one request.
type Extraction struct {
	Entities  []string
	Sentiment domain.Sentiment
}

// Extractor extracts entities and sentiment from raw request text.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract analyzes subject and body. Both are optional individually, but at
// least one must be non-empty, otherwise the request is rejected with an
// INVALID_INPUT error before any classification work.
func (e *Extractor) Extract(subject, body string) (*Extraction, error) {
	if strings.TrimSpace(subject) == "" && strings.TrimSpace(body) == "" {
		return nil, apperr.InvalidInput("no text provided: subject and body are both empty")
	}

	text := CombineText(subject, body)
	lower := strings.ToLower(text)

	return &Extraction{
		Entities:  e.extractEntities(text, lower),
		Sentiment: e.detectSentiment(lower),
	}, nil
}

// CombineText joins subject and body into the single text used for
// classification and learning.
func CombineText(subject, body string) string {
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	switch {
	case subject == "":
		return body
	case body == "":
		return subject
	default:
		return subject + "\n" + body
	}
}

// extractEntities returns the ordered, deduplicated entity list.
func (e *Extractor) extractEntities(text, lower string) []string {
	var entities []string
	seen := make(map[string]bool)

	add := func(entity string) {
		entity = strings.TrimSpace(entity)
		if entity == "" {
			return
		}
		key := strings.ToLower(entity)
		if seen[key] {
			return
		}
		seen[key] = true
		entities = append(entities, entity)
	}

	for _, code := range errorCodePattern.FindAllString(text, -1) {
		add(code)
	}
	for _, amount := range amountPattern.FindAllString(text, -1) {
		add(amount)
	}
	for _, date := range datePattern.FindAllString(lower, -1) {
		add(date)
	}
	for _, phrase := range accountTypePhrases {
		if strings.Contains(lower, phrase) {
			add(phrase)
		}
	}
	for _, phrase := range technicalTermPhrases {
		if containsWord(lower, phrase) {
			add(phrase)
		}
	}

	return entities
}

// detectSentiment applies the keyword families in precedence order.
func (e *Extractor) detectSentiment(lower string) domain.Sentiment {
	for _, w := range urgentWords {
		if containsWord(lower, w) {
			return domain.SentimentUrgent
		}
	}
	for _, w := range negativeWords {
		if containsWord(lower, w) {
			return domain.SentimentNegative
		}
	}
	for _, w := range positiveWords {
		if containsWord(lower, w) {
			return domain.SentimentPositive
		}
	}
	return domain.SentimentNeutral
}

// containsWord matches a phrase on word boundaries. Phrases containing regex
// metacharacters (e.g. "can't") are quoted before compilation, so the match
// stays literal.
func containsWord(lower, phrase string) bool {
	pattern := wordPatternCache[phrase]
	if pattern == nil {
		return strings.Contains(lower, phrase)
	}
	return pattern.MatchString(lower)
}

// wordPatternCache precompiles word-boundary patterns for every known phrase.
var wordPatternCache = buildWordPatterns()

func buildWordPatterns() map[string]*regexp.Regexp {
	cache := make(map[string]*regexp.Regexp)
	all := make([]string, 0, len(accountTypePhrases)+len(technicalTermPhrases)+
		len(urgentWords)+len(negativeWords)+len(positiveWords))
	all = append(all, accountTypePhrases...)
	all = append(all, technicalTermPhrases...)
	all = append(all, urgentWords...)
	all = append(all, negativeWords...)
	all = append(all, positiveWords...)
	for _, phrase := range all {
		cache[phrase] = regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase) + `\b`)
	}
	return cache
}
