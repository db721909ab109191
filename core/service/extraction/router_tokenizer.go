package extraction

import (
	"regexp"
	"strings"
)

// tokenPattern matches candidate keywords: lowercase word characters, four or
// more letters. Shorter tokens carry too little signal to learn from.
var tokenPattern = regexp.MustCompile(`\b[a-z][a-z0-9]{3,}\b`)

// stopWords are excluded from keyword learning and learned-weight lookup.
var stopWords = map[string]bool{
	"that": true, "this": true, "these": true, "those": true,
	"have": true, "has": true, "had": true, "been": true, "being": true,
	"does": true, "did": true, "will": true, "would": true, "should": true,
	"could": true, "might": true, "must": true, "cannot": true,
	"what": true, "which": true, "whom": true, "whose": true,
	"where": true, "when": true, "with": true, "from": true, "into": true,
	"each": true, "every": true, "both": true, "more": true, "most": true,
	"other": true, "some": true, "such": true, "only": true, "same": true,
	"than": true, "very": true, "just": true, "your": true, "about": true,
	"because": true, "there": true, "their": true, "them": true, "they": true,
	"please": true,
}

// Tokenize extracts the ordered, deduplicated keyword tokens of a text.
// Deterministic, like everything else in this package.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)

	var tokens []string
	seen := make(map[string]bool)
	for _, token := range tokenPattern.FindAllString(lower, -1) {
		if stopWords[token] || seen[token] {
			continue
		}
		seen[token] = true
		tokens = append(tokens, token)
	}
	return tokens
}
