package extraction

import (
	"reflect"
	"testing"

	"router_server/core/domain"
	"router_server/pkg/apperr"
)

func TestExtractRejectsEmptyInput(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		name    string
		subject string
		body    string
	}{
		{"both empty", "", ""},
		{"whitespace only", "   ", "\n\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(tt.subject, tt.body)
			if err == nil {
				t.Fatal("expected error for empty input")
			}
			if !apperr.IsInvalidInput(err) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestExtractEntities(t *testing.T) {
	e := NewExtractor()

	ext, err := e.Extract(
		"API integration keeps failing",
		"Our API integration keeps failing with error code 403, blocking all our transactions",
	)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]bool{"403": false, "api": false, "integration": false}
	for _, entity := range ext.Entities {
		if _, ok := want[entity]; ok {
			want[entity] = true
		}
	}
	for entity, found := range want {
		if !found {
			t.Errorf("expected entity %q in %v", entity, ext.Entities)
		}
	}
}

func TestExtractAmountAndDate(t *testing.T) {
	e := NewExtractor()

	ext, err := e.Extract("Invoice question", "Our August invoice has a $500 charge we never authorized")
	if err != nil {
		t.Fatal(err)
	}

	var hasAmount, hasDate bool
	for _, entity := range ext.Entities {
		if entity == "$500" {
			hasAmount = true
		}
		if entity == "august" {
			hasDate = true
		}
	}
	if !hasAmount {
		t.Errorf("expected amount $500 in %v", ext.Entities)
	}
	if !hasDate {
		t.Errorf("expected date august in %v", ext.Entities)
	}
}

func TestExtractAccountType(t *testing.T) {
	e := NewExtractor()

	ext, err := e.Extract("", "I cannot link my bank account to the dashboard")
	if err != nil {
		t.Fatal(err)
	}

	var hasAccount, hasDashboard bool
	for _, entity := range ext.Entities {
		switch entity {
		case "bank account":
			hasAccount = true
		case "dashboard":
			hasDashboard = true
		}
	}
	if !hasAccount || !hasDashboard {
		t.Errorf("expected bank account and dashboard in %v", ext.Entities)
	}
}

func TestExtractEntitiesDeduplicated(t *testing.T) {
	e := NewExtractor()

	ext, err := e.Extract("API problem", "The API call to the API endpoint fails. API!")
	if err != nil {
		t.Fatal(err)
	}

	count := 0
	for _, entity := range ext.Entities {
		if entity == "api" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected api exactly once, got %d in %v", count, ext.Entities)
	}
}

func TestDetectSentimentPrecedence(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		name string
		body string
		want domain.Sentiment
	}{
		{"urgent beats negative", "This is urgent, the payment failed", domain.SentimentUrgent},
		{"negative beats positive", "Thanks, but the upload failed again", domain.SentimentNegative},
		{"positive alone", "Thanks for the great support", domain.SentimentPositive},
		{"neutral default", "Where is the pricing documentation", domain.SentimentNeutral},
		{"urgent word blocked", "Verification is blocked for our team", domain.SentimentUrgent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := e.Extract("", tt.body)
			if err != nil {
				t.Fatal(err)
			}
			if ext.Sentiment != tt.want {
				t.Errorf("expected %s, got %s", tt.want, ext.Sentiment)
			}
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	e := NewExtractor()
	subject := "Webhook timeouts"
	body := "Webhook calls to our endpoint hit the rate limit since May 12, costing us $120 a day"

	first, err := e.Extract(subject, body)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		next, err := e.Extract(subject, body)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first.Entities, next.Entities) {
			t.Fatalf("entities changed between runs: %v vs %v", first.Entities, next.Entities)
		}
		if first.Sentiment != next.Sentiment {
			t.Fatalf("sentiment changed between runs: %s vs %s", first.Sentiment, next.Sentiment)
		}
	}
}

func TestCombineText(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		want    string
	}{
		{"both", "Subject line", "Body text", "Subject line\nBody text"},
		{"subject only", "Subject line", "", "Subject line"},
		{"body only", "", "Body text", "Body text"},
		{"trims whitespace", "  Subject  ", "  Body  ", "Subject\nBody"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CombineText(tt.subject, tt.body); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("The API integration keeps failing with integration errors, please help")

	want := []string{"integration", "keeps", "failing", "errors", "help"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("expected %v, got %v", want, tokens)
	}
}

func TestTokenizeFiltersShortAndStopWords(t *testing.T) {
	tokens := Tokenize("We did not see it at all because there was this")
	if len(tokens) != 0 {
		t.Errorf("expected no tokens, got %v", tokens)
	}
}
