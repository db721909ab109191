package llm

import (
	"strings"
	"testing"
)

func TestTruncateBody(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		maxLen int
		want   string
	}{
		{"short body untouched", "webhook errors", 100, "webhook errors"},
		{"exact length untouched", "abcd", 4, "abcd"},
		{"long body truncated", strings.Repeat("a", 10), 4, "aaaa..."},
		{"empty body", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateBody(tt.body, tt.maxLen); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("sk-test")
	if c.model != DefaultModel {
		t.Errorf("expected default model %s, got %s", DefaultModel, c.model)
	}

	c = NewClientWithConfig(ClientConfig{APIKey: "sk-test", Model: "gpt-4o"})
	if c.model != "gpt-4o" {
		t.Errorf("expected configured model, got %s", c.model)
	}
	if c.maxTokens == 0 {
		t.Error("expected default max tokens")
	}
}
