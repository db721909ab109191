package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"router_server/core/domain"
	"router_server/core/port/out"
)

// classifyResponse mirrors the JSON contract of the classification prompt.
type classifyResponse struct {
	Intent     string   `json:"intent"`
	Urgency    string   `json:"urgency"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Entities   []string `json:"entities"`
	Sentiment  string   `json:"sentiment"`
}

const classifySystemPrompt = `You are a support ticket classification AI for a fintech platform. Analyze the ticket and respond with JSON only.

Intent categories (pick ONE):
- kyc_verification: Identity verification, KYC documents, account verification status
- technical_support: API errors, integration problems, webhooks, SDKs, outages
- billing_finance: Invoices, charges, payments, refunds, subscriptions, fees
- compliance_regulatory: GDPR, PCI DSS, audits, certifications, data protection
- sales_inquiry: Demos, pricing plans, partnerships, trials, new business
- general_support: Everything else, how-to questions, documentation

Urgency (pick ONE):
- critical: Complete outage, security incident, all operations blocked
- high: Errors or failures blocking the customer, billing disputes
- medium: Questions and requests with no blocking impact
- low: Informational, no time pressure

Sentiment (pick ONE): urgent, negative, neutral, positive

Entities: extract error codes, monetary amounts, dates, account types, and technical terms mentioned in the ticket.

Respond with this exact JSON format:
{
  "intent": "category_name",
  "urgency": "critical|high|medium|low",
  "confidence": 0.0-1.0,
  "reasoning": "brief 1-2 sentence explanation",
  "entities": ["entity1", "entity2"],
  "sentiment": "urgent|negative|neutral|positive"
}`

// ClassifyText classifies one support ticket text. Implements the
// SemanticClassifier outbound port.
func (c *Client) ClassifyText(ctx context.Context, text string, categories []domain.Intent) (*out.SemanticClassification, error) {
	userPrompt := fmt.Sprintf("Ticket:\n%s", truncateBody(text, 4000))

	resp, err := c.CompleteWithSystem(ctx, classifySystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	// Parse JSON response
	var result classifyResponse
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	if err := json.Unmarshal([]byte(resp), &result); err != nil {
		return nil, fmt.Errorf("failed to parse classification response: %w", err)
	}

	return &out.SemanticClassification{
		Intent:     result.Intent,
		Urgency:    result.Urgency,
		Confidence: result.Confidence,
		Reasoning:  result.Reasoning,
		Entities:   result.Entities,
		Sentiment:  result.Sentiment,
	}, nil
}

func truncateBody(body string, maxLen int) string {
	if len(body) <= maxLen {
		return body
	}
	return body[:maxLen] + "..."
}
