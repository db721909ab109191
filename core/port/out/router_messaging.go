package out

import (
	"context"
	"time"

	"router_server/core/domain"
)

// TicketIntakeJob carries one raw support request from an intake channel.
type TicketIntakeJob struct {
	TicketRef string         `json:"ticket_ref"`
	Channel   domain.Channel `json:"channel"`
	Subject   string         `json:"subject,omitempty"`
	Body      string         `json:"body,omitempty"`
	Sender    string         `json:"sender,omitempty"`
	QueuedAt  time.Time      `json:"queued_at"`
}

// RouteDecisionEvent is emitted after every routing decision for the Learning
// System to consume asynchronously. Publishing is fire-and-forget and must not
// block the pipeline.
type RouteDecisionEvent struct {
	TicketRef   string         `json:"ticket_ref"`
	Channel     domain.Channel `json:"channel"`
	Text        string         `json:"text"` // combined subject+body, for keyword learning
	Intent      domain.Intent  `json:"intent"`
	Urgency     domain.Urgency `json:"urgency"`
	Confidence  float64        `json:"confidence"`
	Source      string         `json:"source"`
	Team        string         `json:"team"`
	Escalate    bool           `json:"escalate"`
	NeedsReview bool           `json:"needs_review"`
	DecidedAt   time.Time      `json:"decided_at"`
}

// MessageProducer defines the outbound port for the message queue producer.
type MessageProducer interface {
	PublishTicketIntake(ctx context.Context, job *TicketIntakeJob) error
	PublishRouteDecision(ctx context.Context, evt *RouteDecisionEvent) error
}
