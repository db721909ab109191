package out

import (
	"context"
	"time"

	"router_server/core/domain"
)

// Routing event types recorded in the audit log.
const (
	EventRoutingCompleted = "routing_completed"
	EventTicketEscalated  = "ticket_escalated"
	EventTicketReassigned = "ticket_reassigned"
)

// RoutingEvent is one append-only entry in the routing audit history.
type RoutingEvent struct {
	TicketRef   string         `json:"ticket_ref"`
	EventType   string         `json:"event_type"`
	Channel     domain.Channel `json:"channel"`
	Text        string         `json:"text,omitempty"`
	Intent      domain.Intent  `json:"intent,omitempty"`
	Urgency     domain.Urgency `json:"urgency,omitempty"`
	Confidence  float64        `json:"confidence,omitempty"`
	Team        string         `json:"team,omitempty"`
	Escalate    bool           `json:"escalate,omitempty"`
	NeedsReview bool           `json:"needs_review,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// RoutingEventLog is the outbound port for the append-only routing audit
// history. Writes are best-effort: a failed append never affects the decision
// already made for the current ticket.
type RoutingEventLog interface {
	Append(ctx context.Context, evt *RoutingEvent) error

	// ListCompleted returns up to limit routing_completed events, newest
	// first, for periodic pattern re-analysis.
	ListCompleted(ctx context.Context, limit int64) ([]*RoutingEvent, error)

	// WasReassigned reports whether a ticket_reassigned event exists for the
	// ticket. Reassigned tickets are excluded from positive re-analysis.
	WasReassigned(ctx context.Context, ticketRef string) (bool, error)
}
