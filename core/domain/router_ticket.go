package domain

import (
	"time"

	"github.com/google/uuid"
)

// Channel identifies the intake channel a request arrived through.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelChat  Channel = "chat"
	ChannelForm  Channel = "form"
)

// TicketRequest is a raw support request before classification.
// Subject and Body are both optional individually, but at least one must be
// non-empty.
type TicketRequest struct {
	TicketRef string  `json:"ticket_ref"`
	Channel   Channel `json:"channel"`
	Subject   string  `json:"subject,omitempty"`
	Body      string  `json:"body,omitempty"`
	Sender    string  `json:"sender,omitempty"`
}

// NewTicketRef generates a unique ticket reference.
func NewTicketRef() string {
	return "TKT-" + uuid.NewString()
}

// RoutedTicket is the orchestrator's result: the classification and the
// routing decision for one request. Transient, produced per request.
type RoutedTicket struct {
	TicketRef      string               `json:"ticket_ref"`
	Channel        Channel              `json:"channel"`
	Classification ClassificationResult `json:"classification"`
	Routing        RoutingDecision      `json:"routing"`
	RoutedAt       time.Time            `json:"routed_at"`
}
