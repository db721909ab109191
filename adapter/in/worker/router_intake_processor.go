package worker

import (
	"context"

	"github.com/goccy/go-json"

	"router_server/core/agent"
	"router_server/core/domain"
	"router_server/core/port/out"
	"router_server/pkg/apperr"
	"router_server/pkg/logger"
)

// IntakeProcessor consumes raw tickets from the intake stream and runs them
// through the classification pipeline.
type IntakeProcessor struct {
	orchestrator *agent.Orchestrator
	log          *logger.Logger
}

func NewIntakeProcessor(orchestrator *agent.Orchestrator) *IntakeProcessor {
	return &IntakeProcessor{
		orchestrator: orchestrator,
		log:          logger.Default().WithField("component", "intake_processor"),
	}
}

// Process handles one intake message. Invalid payloads are dropped with a
// warning instead of being retried; retrying cannot fix them.
func (p *IntakeProcessor) Process(ctx context.Context, data []byte) error {
	var job out.TicketIntakeJob
	if err := json.Unmarshal(data, &job); err != nil {
		p.log.WithError(err).Warn("dropping malformed intake message")
		return nil
	}

	req := &domain.TicketRequest{
		TicketRef: job.TicketRef,
		Channel:   job.Channel,
		Subject:   job.Subject,
		Body:      job.Body,
		Sender:    job.Sender,
	}

	ticket, err := p.orchestrator.ClassifyAndRoute(ctx, req)
	if err != nil {
		if apperr.IsInvalidInput(err) {
			p.log.WithTicket(job.TicketRef).WithError(err).Warn("dropping empty intake ticket")
			return nil
		}
		return err
	}

	p.log.WithTicket(ticket.TicketRef).
		WithFields(map[string]any{
			"team":     ticket.Routing.Team,
			"escalate": ticket.Routing.Escalate,
		}).
		Debug("intake ticket routed")
	return nil
}
