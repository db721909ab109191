// Package agent wires the classification, routing, and learning services into
// the ticket pipeline: classify, route, record, learn.
package agent

import (
	"context"
	"time"

	"router_server/core/domain"
	"router_server/core/port/out"
	"router_server/core/service/classification"
	"router_server/core/service/extraction"
	"router_server/core/service/learning"
	"router_server/core/service/routing"
	"router_server/pkg/apperr"
	"router_server/pkg/logger"
)

// Orchestrator runs the full classify-and-route pipeline for one ticket.
type Orchestrator struct {
	semantic *classification.SemanticAdapter
	fallback *classification.FallbackClassifier
	engine   *routing.Engine
	learner  *learning.Learner
	events   out.RoutingEventLog
	log      *logger.Logger
}

// NewOrchestrator creates the pipeline orchestrator. learner and events may be
// nil (classification and routing still work, nothing is recorded or learned).
func NewOrchestrator(
	semantic *classification.SemanticAdapter,
	fallback *classification.FallbackClassifier,
	engine *routing.Engine,
	learner *learning.Learner,
	events out.RoutingEventLog,
) *Orchestrator {
	return &Orchestrator{
		semantic: semantic,
		fallback: fallback,
		engine:   engine,
		learner:  learner,
		events:   events,
		log:      logger.Default().WithField("component", "orchestrator"),
	}
}

// ClassifyAndRoute processes one ticket end to end. The only error it returns
// is INVALID_INPUT for an empty request; classification failures degrade to
// the fallback and everything downstream is best-effort.
func (o *Orchestrator) ClassifyAndRoute(ctx context.Context, req *domain.TicketRequest) (*domain.RoutedTicket, error) {
	if req == nil {
		return nil, apperr.InvalidInput("ticket request is required")
	}
	if req.Subject == "" && req.Body == "" {
		return nil, apperr.InvalidInput("subject or body is required")
	}
	if req.TicketRef == "" {
		req.TicketRef = domain.NewTicketRef()
	}

	started := time.Now()
	log := o.log.WithTicket(req.TicketRef)

	cls := o.classify(ctx, req, log)
	text := extraction.CombineText(req.Subject, req.Body)
	decision := o.engine.Decide(req.TicketRef, req.Channel, text, cls)

	ticket := &domain.RoutedTicket{
		TicketRef:      req.TicketRef,
		Channel:        req.Channel,
		Classification: *cls,
		Routing:        *decision,
		RoutedAt:       time.Now().UTC(),
	}

	o.record(ctx, ticket, text, log)
	o.learn(ctx, ticket, text)

	log.WithDuration(time.Since(started)).
		WithFields(map[string]any{
			"intent":     string(cls.Intent),
			"team":       decision.Team,
			"source":     string(cls.Source),
			"confidence": cls.Confidence,
		}).
		Info("ticket routed")

	return ticket, nil
}

// ClassifyAndRouteBatch routes a batch of tickets sequentially. A bad request
// in the batch is skipped with a warning; the rest of the batch still routes.
func (o *Orchestrator) ClassifyAndRouteBatch(ctx context.Context, reqs []*domain.TicketRequest) []*domain.RoutedTicket {
	results := make([]*domain.RoutedTicket, 0, len(reqs))
	for _, req := range reqs {
		ticket, err := o.ClassifyAndRoute(ctx, req)
		if err != nil {
			o.log.WithError(err).Warn("skipping unroutable batch entry")
			continue
		}
		results = append(results, ticket)
	}
	return results
}

// classify tries the semantic path first and degrades to the fallback on any
// CLASSIFICATION_UNAVAILABLE. The degradation is logged, never surfaced.
func (o *Orchestrator) classify(ctx context.Context, req *domain.TicketRequest, log *logger.Logger) *domain.ClassificationResult {
	if o.semantic != nil {
		cls, err := o.semantic.Classify(ctx, req.Subject, req.Body)
		if err == nil {
			return cls
		}
		if apperr.IsClassificationUnavailable(err) {
			log.WithError(err).Warn("semantic classification unavailable, using fallback")
		} else {
			log.WithError(err).Error("unexpected classification error, using fallback")
		}
	}
	return o.fallback.Classify(req.Subject, req.Body)
}

// record appends the audit events for the decision. Best-effort.
func (o *Orchestrator) record(ctx context.Context, ticket *domain.RoutedTicket, text string, log *logger.Logger) {
	if o.events == nil {
		return
	}

	completed := &out.RoutingEvent{
		TicketRef:   ticket.TicketRef,
		EventType:   out.EventRoutingCompleted,
		Channel:     ticket.Channel,
		Text:        text,
		Intent:      ticket.Classification.Intent,
		Urgency:     ticket.Classification.Urgency,
		Confidence:  ticket.Classification.Confidence,
		Team:        ticket.Routing.Team,
		Escalate:    ticket.Routing.Escalate,
		NeedsReview: ticket.Routing.NeedsReview,
		CreatedAt:   ticket.RoutedAt,
	}
	if err := o.events.Append(ctx, completed); err != nil {
		log.WithError(err).Warn("routing audit append failed")
	}

	if ticket.Routing.Escalate {
		escalated := &out.RoutingEvent{
			TicketRef: ticket.TicketRef,
			EventType: out.EventTicketEscalated,
			Channel:   ticket.Channel,
			Urgency:   ticket.Classification.Urgency,
			Team:      ticket.Routing.Team,
			CreatedAt: ticket.RoutedAt,
		}
		if err := o.events.Append(ctx, escalated); err != nil {
			log.WithError(err).Warn("escalation audit append failed")
		}
	}
}

// learn feeds the decision into the learning loop.
func (o *Orchestrator) learn(ctx context.Context, ticket *domain.RoutedTicket, text string) {
	if o.learner == nil {
		return
	}
	o.learner.ObserveDecision(ctx, &out.RouteDecisionEvent{
		TicketRef:   ticket.TicketRef,
		Channel:     ticket.Channel,
		Text:        text,
		Intent:      ticket.Classification.Intent,
		Urgency:     ticket.Classification.Urgency,
		Confidence:  ticket.Classification.Confidence,
		Source:      string(ticket.Classification.Source),
		Team:        ticket.Routing.Team,
		Escalate:    ticket.Routing.Escalate,
		NeedsReview: ticket.Routing.NeedsReview,
		DecidedAt:   ticket.RoutedAt,
	})
}
