// Package routing implements the routing policy engine: an ordered chain of
// override rules evaluated in priority order, first match wins.
package routing

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"router_server/core/domain"
	"router_server/core/port/out"
	"router_server/core/service/classification"
	"router_server/pkg/logger"
)

// disputePattern identifies disputed or unauthorized charges in billing
// requests, which must route to Compliance instead of Finance.
var disputePattern = regexp.MustCompile(
	`(?i)\b(?:dispute|disputed|discrepancy|unauthorized|chargeback|never\s+authorized|didn'?t\s+authorize|did\s+not\s+authorize|wrong\s+charge|incorrect\s+(?:billing|charge)|billing\s+error|don'?t\s+recognize)\b`)

// RouteContext carries everything an override predicate can look at.
type RouteContext struct {
	TicketRef      string
	Channel        domain.Channel
	Text           string
	Classification *domain.ClassificationResult
	Snapshot       *classification.PatternSnapshot
}

// overrideRule is one (predicate, decision) pair of the override chain.
type overrideRule struct {
	name    string
	applies func(rc *RouteContext) bool
	team    func(rc *RouteContext) string
}

// The override chain, in fixed priority order.
var overrideRules = []overrideRule{
	{
		name: "low_confidence_triage",
		applies: func(rc *RouteContext) bool {
			return rc.Classification.Confidence < domain.ReviewConfidenceThreshold
		},
		team: func(rc *RouteContext) string { return domain.TeamTriage },
	},
	{
		name: "billing_dispute_compliance",
		applies: func(rc *RouteContext) bool {
			return rc.Classification.Intent == domain.IntentBillingFinance &&
				DisputeIndicated(rc.Text, rc.Classification.Entities)
		},
		team: func(rc *RouteContext) string { return domain.TeamCompliance },
	},
	{
		name:    "default_team",
		applies: func(rc *RouteContext) bool { return true },
		team: func(rc *RouteContext) string {
			return rc.Snapshot.TeamFor(rc.Classification.Intent)
		},
	},
}

// DisputeIndicated reports whether the text or extracted entities indicate a
// disputed or unauthorized charge.
func DisputeIndicated(text string, entities []string) bool {
	if disputePattern.MatchString(text) {
		return true
	}
	return disputePattern.MatchString(strings.Join(entities, " "))
}

// Engine consumes a classification result and produces a routing decision.
type Engine struct {
	snapshots *classification.SnapshotHolder
	producer  out.MessageProducer
	log       *logger.Logger

	publishTimeout time.Duration
}

// NewEngine creates a routing engine. producer may be nil (no events
// emitted, e.g. in tests).
func NewEngine(snapshots *classification.SnapshotHolder, producer out.MessageProducer) *Engine {
	return &Engine{
		snapshots:      snapshots,
		producer:       producer,
		log:            logger.Default().WithField("component", "routing_engine"),
		publishTimeout: 5 * time.Second,
	}
}

// Decide evaluates the override chain and the escalation table, then emits a
// routing-decision event for the learning system. Event emission is
// fire-and-forget and never blocks or fails the caller.
func (e *Engine) Decide(ticketRef string, channel domain.Channel, text string, cls *domain.ClassificationResult) *domain.RoutingDecision {
	rc := &RouteContext{
		TicketRef:      ticketRef,
		Channel:        channel,
		Text:           text,
		Classification: cls,
		Snapshot:       e.snapshots.Load(),
	}

	var team, matched string
	for _, rule := range overrideRules {
		if rule.applies(rc) {
			team = rule.team(rc)
			matched = rule.name
			break
		}
	}

	needsReview := cls.Confidence < domain.ReviewConfidenceThreshold
	escalate := cls.Urgency == domain.UrgencyCritical || cls.Urgency == domain.UrgencyHigh

	decision := &domain.RoutingDecision{
		Team:               team,
		Escalate:           escalate,
		ResponseTimeBudget: domain.ResponseTimeBudget[cls.Urgency],
		NeedsReview:        needsReview,
		Reasoning:          buildReasoning(cls, team, matched, needsReview),
	}

	e.emitDecision(ticketRef, channel, text, cls, decision)

	return decision
}

// emitDecision publishes the routing-decision event asynchronously.
func (e *Engine) emitDecision(ticketRef string, channel domain.Channel, text string, cls *domain.ClassificationResult, decision *domain.RoutingDecision) {
	if e.producer == nil {
		return
	}

	evt := &out.RouteDecisionEvent{
		TicketRef:   ticketRef,
		Channel:     channel,
		Text:        text,
		Intent:      cls.Intent,
		Urgency:     cls.Urgency,
		Confidence:  cls.Confidence,
		Source:      string(cls.Source),
		Team:        decision.Team,
		Escalate:    decision.Escalate,
		NeedsReview: decision.NeedsReview,
		DecidedAt:   time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.publishTimeout)
		defer cancel()
		if err := e.producer.PublishRouteDecision(ctx, evt); err != nil {
			e.log.WithTicket(ticketRef).WithError(err).Warn("failed to publish routing decision event")
		}
	}()
}

func buildReasoning(cls *domain.ClassificationResult, team, rule string, needsReview bool) string {
	parts := []string{
		fmt.Sprintf("intent %q at %.0f%% confidence", cls.Intent, cls.Confidence*100),
		fmt.Sprintf("urgency %s", cls.Urgency),
		fmt.Sprintf("routed to %s via %s", team, rule),
	}
	if needsReview {
		parts = append(parts, "low confidence, manual review required")
	}
	return strings.Join(parts, "; ")
}
