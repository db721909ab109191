// Package worker implements the inbound stream processors: ticket intake and
// the asynchronous learning consumer.
package worker

import (
	"context"

	"router_server/adapter/out/messaging"
	"router_server/pkg/logger"
)

// Dispatcher routes stream messages to the right processor. Implements
// messaging.JobHandler.
type Dispatcher struct {
	intakeProcessor   *IntakeProcessor
	learningProcessor *LearningProcessor
}

func NewDispatcher(intakeProcessor *IntakeProcessor, learningProcessor *LearningProcessor) *Dispatcher {
	return &Dispatcher{
		intakeProcessor:   intakeProcessor,
		learningProcessor: learningProcessor,
	}
}

// Handle dispatches one raw message by stream name.
func (d *Dispatcher) Handle(ctx context.Context, stream string, data []byte) error {
	switch stream {
	case messaging.StreamTicketIntake:
		return d.intakeProcessor.Process(ctx, data)
	case messaging.StreamRouteDecision:
		return d.learningProcessor.Process(ctx, data)
	default:
		logger.Warn("Unknown stream: %s", stream)
		return nil
	}
}

// Ensure Dispatcher implements messaging.JobHandler
var _ messaging.JobHandler = (*Dispatcher)(nil)
