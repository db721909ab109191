package worker

import (
	"context"

	"github.com/goccy/go-json"

	"router_server/core/port/out"
	"router_server/core/service/learning"
	"router_server/pkg/logger"
)

// LearningProcessor consumes routing decisions from the decision stream and
// feeds them into the learning loop. Keeping learning on its own consumer
// means a slow pattern store never delays ticket routing.
type LearningProcessor struct {
	learner *learning.Learner
	log     *logger.Logger
}

func NewLearningProcessor(learner *learning.Learner) *LearningProcessor {
	return &LearningProcessor{
		learner: learner,
		log:     logger.Default().WithField("component", "learning_processor"),
	}
}

// Process handles one routing decision event.
func (p *LearningProcessor) Process(ctx context.Context, data []byte) error {
	var evt out.RouteDecisionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.log.WithError(err).Warn("dropping malformed decision event")
		return nil
	}

	p.learner.ObserveDecision(ctx, &evt)
	return nil
}
