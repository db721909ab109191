package bootstrap

import (
	"context"
	"os"
	"sync"
	"time"

	"router_server/adapter/in/worker"
	"router_server/adapter/out/messaging"
	"router_server/config"
	"router_server/pkg/logger"

	"github.com/rs/zerolog"
)

type Worker struct {
	consumer *messaging.Consumer
	deps     *Dependencies
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	zlog     zerolog.Logger
}

func NewWorker(cfg *config.Config) (*Worker, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		return nil, nil, err
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Str("component", "worker").Logger()

	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
		zlog:   zlog,
	}

	if deps.Redis != nil {
		intakeProcessor := worker.NewIntakeProcessor(deps.Orchestrator)

		streams := []string{messaging.StreamTicketIntake}

		var learningProcessor *worker.LearningProcessor
		if deps.Learner != nil {
			learningProcessor = worker.NewLearningProcessor(deps.Learner)
			streams = append(streams, messaging.StreamRouteDecision)
		} else {
			logger.Warn("No pattern store, decision stream will not be consumed")
		}

		dispatcher := worker.NewDispatcher(intakeProcessor, learningProcessor)

		w.consumer = messaging.NewConsumer(deps.Redis, &messaging.ConsumerConfig{
			Group:                cfg.ConsumerGroup,
			Consumer:             cfg.ConsumerID,
			Streams:              streams,
			Handler:              dispatcher,
			Logger:               zlog,
			BatchSize:            cfg.ConsumerBatchSize,
			BlockTime:            time.Duration(cfg.ConsumerBlockMS) * time.Millisecond,
			PendingCheckInterval: time.Duration(cfg.ConsumerPendingCheckSec) * time.Second,
			MaxRetries:           cfg.ConsumerMaxRetries,
		})
		logger.Info("Redis Stream Consumer configured for %d streams", len(streams))
	} else {
		logger.Warn("Redis not available, worker has no intake source")
	}

	return w, cleanup, nil
}

func (w *Worker) Start() {
	if w.consumer != nil {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.zlog.Info().Msg("Starting Redis Stream Consumer...")
			if err := w.consumer.Run(w.ctx); err != nil && err != context.Canceled {
				w.zlog.Error().Err(err).Msg("Redis Stream Consumer error")
			}
		}()
	}

	<-w.ctx.Done()
}

func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) Dependencies() *Dependencies {
	return w.deps
}
