// Package messaging provides message queue adapters.
package messaging

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"router_server/core/port/out"

	"github.com/redis/go-redis/v9"
)

// Stream names
const (
	StreamTicketIntake  = "ticket:intake"
	StreamRouteDecision = "route:decision"
)

// RedisProducer implements out.MessageProducer using Redis Streams.
type RedisProducer struct {
	client *redis.Client
}

// NewRedisProducer creates a new RedisProducer.
func NewRedisProducer(client *redis.Client) *RedisProducer {
	return &RedisProducer{client: client}
}

// PublishTicketIntake publishes a raw ticket for asynchronous routing.
func (p *RedisProducer) PublishTicketIntake(ctx context.Context, job *out.TicketIntakeJob) error {
	return p.publish(ctx, StreamTicketIntake, job)
}

// PublishRouteDecision publishes a routing decision for the learning consumer.
func (p *RedisProducer) PublishRouteDecision(ctx context.Context, evt *out.RouteDecisionEvent) error {
	return p.publish(ctx, StreamRouteDecision, evt)
}

// publish publishes a job to a stream using go-redis.
func (p *RedisProducer) publish(ctx context.Context, stream string, job interface{}) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		ID:     "*",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", stream, err)
	}

	return nil
}

// Ensure RedisProducer implements out.MessageProducer
var _ out.MessageProducer = (*RedisProducer)(nil)
