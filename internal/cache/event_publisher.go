package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edugrid/gradecore-backend/internal/config"
	"github.com/edugrid/gradecore-backend/internal/model"
)

// RedisEventPublisher fans attempt lifecycle events out over Redis
// Pub/Sub, one channel per exam, for the live monitor.
type RedisEventPublisher struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisEventPublisher creates a new RedisEventPublisher.
func NewRedisEventPublisher(rdb *redis.Client, log zerolog.Logger) *RedisEventPublisher {
	return &RedisEventPublisher{
		rdb: rdb,
		log: log.With().Str("component", "event_publisher").Logger(),
	}
}

// PublishExamEvent publishes one event to the exam's monitor channel.
func (p *RedisEventPublisher) PublishExamEvent(ctx context.Context, event model.ExamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	channel := config.CacheKey.ExamMonitorChannel(event.ExamID.String())
	if err := p.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe opens a subscription on one exam's monitor channel. The
// caller owns the returned PubSub and must close it.
func (p *RedisEventPublisher) Subscribe(ctx context.Context, examID string) *redis.PubSub {
	return p.rdb.Subscribe(ctx, config.CacheKey.ExamMonitorChannel(examID))
}
