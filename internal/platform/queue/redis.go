package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"expense_tracker/internal/platform/config"
	"expense_tracker/internal/platform/events"

	"github.com/redis/go-redis/v9"
)

// Connect opens a client for cfg's Redis and pings it.
func Connect(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.RedisAddr, err)
	}
	log.Println("Successfully connected to Redis!")
	return rdb, nil
}

func Close(rdb *redis.Client) {
	if rdb != nil {
		rdb.Close()
		log.Println("Redis connection closed.")
	}
}

// Publisher enqueues events on a Redis list; the event worker drains it.
type Publisher struct {
	rdb   *redis.Client
	queue string
}

func NewPublisher(rdb *redis.Client, queueName string) *Publisher {
	return &Publisher{rdb: rdb, queue: queueName}
}

func (p *Publisher) Publish(ctx context.Context, ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	// Request cancellation must not drop an event for a committed change.
	if err := p.rdb.LPush(context.WithoutCancel(ctx), p.queue, data).Err(); err != nil {
		return fmt.Errorf("enqueue %s event on %s: %w", ev.Type, p.queue, err)
	}
	return nil
}
