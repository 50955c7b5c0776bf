package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"expense_tracker/internal/platform/events"

	"github.com/redis/go-redis/v9"
)

// Queue is the part of the Redis client the worker needs.
type Queue interface {
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// popTimeout bounds each blocking pop and therefore how long shutdown waits.
const popTimeout = 5 * time.Second

// EventWorker drains the Redis event queue and hands every event to a sink.
type EventWorker struct {
	rdb   Queue
	queue string
	sink  events.Publisher
}

func NewEventWorker(rdb Queue, queueName string, sink events.Publisher) *EventWorker {
	return &EventWorker{rdb: rdb, queue: queueName, sink: sink}
}

// Start blocks until ctx is cancelled. Cancellation is observed between pops;
// an event already taken off the list is always delivered or re-queued.
func (w *EventWorker) Start(ctx context.Context) {
	log.Println("Event worker started, listening to queue:", w.queue)
	work := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Println("Event worker stopping...")
			return
		default:
			res, err := w.rdb.BRPop(work, popTimeout, w.queue).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				log.Printf("ERROR: Failed to BRPop from Redis queue '%s': %v", w.queue, err)
				sleep(ctx, 5*time.Second)
				continue
			}

			// res is [queueName, value]
			if len(res) < 2 || res[1] == "" {
				log.Println("WARN: BRPop returned an empty event.")
				continue
			}
			if err := w.handle(work, []byte(res[1])); err != nil {
				log.Printf("ERROR: %v", err)
				w.requeue(work, res[1])
				sleep(ctx, time.Second)
			}
		}
	}
}

// handle decodes one queued event and forwards it. Undecodable payloads are
// logged and discarded; only sink failures are returned for a retry.
func (w *EventWorker) handle(ctx context.Context, raw []byte) error {
	var ev events.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		log.Printf("WARN: discarding malformed event %q: %v", string(raw), err)
		return nil
	}
	if ev.Type == "" {
		log.Printf("WARN: discarding event without type: %s", string(raw))
		return nil
	}
	return w.sink.Publish(ctx, ev)
}

func (w *EventWorker) requeue(ctx context.Context, raw string) {
	// Push to the consuming end so ordering is kept on retry.
	if err := w.rdb.RPush(ctx, w.queue, raw).Err(); err != nil {
		log.Printf("ERROR: Failed to re-queue event: %v", err)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
