package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"expense_tracker/internal/platform/events"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	got []events.Event
	err error
}

func (s *recordingSink) Publish(_ context.Context, ev events.Event) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, ev)
	return nil
}

func TestEventWorker_HandleForwards(t *testing.T) {
	sink := &recordingSink{}
	w := NewEventWorker(nil, "q", sink)

	raw, err := json.Marshal(events.New(events.EntryCreated, "u1", "e1", map[string]float64{"amount": 3}))
	require.NoError(t, err)

	require.NoError(t, w.handle(context.Background(), raw))
	require.Len(t, sink.got, 1)
	assert.Equal(t, events.EntryCreated, sink.got[0].Type)
	assert.Equal(t, "e1", sink.got[0].SubjectID)
	assert.JSONEq(t, `{"amount":3}`, string(sink.got[0].Data))
}

func TestEventWorker_HandleDiscardsMalformed(t *testing.T) {
	sink := &recordingSink{}
	w := NewEventWorker(nil, "q", sink)

	assert.NoError(t, w.handle(context.Background(), []byte("not json")))
	assert.NoError(t, w.handle(context.Background(), []byte(`{"subject_id":"x"}`)))
	assert.Empty(t, sink.got)
}

func TestEventWorker_HandleReturnsSinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("kafka unavailable")}
	w := NewEventWorker(nil, "q", sink)

	raw, err := json.Marshal(events.New(events.UserDeleted, "m", "u", nil))
	require.NoError(t, err)
	assert.Error(t, w.handle(context.Background(), raw))
}

func TestEventWorker_StartStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewEventWorker(nil, "q", &recordingSink{})
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	<-done
}

// fakeQueue serves queued values from BRPop, then reports an empty list.
// onPop runs inside the first pop, while the value is in flight.
type fakeQueue struct {
	mu      sync.Mutex
	values  []string
	pushed  []string
	popErrs []error
	onPop   func()
}

func (q *fakeQueue) BRPop(ctx context.Context, _ time.Duration, keys ...string) *redis.StringSliceCmd {
	q.mu.Lock()
	onPop := q.onPop
	q.onPop = nil
	if len(q.values) == 0 {
		q.mu.Unlock()
		return redis.NewStringSliceResult(nil, redis.Nil)
	}
	v := q.values[0]
	q.values = q.values[1:]
	q.mu.Unlock()

	if onPop != nil {
		onPop()
	}
	if err := ctx.Err(); err != nil {
		q.mu.Lock()
		q.popErrs = append(q.popErrs, err)
		q.mu.Unlock()
		return redis.NewStringSliceResult(nil, err)
	}
	return redis.NewStringSliceResult([]string{keys[0], v}, nil)
}

func (q *fakeQueue) RPush(_ context.Context, _ string, values ...interface{}) *redis.IntCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, v := range values {
		q.pushed = append(q.pushed, v.(string))
	}
	return redis.NewIntResult(int64(len(q.pushed)), nil)
}

func runUntilStopped(t *testing.T, ctx context.Context, w *EventWorker) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestEventWorker_DeliversEventPoppedDuringShutdown(t *testing.T) {
	raw, err := json.Marshal(events.New(events.EntryDeleted, "m", "e7", nil))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	q := &fakeQueue{values: []string{string(raw)}, onPop: cancel}
	sink := &recordingSink{}

	runUntilStopped(t, ctx, NewEventWorker(q, "q", sink))

	assert.Empty(t, q.popErrs, "pop must not observe worker cancellation")
	require.Len(t, sink.got, 1)
	assert.Equal(t, "e7", sink.got[0].SubjectID)
	assert.Empty(t, q.pushed)
}

func TestEventWorker_RequeuesOnSinkFailure(t *testing.T) {
	raw, err := json.Marshal(events.New(events.UserUpdated, "m", "u3", nil))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	q := &fakeQueue{values: []string{string(raw)}, onPop: cancel}

	runUntilStopped(t, ctx, NewEventWorker(q, "q", &recordingSink{err: errors.New("kafka unavailable")}))

	assert.Equal(t, []string{string(raw)}, q.pushed)
}
