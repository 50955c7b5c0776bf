package events

import (
	"context"
	"errors"
	"log"
	"sync"
)

var (
	ErrBufferFull = errors.New("event buffer is full")
	ErrClosed     = errors.New("event publisher is closed")
)

// Async hands events to a background goroutine that forwards them to a sink,
// so Publish never waits on the broker.
type Async struct {
	sink Publisher
	ch   chan Event
	done chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsync(sink Publisher, buffer int) *Async {
	a := &Async{
		sink: sink,
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

// Publish enqueues ev. A full buffer drops the event and reports ErrBufferFull.
func (a *Async) Publish(_ context.Context, ev Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.ch <- ev:
		return nil
	default:
		return ErrBufferFull
	}
}

func (a *Async) run() {
	defer close(a.done)
	for ev := range a.ch {
		if err := a.sink.Publish(context.Background(), ev); err != nil {
			log.Printf("ERROR: failed to deliver %s event for %s: %v", ev.Type, ev.SubjectID, err)
		}
	}
}

// Close stops accepting events and waits until the buffered ones are delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.ch)
	}
	a.mu.Unlock()
	<-a.done
}
