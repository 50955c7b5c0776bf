// Package events carries domain events from the services to an external sink.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

type Type string

const (
	UserRegistered     Type = "user.registered"
	UserCreated        Type = "user.created"
	UserUpdated        Type = "user.updated"
	UserDeleted        Type = "user.deleted"
	EntryCreated       Type = "entry.created"
	EntryUpdated       Type = "entry.updated"
	EntryStatusChanged Type = "entry.status_changed"
	EntryDeleted       Type = "entry.deleted"
)

type Event struct {
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	ActorID    string          `json:"actor_id,omitempty"`
	SubjectID  string          `json:"subject_id"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// New builds an event stamped with the current time. A data value that cannot
// be encoded is dropped.
func New(t Type, actorID, subjectID string, data any) Event {
	ev := Event{Type: t, OccurredAt: time.Now().UTC(), ActorID: actorID, SubjectID: subjectID}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			log.Printf("WARN: dropping payload of %s event: %v", t, err)
		} else {
			ev.Data = raw
		}
	}
	return ev
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Emit publishes ev and logs a failure. Event delivery never fails the
// operation that produced it.
func Emit(ctx context.Context, p Publisher, ev Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		log.Printf("ERROR: failed to publish %s event for %s: %v", ev.Type, ev.SubjectID, err)
	}
}

// LogPublisher writes events to the process log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev Event) error {
	log.Printf("INFO: event %s subject=%s actor=%s data=%s", ev.Type, ev.SubjectID, ev.ActorID, string(ev.Data))
	return nil
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
