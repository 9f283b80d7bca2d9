package events

import (
	"context"
	"time"
)

// Event types published on the domain stream. The NATS subject is
// "events.<type>".
const (
	TypeFileUploaded     = "copilot.file_uploaded"
	TypeCacheReady       = "copilot.cache_ready"
	TypeNotesAdded       = "anki.notes_added"
	TypeFeedbackReceived = "sokrates.feedback_received"
)

type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

// Sink accepts events for delivery.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

// Payload carries the event data plus "occurred_at", so subscribers can
// recover the timestamp from the message alone.
func (e BaseEvent) Payload() map[string]interface{} {
	out := make(map[string]interface{}, len(e.Data)+1)
	for k, v := range e.Data {
		out[k] = v
	}
	out["occurred_at"] = e.OccurredAt
	return out
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
