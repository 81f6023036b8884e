package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	TypeProfileUpdated       = "profile.updated"
	TypeTranscriptionCreated = "transcription.created"
	TypeTranscriptionDeleted = "transcription.deleted"
)

// Event is a change notification addressed to one user.
type Event struct {
	Type   string          `json:"type"`
	UserID string          `json:"user_id"`
	Data   json.RawMessage `json:"data,omitempty"`
	At     time.Time       `json:"at"`
}

// New marshals data into an event for userID.
func New(eventType, userID string, data any) (Event, error) {
	ev := Event{Type: eventType, UserID: userID, At: time.Now().UTC()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, fmt.Errorf("events: encode %s: %w", eventType, err)
		}
		ev.Data = raw
	}
	return ev, nil
}

// Publisher emits events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Broker delivers published events to per-user subscriptions.
type Broker interface {
	Publisher
	Subscribe(userID string) *Subscription
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
