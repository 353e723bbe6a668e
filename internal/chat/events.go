package chat

import (
	"context"
	"time"
)

type EventType string

const (
	EventSessionStarted  EventType = "session_started"
	EventSessionSwitched EventType = "session_switched"
	EventLanding         EventType = "landing"
	EventTurnAppended    EventType = "turn_appended"
	EventReplyRevealed   EventType = "reply_revealed"
	EventMentorFailed    EventType = "mentor_failed"
	EventSessionEvicted  EventType = "session_evicted"
)

// Event describes one registry mutation. Events carry ids only, never
// message content. ID is unique per event so consumers can drop redeliveries.
type Event struct {
	ID         string     `json:"id"`
	Type       EventType  `json:"type"`
	Identity   string     `json:"identity"`
	SessionID  string     `json:"session_id,omitempty"`
	MessageID  string     `json:"message_id,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Detail     string     `json:"detail,omitempty"`
	At         time.Time  `json:"at"`
}

// Notifier receives registry events. Delivery is best-effort: errors are
// logged and never change controller state.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Persistence is the durable key/value store holding one serialized
// registry per identity.
type Persistence interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// StorageKey derives the record key for an identity.
func StorageKey(namespace, identity string) string {
	return namespace + "_" + identity
}
