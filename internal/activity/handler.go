package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sidlawliet/whiteroom-mentor/internal/chat"
)

var ErrMalformedEvent = errors.New("malformed event")

// DecodeEvent parses a queued event body.
func DecodeEvent(body []byte) (chat.Event, error) {
	var ev chat.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return chat.Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.ID == "" || ev.Type == "" || ev.Identity == "" {
		return chat.Event{}, ErrInvalidEvent
	}
	return ev, nil
}

// Handle decodes body and records it. Redeliveries are not an error.
func (r *Repo) Handle(ctx context.Context, body []byte) error {
	ev, err := DecodeEvent(body)
	if err != nil {
		return err
	}
	if _, err := r.Record(ctx, ev); err != nil {
		return fmt.Errorf("record event %s: %w", ev.ID, err)
	}
	return nil
}
