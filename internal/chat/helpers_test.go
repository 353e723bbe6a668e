package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sidlawliet/whiteroom-mentor/internal/ai"
	"github.com/sidlawliet/whiteroom-mentor/internal/store/memstore"
)

type fakeMentor struct {
	mu    sync.Mutex
	reqs  []ai.Request
	reply string
	err   error

	// when set, Converse signals started and waits for release
	started chan struct{}
	release chan struct{}
}

func (f *fakeMentor) Converse(ctx context.Context, req ai.Request) (string, error) {
	f.mu.Lock()
	// copy to avoid mutations
	req.History = append([]ai.Message(nil), req.History...)
	f.reqs = append(f.reqs, req)
	reply, err := f.reply, f.err
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return reply, err
}

func (f *fakeMentor) requests() []ai.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ai.Request(nil), f.reqs...)
}

type countingStore struct {
	*memstore.Store
	mu      sync.Mutex
	saves   int
	loadErr error
	saveErr error
}

func newCountingStore() *countingStore {
	return &countingStore{Store: memstore.New()}
}

func (s *countingStore) Load(ctx context.Context, key string) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.Store.Load(ctx, key)
}

func (s *countingStore) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.Store.Save(ctx, key, data)
}

func (s *countingStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// stepClock advances one second on every read so LastActive values differ.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(ctx context.Context, ev Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) types() []EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]EventType, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

func newTestController(t *testing.T, mentor ai.Provider, opts ...Option) (*Controller, *countingStore) {
	t.Helper()
	st := newCountingStore()
	opts = append([]Option{WithClock(newStepClock().Now)}, opts...)
	c := NewController(st, mentor, opts...)
	c.Activate(context.Background(), "alice")
	return c, st
}

func mustStart(t *testing.T, c *Controller, d Difficulty) Session {
	t.Helper()
	s, err := c.Start(context.Background(), d)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return s
}

func storedSessions(t *testing.T, st *countingStore, identity string) []Session {
	t.Helper()
	data, err := st.Store.Load(context.Background(), StorageKey(DefaultNamespace, identity))
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	sessions, err := DecodeRegistry(data)
	if err != nil {
		t.Fatalf("decode record: %v", err)
	}
	return sessions
}

func assertSortedByLastActive(t *testing.T, sessions []Session) {
	t.Helper()
	for i := 1; i < len(sessions); i++ {
		if sessions[i].LastActive.After(sessions[i-1].LastActive) {
			t.Fatalf("sessions not sorted: %s (%v) before %s (%v)",
				sessions[i-1].ID, sessions[i-1].LastActive, sessions[i].ID, sessions[i].LastActive)
		}
	}
}
