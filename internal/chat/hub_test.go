package chat

import (
	"context"
	"errors"
	"testing"
)

func TestHub_OneControllerPerIdentity(t *testing.T) {
	st := newCountingStore()
	hub := NewHub(func() *Controller { return NewController(st, &fakeMentor{reply: "ok"}) })
	ctx := context.Background()

	a1, err := hub.For(ctx, "alice")
	if err != nil {
		t.Fatalf("for: %v", err)
	}
	a2, _ := hub.For(ctx, "alice")
	if a1 != a2 {
		t.Fatalf("expected the same controller for one identity")
	}
	b, _ := hub.For(ctx, "bob")
	if b == a1 || hub.Len() != 2 {
		t.Fatalf("identities must not share a controller")
	}

	if _, err := a1.Start(ctx, DifficultyStandard); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(b.Sessions()) != 0 {
		t.Fatalf("bob sees alice's sessions")
	}

	hub.SignOut("alice")
	if hub.Len() != 1 || a1.Identity() != "" {
		t.Fatalf("sign out must drop the controller")
	}

	// registry comes back from the store on the next request
	again, _ := hub.For(ctx, "alice")
	if len(again.Sessions()) != 1 {
		t.Fatalf("expected persisted session after sign-in, got %d", len(again.Sessions()))
	}

	if _, err := hub.For(ctx, ""); !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
}

func TestHub_CanceledFirstRequestStillLoadsRegistry(t *testing.T) {
	st := newCountingStore()
	seed := NewController(st, &fakeMentor{})
	seed.Activate(context.Background(), "alice")
	for i := 0; i < 3; i++ {
		if _, err := seed.Start(context.Background(), DifficultyStandard); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	hub := NewHub(func() *Controller { return NewController(st, &fakeMentor{}) })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, err := hub.For(ctx, "alice")
	if err != nil {
		t.Fatalf("for: %v", err)
	}
	if len(c.Sessions()) != 3 {
		t.Fatalf("expected 3 sessions after a canceled first request, got %d", len(c.Sessions()))
	}

	if _, err := c.Start(context.Background(), DifficultyBeginner); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := len(storedSessions(t, st, "alice")); got != 4 {
		t.Fatalf("expected 4 durable sessions, got %d", got)
	}
}

func TestHub_FailedLoadIsNotCached(t *testing.T) {
	st := newCountingStore()
	seed := NewController(st, &fakeMentor{})
	seed.Activate(context.Background(), "alice")
	if _, err := seed.Start(context.Background(), DifficultyStandard); err != nil {
		t.Fatalf("seed: %v", err)
	}

	st.loadErr = errors.New("connection reset")
	hub := NewHub(func() *Controller { return NewController(st, &fakeMentor{}) })

	if _, err := hub.For(context.Background(), "alice"); !errors.Is(err, ErrRegistryUnavailable) {
		t.Fatalf("expected ErrRegistryUnavailable, got %v", err)
	}
	if hub.Len() != 0 {
		t.Fatalf("controller with a failed load must not be cached")
	}

	st.loadErr = nil
	c, err := hub.For(context.Background(), "alice")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(c.Sessions()) != 1 {
		t.Fatalf("expected the stored session on retry, got %d", len(c.Sessions()))
	}
}
