package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sidlawliet/whiteroom-mentor/internal/ai"
	"github.com/sidlawliet/whiteroom-mentor/internal/observability"
	"github.com/sidlawliet/whiteroom-mentor/internal/store"
)

const DefaultNamespace = "wr_sessions"

type Option func(*Controller)

func WithNamespace(ns string) Option {
	return func(c *Controller) {
		if ns != "" {
			c.namespace = ns
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRetention caps the number of sessions kept per identity. Zero keeps
// all of them.
func WithRetention(max int) Option {
	return func(c *Controller) { c.retention = max }
}

// Controller owns the session registry of one signed-in identity. Every
// mutation swaps the session list and writes it through the persistence
// adapter in a single step under mu.
type Controller struct {
	mu        sync.Mutex
	store     Persistence
	mentor    ai.Provider
	notifier  Notifier
	log       *slog.Logger
	now       func() time.Time
	namespace string
	retention int

	identity string
	sessions []Session
	activeID string
	focus    string
	pending  map[string]bool

	// generation changes whenever the identity does, so a reply that
	// arrives after sign-out is discarded.
	generation uint64
}

func NewController(p Persistence, mentor ai.Provider, opts ...Option) *Controller {
	c := &Controller{
		store:     p,
		mentor:    mentor,
		now:       time.Now,
		namespace: DefaultNamespace,
		pending:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Turn is the outcome of one Send.
type Turn struct {
	SessionID string
	User      Message
	Reply     Message

	// Focus is the display tag extracted from the reply, "" if none.
	Focus string

	// Err is the mentor failure already rendered into Reply, if any.
	Err *ai.Error
}

// View is a copy of the controller state for presentation.
type View struct {
	Identity string    `json:"identity"`
	ActiveID string    `json:"active_id,omitempty"`
	Focus    string    `json:"focus,omitempty"`
	Sessions []Session `json:"sessions"`
}

func (c *Controller) logger(ctx context.Context) *slog.Logger {
	if c.log != nil {
		return c.log
	}
	return observability.LoggerFromContext(ctx)
}

// Activate switches the controller to identity and loads its registry.
// Load or decode failures leave an empty registry. Loaded sessions come back
// fully revealed with no active session.
//
// The read is detached from ctx cancellation. A load failure other than a
// missing record is returned, wrapped in ErrRegistryUnavailable, so callers
// that share controllers can avoid keeping one that never saw the record.
func (c *Controller) Activate(ctx context.Context, identity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if identity != "" && identity == c.identity {
		return nil
	}
	c.resetLocked()
	c.identity = identity
	if identity == "" {
		return nil
	}

	log := c.logger(ctx).With("identity", identity)
	data, err := c.store.Load(context.WithoutCancel(ctx), StorageKey(c.namespace, identity))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		log.Warn("failed to load sessions", "error", err)
		return fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}
	sessions, err := DecodeRegistry(data)
	if err != nil {
		log.Error("failed to decode sessions", "error", err)
		return nil
	}
	c.sessions = finalizeAll(sessions)
	log.Info("sessions loaded", "count", len(sessions))
	return nil
}

// SignOut drops the registry from memory. The durable record stays.
func (c *Controller) SignOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.identity = ""
	c.sessions = nil
	c.activeID = ""
	c.focus = ""
	c.pending = make(map[string]bool)
	c.generation++
}

// Start finalizes the active session and opens a new one at difficulty d.
func (c *Controller) Start(ctx context.Context, d Difficulty) (Session, error) {
	if !d.Valid() {
		return Session{}, ErrInvalidDifficulty
	}

	c.mu.Lock()
	if c.identity == "" {
		c.mu.Unlock()
		return Session{}, ErrNoIdentity
	}

	now := c.now()
	sessions := c.sessions
	if c.activeID != "" {
		sessions = finalizeSession(sessions, c.activeID)
	}

	s := Session{
		ID:         NewID(now),
		Timestamp:  now,
		LastActive: now,
		Difficulty: d,
		Preview:    NewSessionPreview,
		Messages: []Message{{
			ID:          NewID(now),
			Role:        RoleModel,
			Content:     WelcomeText,
			Timestamp:   now,
			HasAnimated: true,
		}},
	}
	sessions = prependSession(sessions, s)
	sessions, dropped := evictSessions(sessions, c.retention, func(id string) bool {
		return id == s.ID || c.pending[id]
	})

	c.activeID = s.ID
	c.focus = FocusInitialization
	c.commitLocked(ctx, sessions)

	events := []Event{c.eventLocked(EventSessionStarted, s.ID, "", d)}
	for _, id := range dropped {
		events = append(events, c.eventLocked(EventSessionEvicted, id, "", ""))
	}
	c.mu.Unlock()

	c.emit(ctx, events...)
	return s.clone(), nil
}

// SwitchTo finalizes the active session and activates id. An unknown id
// leaves no session active and is not an error.
func (c *Controller) SwitchTo(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.identity == "" {
		c.mu.Unlock()
		return ErrNoIdentity
	}

	sessions := c.sessions
	if c.activeID != "" {
		sessions = finalizeSession(sessions, c.activeID)
	}

	var events []Event
	if s, ok := findSession(sessions, id); ok {
		c.activeID = s.ID
		c.focus = FocusResumed
		events = append(events, c.eventLocked(EventSessionSwitched, s.ID, "", s.Difficulty))
	} else {
		c.logger(ctx).Debug("switch to unknown session", "identity", c.identity, "session_id", id)
		c.activeID = ""
		c.focus = ""
	}
	c.commitLocked(ctx, sessions)
	c.mu.Unlock()

	c.emit(ctx, events...)
	return nil
}

// NewChat finalizes the active session and returns to the landing state.
func (c *Controller) NewChat(ctx context.Context) error {
	c.mu.Lock()
	if c.identity == "" {
		c.mu.Unlock()
		return ErrNoIdentity
	}

	sessions := c.sessions
	if c.activeID != "" {
		sessions = finalizeSession(sessions, c.activeID)
	}
	c.activeID = ""
	c.focus = ""
	c.commitLocked(ctx, sessions)
	ev := c.eventLocked(EventLanding, "", "", "")
	c.mu.Unlock()

	c.emit(ctx, ev)
	return nil
}

// AppendTurn replaces the messages of session id with msgs, which must be
// the full sequence, not a delta.
func (c *Controller) AppendTurn(ctx context.Context, id string, msgs []Message) error {
	c.mu.Lock()
	if c.identity == "" {
		c.mu.Unlock()
		return ErrNoIdentity
	}
	sessions, ok := replaceMessages(c.sessions, id, msgs, c.now())
	if !ok {
		c.mu.Unlock()
		return ErrSessionNotFound
	}
	c.commitLocked(ctx, sessions)

	var last string
	if len(msgs) > 0 {
		last = msgs[len(msgs)-1].ID
	}
	ev := c.eventLocked(EventTurnAppended, id, last, "")
	c.mu.Unlock()

	c.emit(ctx, ev)
	return nil
}

// CompleteReveal marks messageID as revealed without touching LastActive or
// Preview.
func (c *Controller) CompleteReveal(ctx context.Context, id, messageID string) error {
	c.mu.Lock()
	if c.identity == "" {
		c.mu.Unlock()
		return ErrNoIdentity
	}
	if _, ok := findSession(c.sessions, id); !ok {
		c.mu.Unlock()
		return ErrSessionNotFound
	}
	sessions, ok := markRevealed(c.sessions, id, messageID)
	if !ok {
		c.mu.Unlock()
		return ErrMessageNotFound
	}
	c.commitLocked(ctx, sessions)
	ev := c.eventLocked(EventReplyRevealed, id, messageID, "")
	c.mu.Unlock()

	c.emit(ctx, ev)
	return nil
}

// Send runs one user turn: the user message is stored before the mentor is
// called, then the reply (or a rendered failure) is appended. Only one Send
// may be outstanding per session. Canceling ctx does not abort the turn.
func (c *Controller) Send(ctx context.Context, id, text, image string) (*Turn, error) {
	if strings.TrimSpace(text) == "" && image == "" {
		return nil, ErrEmptyInput
	}
	// the mentor call and the writes around it outlive the caller
	ctx = context.WithoutCancel(ctx)

	c.mu.Lock()
	if c.identity == "" {
		c.mu.Unlock()
		return nil, ErrNoIdentity
	}
	sess, ok := findSession(c.sessions, id)
	if !ok {
		c.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if c.pending[id] {
		c.mu.Unlock()
		return nil, ErrSendInProgress
	}

	now := c.now()
	user := Message{
		ID:          NewID(now),
		Role:        RoleUser,
		Content:     text,
		Image:       image,
		Timestamp:   now,
		HasAnimated: true,
	}
	prior := sess.Messages
	updated := append(append(make([]Message, 0, len(prior)+1), prior...), user)
	sessions, _ := replaceMessages(c.sessions, id, updated, now)
	c.commitLocked(ctx, sessions)

	c.pending[id] = true
	generation := c.generation
	identity := c.identity
	ev := c.eventLocked(EventTurnAppended, id, user.ID, sess.Difficulty)
	c.mu.Unlock()
	c.emit(ctx, ev)

	raw, callErr := c.mentor.Converse(ctx, ai.Request{
		Mode:    ai.Mode(sess.Difficulty),
		History: historyFor(prior),
		Input:   text,
		Image:   image,
	})

	turn := &Turn{SessionID: id, User: user}
	content := ""
	switch {
	case callErr != nil && !ai.IsKind(callErr, ai.KindEmptyResponse):
		turn.Err = ai.Classify(callErr)
		content = interruptedReply(turn.Err)
		c.logger(ctx).Warn("mentor call failed",
			"identity", identity, "session_id", id, "kind", turn.Err.Kind, "error", callErr)
	case callErr == nil && raw != "":
		display, label, found := ParseResponse(raw)
		if found && label != "" {
			turn.Focus = FocusTag(label)
		}
		content = display
	}
	if content == "" {
		content = FallbackReply
	}

	c.mu.Lock()
	if c.generation != generation {
		c.mu.Unlock()
		c.logger(ctx).Info("discarding reply for previous identity", "identity", identity, "session_id", id)
		return nil, ErrIdentityChanged
	}
	delete(c.pending, id)

	cur, ok := findSession(c.sessions, id)
	if !ok {
		c.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	replyAt := c.now()
	active := c.activeID == id
	reply := Message{
		ID:        NewID(replyAt),
		Role:      RoleModel,
		Content:   content,
		Timestamp: replyAt,

		// a reply landing in a session the user already left has nothing to reveal
		HasAnimated: !active,
	}
	msgs := make([]Message, 0, len(cur.Messages)+1)
	for _, m := range cur.Messages {
		m.HasAnimated = true
		msgs = append(msgs, m)
	}
	msgs = append(msgs, reply)

	sessions, _ = replaceMessages(c.sessions, id, msgs, replyAt)
	c.commitLocked(ctx, sessions)
	if active && turn.Focus != "" {
		c.focus = turn.Focus
	}

	events := []Event{c.eventLocked(EventTurnAppended, id, reply.ID, sess.Difficulty)}
	if turn.Err != nil {
		fail := c.eventLocked(EventMentorFailed, id, reply.ID, sess.Difficulty)
		fail.Detail = string(turn.Err.Kind)
		events = append(events, fail)
	}
	c.mu.Unlock()
	c.emit(ctx, events...)

	turn.Reply = reply
	return turn, nil
}

func historyFor(msgs []Message) []ai.Message {
	out := make([]ai.Message, 0, len(msgs))
	for _, m := range msgs {
		role := ai.RoleUser
		if m.Role == RoleModel {
			role = ai.RoleModel
		}
		out = append(out, ai.Message{Role: role, Content: m.Content})
	}
	return out
}

// commitLocked installs sessions and writes the whole registry. Save
// failures are logged; in-memory state stays authoritative.
func (c *Controller) commitLocked(ctx context.Context, sessions []Session) {
	c.sessions = sessions
	if len(sessions) == 0 {
		return
	}
	log := c.logger(ctx).With("identity", c.identity)
	data, err := EncodeRegistry(sessions)
	if err != nil {
		log.Error("failed to encode sessions", "error", err)
		return
	}
	if err := c.store.Save(ctx, StorageKey(c.namespace, c.identity), data); err != nil {
		log.Warn("failed to save sessions", "error", err)
	}
}

func (c *Controller) eventLocked(t EventType, sessionID, messageID string, d Difficulty) Event {
	now := c.now()
	return Event{
		ID:         NewID(now),
		Type:       t,
		Identity:   c.identity,
		SessionID:  sessionID,
		MessageID:  messageID,
		Difficulty: d,
		At:         now,
	}
}

func (c *Controller) emit(ctx context.Context, events ...Event) {
	if c.notifier == nil {
		return
	}
	for _, ev := range events {
		if err := c.notifier.Notify(ctx, ev); err != nil {
			c.logger(ctx).Warn("failed to publish session event", "type", ev.Type, "error", err)
		}
	}
}

func (c *Controller) Identity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Sessions returns a copy of the registry, most recently active first.
func (c *Controller) Sessions() []Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneSessions(c.sessions)
}

func (c *Controller) Session(id string) (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return findSession(c.sessions, id)
}

// Active returns the active session, if any.
func (c *Controller) Active() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeID == "" {
		return Session{}, false
	}
	return findSession(c.sessions, c.activeID)
}

// Focus is the display tag of the active session's current topic.
func (c *Controller) Focus() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus
}

func (c *Controller) Pending(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[id]
}

func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Identity: c.identity,
		ActiveID: c.activeID,
		Focus:    c.focus,
		Sessions: cloneSessions(c.sessions),
	}
}
