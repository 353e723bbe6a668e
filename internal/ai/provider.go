package ai

import "context"

// Mode selects the persona's teaching methodology.
type Mode string

const (
	ModeBeginner  Mode = "BEGINNER"
	ModeStandard  Mode = "STANDARD"
	ModeWhiteRoom Mode = "WHITE_ROOM"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

type Message struct {
	Role    string
	Content string
}

// Request is one user turn. History holds the prior turns of the session in
// order and does not include Input.
type Request struct {
	Mode    Mode
	History []Message
	Input   string
	Image   string // optional data URI
}

// Provider sends a turn to a language model and returns its raw text.
// Failures are returned as *Error.
type Provider interface {
	Converse(ctx context.Context, req Request) (string, error)
}
