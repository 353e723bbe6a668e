package chat

import "errors"

var (
	ErrNoIdentity        = errors.New("no active identity")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSendInProgress    = errors.New("a reply is already pending for this session")
	ErrEmptyInput        = errors.New("message text or image required")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrMessageNotFound   = errors.New("message not found")
	ErrIdentityChanged   = errors.New("identity changed while waiting for reply")

	// ErrRegistryUnavailable wraps a store failure while loading a registry.
	ErrRegistryUnavailable = errors.New("session registry unavailable")
)

const (
	// FallbackReply replaces a model reply that carried no text.
	FallbackReply = "I could not formulate a response. The input data may be insufficient."

	unknownErrorText = "Unknown error"
)

func interruptedReply(err error) string {
	msg := unknownErrorText
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return "An external error occurred: " + msg + ". My processing was interrupted."
}
