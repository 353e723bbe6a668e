package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

type Kind string

const (
	KindNetwork       Kind = "network"
	KindAuth          Kind = "auth"
	KindEmptyResponse Kind = "empty_response"
	KindUnknown       Kind = "unknown"
)

// Error is the only error type providers return.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

var ErrEmptyResponse = &Error{Kind: KindEmptyResponse, Message: "empty response"}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return Classify(err).Kind == kind
}

// Classify turns any error into an *Error. Errors that already are *Error
// pass through unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindNetwork, Message: err.Error(), Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Kind: KindNetwork, Message: err.Error(), Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{Kind: KindNetwork, Message: err.Error(), Err: err}
	}
	return &Error{Kind: KindUnknown, Message: err.Error(), Err: err}
}

func networkError(provider string, err error) *Error {
	return &Error{Kind: KindNetwork, Message: fmt.Sprintf("%s: %v", provider, err), Err: err}
}

// statusError maps an upstream HTTP status to an error kind.
func statusError(provider string, status int, msg string) *Error {
	if msg == "" {
		msg = fmt.Sprintf("status %d", status)
	}
	kind := KindUnknown
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusRequestTimeout || status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout:
		kind = KindNetwork
	}
	return &Error{Kind: kind, Message: fmt.Sprintf("%s: %s", provider, msg)}
}

func configError(provider, msg string) *Error {
	return &Error{Kind: KindAuth, Message: fmt.Sprintf("%s: %s", provider, msg)}
}
