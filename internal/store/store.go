// Package store holds the key/value persistence adapters that back each
// identity's session registry.
package store

import "errors"

// ErrNotFound is returned by Load when no record exists for the key.
var ErrNotFound = errors.New("record not found")
