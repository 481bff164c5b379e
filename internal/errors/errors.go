// Package errors defines the session-scoped error kinds shared across the
// doorbell core. Nothing here is fatal to the hosting process.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreWrite marks a failed durable write. The operation is not
	// retried automatically; callers must reconcile by re-fetch.
	ErrStoreWrite = errors.New("store write failed")

	// ErrDispatch marks a failed outbound webhook send. Logged only,
	// never surfaced as a blocking failure.
	ErrDispatch = errors.New("webhook dispatch failed")

	// ErrSubscription marks a dropped realtime channel. Callers must fall
	// back to a full re-read of the session's message list.
	ErrSubscription = errors.New("realtime subscription failed")
)

// ValidationError rejects a transition on bad caller input. Recovered
// locally: the caller re-prompts, no state changes.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func NewStoreWrite(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreWrite, err)
}

func NewDispatch(err error) error {
	return fmt.Errorf("%w: %w", ErrDispatch, err)
}

func NewSubscription(err error) error {
	return fmt.Errorf("%w: %w", ErrSubscription, err)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsStoreWrite(err error) bool {
	return errors.Is(err, ErrStoreWrite)
}

func IsDispatch(err error) bool {
	return errors.Is(err, ErrDispatch)
}

func IsSubscription(err error) bool {
	return errors.Is(err, ErrSubscription)
}
