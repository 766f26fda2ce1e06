package store

import (
	"errors"
	"fmt"
)

// NotFoundError indicates the requested user or node is absent. It is
// surfaced to the caller, never retried.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ExistsError indicates a duplicate user creation attempt.
type ExistsError struct {
	Resource string
	ID       string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Resource, e.ID)
}

// ConnectionError indicates the store could not be reached at startup.
// It aborts initialization; nothing in this module retries it.
type ConnectionError struct {
	URI string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not connect to store at %s: %v", e.URI, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// StoreError wraps any other underlying store failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ErrNotSupported is returned by operations a backend intentionally does
// not implement.
var ErrNotSupported = errors.New("operation not supported")
