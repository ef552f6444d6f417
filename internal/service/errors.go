// Package service holds the seat reservation core: the passenger
// directory, the booking engine, the ticket reader/mutator and the reset
// coordinator.  Services talk to storage only through the interfaces in
// store.go and report failures with the error kinds below.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidID means the ticket identifier is not well formed.  It is
	// detected before any store lookup.
	ErrInvalidID = errors.New("invalid ticket id")
	// ErrTicketNotFound means no seat exists for a well-formed identifier.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrPassengerNotFound means the seat exists but has no passenger, or
	// its passenger record is gone.
	ErrPassengerNotFound = errors.New("passenger not found")
	// ErrForbidden means the requester does not own the ticket or the admin
	// credential did not match.
	ErrForbidden = errors.New("forbidden")
)

// StorageError wraps any failure of the underlying store.  It is always a
// server-side failure and is never swallowed by the services.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err carries a *StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
