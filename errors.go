// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package zreactor

import (
	"errors"
)

// Standard errors.
var (
	// ErrWouldBlock is returned when no signal or command is pending, and the
	// operation was not permitted to wait (or its timeout elapsed). It is an
	// expected, recoverable outcome.
	ErrWouldBlock = errors.New("zreactor: operation would block")

	// ErrInterrupted is returned when a wait was cut short, e.g. because the
	// selector was closed concurrently, or an indefinite wait returned with
	// no readiness. Callers may retry.
	ErrInterrupted = errors.New("zreactor: interrupted")

	// ErrSelectorClosed is returned by operations on a closed selector.
	ErrSelectorClosed = errors.New("zreactor: selector closed")

	// ErrSignalerClosed is returned when a closed Signaler is closed again.
	ErrSignalerClosed = errors.New("zreactor: signaler closed")

	// ErrMailboxClosed is returned when a command is sent to a closed
	// Mailbox.
	ErrMailboxClosed = errors.New("zreactor: mailbox closed")

	// ErrContextTerminated is returned when commands are sent through, or
	// resources are requested from, a terminated Context.
	ErrContextTerminated = errors.New("zreactor: context terminated")

	// ErrNoSuchThread is returned when a command is addressed to a thread id
	// that has no registered mailbox.
	ErrNoSuchThread = errors.New("zreactor: no such thread")

	// ErrSlotInUse is returned when a mailbox is registered for a thread id
	// that already has one.
	ErrSlotInUse = errors.New("zreactor: thread slot already in use")

	// ErrHandleNotRegistered is returned for operations on a Handle that was
	// removed from (or never belonged to) the Poller.
	ErrHandleNotRegistered = errors.New("zreactor: handle not registered")

	// ErrFDAlreadyRegistered is returned when a file descriptor is registered
	// with a selector twice.
	ErrFDAlreadyRegistered = errors.New("zreactor: fd already registered")

	// ErrUnsupportedPlatform is returned by constructors on platforms without
	// a readiness multiplexer implementation.
	ErrUnsupportedPlatform = errors.New("zreactor: platform not supported")
)

// IOError is a fatal failure of the wakeup channel or the selector. A
// Signaler (or the thread owning it) that returned an IOError must not be
// used further.
type IOError struct {
	Err error
	// Op is the failed operation, e.g. "send", "recv" or "wait".
	Op string
}

// Error implements the error interface.
func (e *IOError) Error() string {
	if e.Err == nil {
		return "zreactor: " + e.Op + " failed"
	}
	return "zreactor: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *IOError) Unwrap() error {
	return e.Err
}
