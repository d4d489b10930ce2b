// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package zreactor

import (
	"time"
)

// IOEvents represents the type of I/O events to monitor, or that occurred.
type IOEvents uint32

const (
	// EventRead indicates the file descriptor is ready for reading.
	EventRead IOEvents = 1 << iota
	// EventWrite indicates the file descriptor is ready for writing.
	EventWrite
	// EventError indicates an error condition on the file descriptor.
	EventError
	// EventHangup indicates the peer closed its end of the connection.
	EventHangup
)

// readyEvent is one entry of a selector's selected set.
type readyEvent struct {
	fd     int
	events IOEvents
}

// The selector is the readiness multiplexer: a thin, single-owner wrapper
// over epoll (Linux) or kqueue (Darwin), modelled on a selector with a key
// set and a selected set. All methods other than Close must be called from
// the owning goroutine. The platform files implement:
//
//	newSelector(maxEvents int) (*selector, error)
//	(*selector).register(fd int, events IOEvents) error
//	(*selector).modify(fd int, events IOEvents) error
//	(*selector).deregister(fd int) error
//	(*selector).Select(timeoutMs int) (int, error)
//	(*selector).Close() error
//
// Select semantics: timeoutMs < 0 waits without a deadline, 0 polls, and
// > 0 waits up to that many milliseconds. An interrupted wait is retried
// with the remaining time for finite timeouts, and reported as zero
// readiness otherwise.

// Keys returns the number of registered file descriptors.
func (s *selector) Keys() int {
	return len(s.keys)
}

// Selected returns the selected set: events reported since the last
// ClearSelected.
func (s *selector) Selected() []readyEvent {
	return s.ready
}

// ClearSelected empties the selected set.
func (s *selector) ClearSelected() {
	clear(s.ready)
	s.ready = s.ready[:0]
}

// Selects returns how many wait system calls the selector has made.
func (s *selector) Selects() uint64 {
	return s.selects
}

// durationToMillis converts a timeout to a selector timeout, rounding any
// positive sub-millisecond remainder up, so a positive timeout never
// becomes a poll. Negative durations map to -1 (no deadline).
func durationToMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := d / time.Millisecond
	if d%time.Millisecond != 0 {
		ms++
	}
	return int(ms)
}
