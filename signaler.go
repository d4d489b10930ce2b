// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package zreactor

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"
)

// Signaler is a single-slot, cross-goroutine wakeup primitive. Any goroutine
// may Send; a single owner goroutine calls WaitEvent and Recv, or polls Fd
// through a Poller.
//
// Each delivered signal is one byte in a local pipe. The sent counter is
// bumped after each successful write, and the received counter after each
// successful read, so a pending signal is detected without a system call
// whenever received < sent.
//
// At most one signal may be outstanding: calling Send again before the
// previous signal was received is a caller error. The byte channel will
// hold both bytes but the counters, and therefore the fast path, count
// calls, not bytes. The Mailbox never does this.
type Signaler struct {
	ctx  *Context
	sel  *selector
	name string
	ch   wakeupChannel

	// sent is incremented after each successful write, from any goroutine.
	sent atomic.Uint64

	// received is touched only by the owner.
	received uint64
	rbuf     [1]byte

	tid    int
	closed bool
}

// NewSignaler opens the wakeup channel and a selector watching its read
// end. On failure everything acquired so far is released.
func NewSignaler(ctx *Context, tid int) (*Signaler, error) {
	ch, err := newWakeupChannel()
	if err != nil {
		return nil, &IOError{Op: "open", Err: err}
	}

	sel, err := ctx.createSelector()
	if err != nil {
		_ = ch.closeRead()
		_ = ch.closeWrite()
		return nil, err
	}

	if err := sel.register(ch.r, EventRead); err != nil {
		_ = ctx.closeSelector(sel)
		_ = ch.closeRead()
		_ = ch.closeWrite()
		return nil, err
	}

	return &Signaler{
		ctx:  ctx,
		sel:  sel,
		ch:   ch,
		tid:  tid,
		name: fmt.Sprintf("Signaler[%d]", tid),
	}, nil
}

// Fd returns the readiness handle: the read end of the wakeup channel.
func (s *Signaler) Fd() int {
	return s.ch.r
}

// Send delivers one signal. Zero-progress writes are retried, yielding the
// processor between attempts. Any other write failure is fatal, returned
// as an [*IOError].
func (s *Signaler) Send() error {
	buf := [1]byte{0}
	for {
		n, err := writeFD(s.ch.w, buf[:])
		if err == nil && n == 1 {
			s.sent.Add(1)
			return nil
		}
		if err == nil || isZeroProgress(err) {
			s.ctx.logRetry(s.name, "send")
			runtime.Gosched()
			continue
		}
		s.ctx.logCritical(s.name, "signaler send failed", err)
		return &IOError{Op: "send", Err: err}
	}
}

// WaitEvent reports whether a signal is pending, waiting up to timeout for
// one to arrive. A nil return means a signal is ready to Recv.
//
// A zero timeout never makes a system call, and returns [ErrWouldBlock] if
// no signal is known to be pending. A negative timeout waits without a
// deadline, returning [ErrInterrupted] if the wait ends without readiness.
// A positive timeout that elapses returns [ErrWouldBlock]. A concurrently
// closed selector yields [ErrInterrupted].
func (s *Signaler) WaitEvent(timeout time.Duration) error {
	if s.received < s.sent.Load() {
		return nil
	}
	if timeout == 0 {
		return ErrWouldBlock
	}

	n, err := s.sel.Select(durationToMillis(timeout))
	if err != nil {
		if errors.Is(err, ErrSelectorClosed) {
			s.ctx.Logger().Debug().
				Str("component", s.name).
				Log("wait interrupted by closed selector")
			return ErrInterrupted
		}
		s.ctx.logCritical(s.name, "signaler wait failed", err)
		return &IOError{Op: "wait", Err: err}
	}

	if n == 0 {
		if timeout < 0 && s.sel.Keys() != 0 {
			s.ctx.Logger().Debug().
				Str("component", s.name).
				Log("indefinite wait returned without readiness")
			return ErrInterrupted
		}
		return ErrWouldBlock
	}

	s.sel.ClearSelected()
	return nil
}

// Recv consumes one signal. It must only follow a successful WaitEvent (or
// a readiness notification for Fd), as it retries until a byte is read.
// A closed channel yields [ErrInterrupted].
func (s *Signaler) Recv() error {
	if s.closed {
		return ErrInterrupted
	}
	for {
		n, err := readFD(s.ch.r, s.rbuf[:])
		if err == nil && n == 1 {
			s.received++
			return nil
		}
		if err == nil || isZeroProgress(err) {
			s.ctx.logRetry(s.name, "recv")
			runtime.Gosched()
			continue
		}
		if isClosedChannel(err) {
			s.ctx.Logger().Debug().
				Str("component", s.name).
				Err(err).
				Log("recv on closed channel")
			return ErrInterrupted
		}
		s.ctx.logCritical(s.name, "signaler recv failed", err)
		return &IOError{Op: "recv", Err: err}
	}
}

// Close releases the read end, the write end, and the selector, in that
// order. Every step is attempted and the first failure is returned.
// Calling Close again returns [ErrSignalerClosed].
func (s *Signaler) Close() error {
	if s.closed {
		return ErrSignalerClosed
	}
	s.closed = true

	var first error
	if err := s.ch.closeRead(); err != nil {
		first = &IOError{Op: "close read", Err: err}
	}
	if err := s.ch.closeWrite(); err != nil && first == nil {
		first = &IOError{Op: "close write", Err: err}
	}
	if err := s.ctx.closeSelector(s.sel); err != nil && first == nil {
		first = &IOError{Op: "close selector", Err: err}
	}
	return first
}

// String implements [fmt.Stringer].
func (s *Signaler) String() string {
	return s.name
}
