// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package zreactor

import (
	"sync"
	"time"
)

// Mailbox is the command queue of a single thread. Commands may be sent
// from any goroutine; Recv must only be called by the owning thread, which
// may also poll Fd for readiness.
//
// The Signaler is only sent when the reader went to sleep, so at most one
// signal is ever outstanding.
type Mailbox struct {
	pipe     *commandPipe
	signaler *Signaler
	name     string

	// mu excludes Send from Close, so the signaler is never written after
	// its descriptors are released.
	mu     sync.RWMutex
	closed bool

	// active is owned by the reader, true while it is draining the pipe.
	active bool
}

// NewMailbox creates a Mailbox for thread tid. The name is used for
// logging only.
func NewMailbox(ctx *Context, name string, tid int) (*Mailbox, error) {
	signaler, err := NewSignaler(ctx, tid)
	if err != nil {
		return nil, err
	}
	return &Mailbox{
		pipe:     newCommandPipe(),
		signaler: signaler,
		name:     name,
	}, nil
}

// Fd returns the readiness handle of the Mailbox.
func (m *Mailbox) Fd() int {
	return m.signaler.Fd()
}

// Send enqueues cmd, waking the reader if it is asleep.
func (m *Mailbox) Send(cmd Command) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrMailboxClosed
	}
	if m.pipe.write(cmd) {
		return nil
	}
	return m.signaler.Send()
}

// Recv returns the next command, waiting up to timeout for one to arrive,
// with the same timeout semantics as [Signaler.WaitEvent]. Recv(0) is a
// non-blocking try, returning [ErrWouldBlock] when there is nothing to do.
func (m *Mailbox) Recv(timeout time.Duration) (Command, error) {
	if m.active {
		if cmd, ok := m.pipe.read(); ok {
			return cmd, nil
		}
		m.active = false
	}

	if err := m.signaler.WaitEvent(timeout); err != nil {
		return nil, err
	}
	if err := m.signaler.Recv(); err != nil {
		return nil, err
	}
	m.active = true

	cmd, ok := m.pipe.read()
	if !ok {
		// signal with nothing behind it, the next write signals again
		m.active = false
		return nil, ErrWouldBlock
	}
	return cmd, nil
}

// Close releases the Signaler. Commands still queued are discarded.
func (m *Mailbox) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrMailboxClosed
	}
	m.closed = true
	if discarded := m.pipe.length(); discarded != 0 {
		m.signaler.ctx.Logger().Debug().
			Str("component", m.name).
			Int("discarded", discarded).
			Log("mailbox closed with queued commands")
	}
	return m.signaler.Close()
}

// String implements [fmt.Stringer].
func (m *Mailbox) String() string {
	return m.name
}
