// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package zreactor

import (
	"errors"
	"fmt"
)

// IOThread is an event loop that executes the commands sent to its thread
// id, and drives the engines plugged into it. Commands run on the Poller's
// goroutine, one at a time, in the order they were sent.
//
// Lifecycle: NewIOThread, Start, Stop (from any goroutine), then Close once
// the loop has exited. Close waits for the exit.
type IOThread struct {
	Object
	UnimplementedPollEvents

	mailbox *Mailbox
	poller  *Poller
	handle  *Handle
	name    string

	// stopped is set by the stop command, on the thread.
	stopped bool
}

// NewIOThread creates an IOThread, registering its mailbox as the
// destination for commands sent to tid.
func NewIOThread(ctx *Context, tid int) (*IOThread, error) {
	name := fmt.Sprintf("iothread-%d", tid)

	poller, err := NewPoller(ctx, name)
	if err != nil {
		return nil, err
	}

	mailbox, err := NewMailbox(ctx, name, tid)
	if err != nil {
		return nil, errors.Join(err, poller.Destroy())
	}

	t := &IOThread{
		Object:  NewObject(ctx, tid),
		mailbox: mailbox,
		poller:  poller,
		name:    name,
	}

	if t.handle, err = poller.AddHandle(mailbox.Fd(), t); err == nil {
		err = poller.SetPollIn(t.handle)
	}
	if err == nil {
		err = ctx.registerMailbox(tid, mailbox)
	}
	if err != nil {
		return nil, errors.Join(err, poller.Destroy(), mailbox.Close())
	}

	return t, nil
}

// Start launches the thread. The dispatch goroutine is locked to its OS
// thread.
func (t *IOThread) Start() {
	t.ctx.Logger().Debug().
		Str("component", t.name).
		Log("starting")
	t.poller.Start()
}

// Stop asks the thread to stop. The request is delivered as a command, so
// it is processed after every command sent before it.
func (t *IOThread) Stop() error {
	return t.sendStop(t)
}

// processStop runs on the thread, as the stop command.
func (t *IOThread) processStop() {
	if err := t.poller.RemoveHandle(t.handle); err != nil {
		t.ctx.Logger().Err().
			Str("component", t.name).
			Err(err).
			Log("failed to remove mailbox handle")
	}
	t.stopped = true
	t.poller.Stop()
}

// InEvent drains the mailbox, executing each command in turn. It is called
// by the Poller when the mailbox is readable. Draining ends at the stop
// command: anything queued behind it is discarded by Close.
func (t *IOThread) InEvent() {
	for !t.stopped {
		cmd, err := t.mailbox.Recv(0)
		if err != nil {
			return
		}
		t.safeExecute(cmd)
	}
}

// safeExecute executes a command with panic recovery.
func (t *IOThread) safeExecute(cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			t.ctx.logPanic(t.name, r)
		}
	}()
	cmd.Execute()
}

// Close releases the thread's resources, waiting for the loop to exit. The
// thread id is unregistered first, so no command may be sent to it while
// closing. Every step is attempted and the first failure is returned.
func (t *IOThread) Close() error {
	t.ctx.unregisterMailbox(t.tid, t.mailbox)

	var first error
	if err := t.poller.Destroy(); err != nil {
		first = err
	}
	if err := t.mailbox.Close(); err != nil && first == nil {
		first = err
	}

	t.ctx.Logger().Debug().
		Str("component", t.name).
		Log("closed")

	return first
}

// Load returns the number of handles registered with the thread's Poller,
// including its own mailbox until it is stopped.
func (t *IOThread) Load() int {
	return t.poller.Load()
}

// Mailbox returns the thread's command queue.
func (t *IOThread) Mailbox() *Mailbox {
	return t.mailbox
}

// Poller returns the thread's reactor, which engines use to register
// their descriptors. It must only be used from the thread's goroutine.
func (t *IOThread) Poller() *Poller {
	return t.poller
}

// String implements [fmt.Stringer].
func (t *IOThread) String() string {
	return t.name
}
