// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package zreactor

// Command is a unit of work executed synchronously on the goroutine of the
// thread it was sent to.
type Command interface {
	Execute()
}

// CommandFunc adapts an ordinary function to a [Command].
type CommandFunc func()

// Execute calls f.
func (f CommandFunc) Execute() {
	f()
}

// stopper is implemented by threads that accept a stop command.
type stopper interface {
	processStop()
}

// stopCommand asks its destination to stop, on the destination's own
// goroutine.
type stopCommand struct {
	dest stopper
}

func (c stopCommand) Execute() {
	c.dest.processStop()
}

// Object is the base for anything addressed by thread id: it knows which
// Context it belongs to, and the id of its own thread.
type Object struct {
	ctx *Context
	tid int
}

// NewObject binds an Object to ctx and tid.
func NewObject(ctx *Context, tid int) Object {
	return Object{ctx: ctx, tid: tid}
}

// Context returns the owning Context.
func (o Object) Context() *Context {
	return o.ctx
}

// Tid returns the thread id of this object.
func (o Object) Tid() int {
	return o.tid
}

// SendCommand posts cmd to the thread identified by tid.
func (o Object) SendCommand(tid int, cmd Command) error {
	return o.ctx.SendCommand(tid, cmd)
}

// sendStop posts a stop command for dest to this object's own thread.
func (o Object) sendStop(dest stopper) error {
	return o.SendCommand(o.tid, stopCommand{dest: dest})
}
