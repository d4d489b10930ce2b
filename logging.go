// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package zreactor

import (
	"log"

	"github.com/joeycumines/logiface"
)

// Logger returns the structured logger configured via WithLogger, which may
// be nil. The logiface builder API is nil-safe.
func (c *Context) Logger() *logiface.Logger[logiface.Event] {
	if c == nil {
		return nil
	}
	return c.logger
}

// logCritical reports a fatal I/O failure. A panicking logger falls back to
// the standard library logger, so the failure is never lost.
func (c *Context) logCritical(component string, msg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("CRITICAL: zreactor: %s: %s: %v (logger panicked: %v)", component, msg, err, r)
		}
	}()
	c.Logger().Crit().
		Str("component", component).
		Err(err).
		Log(msg)
}

// logPanic reports a recovered panic from a command or a poll callback.
func (c *Context) logPanic(component string, value any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: zreactor: %s: recovered panic: %v (logger panicked: %v)", component, value, r)
		}
	}()
	c.Logger().Err().
		Str("component", component).
		Any("panic", value).
		Log("recovered panic")
}

// logRetry emits a rate limited debug notice for a zero-progress read or
// write on a wakeup channel. The category is the operation ("send" or
// "recv") qualified by the component.
func (c *Context) logRetry(component string, op string) {
	b := c.Logger().Debug()
	if !b.Enabled() {
		return
	}
	if _, ok := c.limiter.Allow(component + "." + op); !ok {
		b.Release()
		return
	}
	b.Str("component", component).
		Str("op", op).
		Log("wakeup channel made no progress, retrying")
}
