// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package zreactor

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// Context is the explicit owner of the state shared between threads: the
// slot table mapping thread ids to mailboxes, the set of selectors it
// created, and the logging configuration.
//
// Teardown order: every IOThread (and any other owner of a Signaler or
// Mailbox) must be closed before the Context is terminated.
type Context struct {
	logger  *logiface.Logger[logiface.Event]
	limiter *catrate.Limiter

	slots     map[int]*Mailbox
	selectors map[*selector]struct{}

	maxEvents int

	mu         sync.RWMutex
	terminated atomic.Bool
}

// NewContext creates a new Context.
func NewContext(opts ...ContextOption) (*Context, error) {
	cfg, err := resolveContextOptions(opts)
	if err != nil {
		return nil, err
	}

	limiter, err := newRetryLimiter(cfg.retryLogRates)
	if err != nil {
		return nil, err
	}

	return &Context{
		logger:    cfg.logger,
		limiter:   limiter,
		slots:     make(map[int]*Mailbox),
		selectors: make(map[*selector]struct{}),
		maxEvents: cfg.maxEvents,
	}, nil
}

// newRetryLimiter converts the panic catrate uses to report invalid rates
// into an error. A nil limiter allows everything.
func newRetryLimiter(rates map[time.Duration]int) (limiter *catrate.Limiter, err error) {
	if len(rates) == 0 {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			limiter = nil
			err = fmt.Errorf("zreactor: invalid retry log rates: %v", r)
		}
	}()
	return catrate.NewLimiter(rates), nil
}

// SendCommand enqueues cmd on the mailbox of the thread identified by tid.
// It is safe to call from any goroutine.
func (c *Context) SendCommand(tid int, cmd Command) error {
	if c.terminated.Load() {
		return ErrContextTerminated
	}
	c.mu.RLock()
	mailbox := c.slots[tid]
	c.mu.RUnlock()
	if mailbox == nil {
		return fmt.Errorf("%w: %d", ErrNoSuchThread, tid)
	}
	return mailbox.Send(cmd)
}

// Terminate marks the Context as terminated, and closes any selectors that
// were not closed by their owners. A leaked selector is logged. Errors from
// closing leaked selectors are joined.
func (c *Context) Terminate() error {
	if !c.terminated.CompareAndSwap(false, true) {
		return ErrContextTerminated
	}

	c.mu.Lock()
	leaked := make([]*selector, 0, len(c.selectors))
	for s := range c.selectors {
		leaked = append(leaked, s)
	}
	clear(c.selectors)
	threads := len(c.slots)
	clear(c.slots)
	c.mu.Unlock()

	if len(leaked) != 0 || threads != 0 {
		c.Logger().Warning().
			Int("selectors", len(leaked)).
			Int("threads", threads).
			Log("context terminated with live resources")
	}

	var errs []error
	for _, s := range leaked {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// createSelector opens a selector tracked by this Context.
func (c *Context) createSelector() (*selector, error) {
	if c.terminated.Load() {
		return nil, ErrContextTerminated
	}
	s, err := newSelector(c.maxEvents)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.selectors[s] = struct{}{}
	c.mu.Unlock()
	return s, nil
}

// closeSelector closes and forgets a selector created by createSelector.
func (c *Context) closeSelector(s *selector) error {
	c.mu.Lock()
	delete(c.selectors, s)
	c.mu.Unlock()
	return s.Close()
}

// openSelectors reports how many selectors are currently tracked.
func (c *Context) openSelectors() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.selectors)
}

// registerMailbox binds mailbox to tid, making it addressable via
// SendCommand.
func (c *Context) registerMailbox(tid int, mailbox *Mailbox) error {
	if c.terminated.Load() {
		return ErrContextTerminated
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.slots[tid]; ok {
		return fmt.Errorf("%w: %d", ErrSlotInUse, tid)
	}
	c.slots[tid] = mailbox
	return nil
}

// unregisterMailbox removes the binding for tid, if it is still mailbox.
func (c *Context) unregisterMailbox(tid int, mailbox *Mailbox) {
	c.mu.Lock()
	if c.slots[tid] == mailbox {
		delete(c.slots, tid)
	}
	c.mu.Unlock()
}
