// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package zreactor

import (
	"errors"
	"time"

	"github.com/joeycumines/logiface"
)

const (
	// defaultMaxEvents is the default size of each selector's ready buffer.
	defaultMaxEvents = 256
)

// defaultRetryLogRates allows one zero-progress retry notice per second, per
// category.
var defaultRetryLogRates = map[time.Duration]int{
	time.Second: 1,
	time.Minute: 10,
}

// contextOptions holds configuration options for Context creation.
type contextOptions struct {
	logger        *logiface.Logger[logiface.Event]
	retryLogRates map[time.Duration]int
	maxEvents     int
}

// --- Context Options ---

// ContextOption configures a Context instance.
type ContextOption interface {
	applyContext(*contextOptions) error
}

// contextOptionImpl implements ContextOption.
type contextOptionImpl struct {
	applyContextFunc func(*contextOptions) error
}

func (c *contextOptionImpl) applyContext(opts *contextOptions) error {
	return c.applyContextFunc(opts)
}

// WithLogger sets the structured logger used by the Context, and everything
// created from it. A nil logger disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) ContextOption {
	return &contextOptionImpl{func(opts *contextOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithMaxEvents sets how many ready events a single selector wait may
// report. Must be positive.
func WithMaxEvents(n int) ContextOption {
	return &contextOptionImpl{func(opts *contextOptions) error {
		if n <= 0 {
			return errors.New("zreactor: max events must be positive")
		}
		opts.maxEvents = n
		return nil
	}}
}

// WithRetryLogRates sets the sliding windows used to rate limit the debug
// notices emitted when a wakeup channel read or write makes zero progress.
// The rates follow catrate.NewLimiter rules, and are validated by
// NewContext. An empty map disables rate limiting.
func WithRetryLogRates(rates map[time.Duration]int) ContextOption {
	return &contextOptionImpl{func(opts *contextOptions) error {
		opts.retryLogRates = rates
		return nil
	}}
}

// resolveContextOptions applies ContextOption instances to contextOptions.
func resolveContextOptions(opts []ContextOption) (*contextOptions, error) {
	cfg := &contextOptions{
		maxEvents:     defaultMaxEvents,
		retryLogRates: defaultRetryLogRates,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyContext(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
