// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package zreactor

import (
	"sync"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/require"
)

// testEvent is a minimal logiface.Event implementation, recording fields.
type testEvent struct {
	logiface.UnimplementedEvent
	fields map[string]any
	level  logiface.Level
}

func (e *testEvent) Level() logiface.Level { return e.level }

func (e *testEvent) AddField(key string, val any) {
	if e.fields == nil {
		e.fields = make(map[string]any)
	}
	e.fields[key] = val
}

// testEventFactory creates testEvent instances.
type testEventFactory struct{}

func (testEventFactory) NewEvent(level logiface.Level) *testEvent {
	return &testEvent{level: level}
}

// testLog collects written events.
type testLog struct {
	events []*testEvent
	mu     sync.Mutex
}

func (l *testLog) Write(event *testEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

// byLevel returns the recorded events at level.
func (l *testLog) byLevel(level logiface.Level) []*testEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*testEvent
	for _, e := range l.events {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

// newTestLogger returns a logger at debug level, and the log it writes to.
func newTestLogger() (*logiface.Logger[logiface.Event], *testLog) {
	log := &testLog{}
	logger := logiface.New[*testEvent](
		logiface.WithEventFactory[*testEvent](testEventFactory{}),
		logiface.WithWriter[*testEvent](log),
		logiface.WithLevel[*testEvent](logiface.LevelDebug),
	)
	return logger.Logger(), log
}

// newTestContext creates a Context that is terminated at cleanup.
func newTestContext(t *testing.T, opts ...ContextOption) *Context {
	t.Helper()
	ctx, err := NewContext(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Terminate() })
	return ctx
}
