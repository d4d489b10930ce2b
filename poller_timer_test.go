// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package zreactor

import (
	"container/heap"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationToMillis(t *testing.T) {
	for _, tc := range []struct {
		in   time.Duration
		want int
	}{
		{-time.Nanosecond, -1},
		{-time.Hour, -1},
		{0, 0},
		{time.Nanosecond, 1},
		{time.Millisecond, 1},
		{time.Millisecond + 1, 2},
		{1500 * time.Microsecond, 2},
		{time.Second, 1000},
	} {
		assert.Equal(t, tc.want, durationToMillis(tc.in), "in=%v", tc.in)
	}
}

func TestCommandFunc(t *testing.T) {
	var called bool
	var cmd Command = CommandFunc(func() { called = true })
	cmd.Execute()
	assert.True(t, called)
}

func TestUnimplementedPollEvents(t *testing.T) {
	var sink PollEvents = UnimplementedPollEvents{}
	assert.NotPanics(t, func() {
		sink.InEvent()
		sink.OutEvent()
		sink.TimerEvent(1)
	})
}

type timerSink struct {
	UnimplementedPollEvents
	fired []int
}

func (s *timerSink) TimerEvent(id int) {
	s.fired = append(s.fired, id)
}

func TestPoller_TimersFireInDeadlineOrder(t *testing.T) {
	p := &Poller{}
	sink := &timerSink{}
	p.AddTimer(-1*time.Millisecond, sink, 3)
	p.AddTimer(-3*time.Millisecond, sink, 1)
	p.AddTimer(-2*time.Millisecond, sink, 2)
	p.AddTimer(time.Hour, sink, 4)

	wait := p.executeTimers()
	assert.Equal(t, []int{1, 2, 3}, sink.fired)
	assert.Greater(t, wait, 59*time.Minute)
	assert.Len(t, p.timers, 1)
}

func TestPoller_TimersSameDeadlineKeepInsertionOrder(t *testing.T) {
	p := &Poller{}
	sink := &timerSink{}
	for i := 0; i < 10; i++ {
		p.AddTimer(-time.Second, sink, i)
	}
	for _, tm := range p.timers {
		tm.when = time.Time{}
	}
	heap.Init(&p.timers)

	assert.Equal(t, time.Duration(-1), p.executeTimers())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, sink.fired)
}

func TestPoller_CancelTimer(t *testing.T) {
	p := &Poller{}
	a, b := &timerSink{}, &timerSink{}
	p.AddTimer(-time.Millisecond, a, 1)
	p.AddTimer(-time.Millisecond, b, 1)
	p.AddTimer(-time.Millisecond, a, 2)

	assert.True(t, p.CancelTimer(a, 1))
	assert.False(t, p.CancelTimer(a, 1))
	assert.False(t, p.CancelTimer(b, 2))

	p.executeTimers()
	assert.Equal(t, []int{2}, a.fired)
	assert.Equal(t, []int{1}, b.fired)
}

func TestPoller_PanickingTimerDoesNotStopOthers(t *testing.T) {
	logger, log := newTestLogger()
	p := &Poller{ctx: &Context{logger: logger}, name: "test"}
	sink := &timerSink{}
	p.AddTimer(-2*time.Millisecond, panicTimer{}, 0)
	p.AddTimer(-1*time.Millisecond, sink, 1)

	assert.NotPanics(t, func() { p.executeTimers() })
	assert.Equal(t, []int{1}, sink.fired)
	require.Len(t, log.byLevel(logiface.LevelError), 1)
	assert.Equal(t, "boom", log.byLevel(logiface.LevelError)[0].fields["panic"])
}

type panicTimer struct {
	UnimplementedPollEvents
}

func (panicTimer) TimerEvent(int) {
	panic("boom")
}
