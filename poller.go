// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package zreactor

import (
	"container/heap"
	"errors"
	"runtime"
	"sync/atomic"
	"time"
)

// PollEvents receives the callbacks of a [Poller]. All methods are called on
// the poller's goroutine.
type PollEvents interface {
	// InEvent is called when the handle is readable (or in error) and
	// poll-in is set.
	InEvent()
	// OutEvent is called when the handle is writable and poll-out is set.
	OutEvent()
	// TimerEvent is called when a timer added with the given id expires.
	TimerEvent(id int)
}

// UnimplementedPollEvents implements [PollEvents] with no-op methods. Embed
// it to provide only the callbacks you need.
type UnimplementedPollEvents struct{}

func (UnimplementedPollEvents) InEvent() {}

func (UnimplementedPollEvents) OutEvent() {}

func (UnimplementedPollEvents) TimerEvent(int) {}

// Handle is a file descriptor registered with a [Poller].
type Handle struct {
	sink      PollEvents
	fd        int
	events    IOEvents
	cancelled bool
}

// Fd returns the registered file descriptor.
func (h *Handle) Fd() int {
	return h.fd
}

// pollTimer is a pending timer. The seq breaks ties between timers with
// the same deadline, so they fire in the order they were added.
type pollTimer struct {
	when  time.Time
	sink  PollEvents
	id    int
	seq   uint64
	index int
}

// timerHeap is a min-heap of timers
type timerHeap []*pollTimer

// Implement heap.Interface for timerHeap
func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*pollTimer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	x.index = -1
	return x
}

// Poller is a reactor: a dispatch goroutine waiting on a selector, which
// invokes the [PollEvents] of ready handles and expired timers.
//
// Handle and timer methods must be called from the poller's goroutine, i.e.
// from within a callback, or before Start. Load may be called from any
// goroutine.
type Poller struct {
	ctx     *Context
	sel     *selector
	handles map[int]*Handle
	done    chan struct{}
	name    string
	err     error
	timers  timerHeap

	timerSeq uint64

	load     atomic.Int64
	started  atomic.Bool
	stopping atomic.Bool
}

// NewPoller creates a Poller with a selector opened through ctx. The name
// is used for logging.
func NewPoller(ctx *Context, name string) (*Poller, error) {
	sel, err := ctx.createSelector()
	if err != nil {
		return nil, err
	}
	return &Poller{
		ctx:     ctx,
		sel:     sel,
		handles: make(map[int]*Handle),
		done:    make(chan struct{}),
		name:    name,
	}, nil
}

// AddHandle registers fd, with no interest set. Use SetPollIn or
// SetPollOut to enable callbacks.
func (p *Poller) AddHandle(fd int, sink PollEvents) (*Handle, error) {
	if err := p.sel.register(fd, 0); err != nil {
		return nil, err
	}
	h := &Handle{fd: fd, sink: sink}
	p.handles[fd] = h
	p.load.Add(1)
	return h, nil
}

// RemoveHandle deregisters h. No further callbacks are made for it, even
// for events already collected in the current dispatch round.
func (p *Poller) RemoveHandle(h *Handle) error {
	if err := p.checkHandle(h); err != nil {
		return err
	}
	h.cancelled = true
	delete(p.handles, h.fd)
	p.load.Add(-1)
	return p.sel.deregister(h.fd)
}

// SetPollIn enables InEvent callbacks for h.
func (p *Poller) SetPollIn(h *Handle) error {
	return p.setEvents(h, EventRead, true)
}

// ResetPollIn disables InEvent callbacks for h.
func (p *Poller) ResetPollIn(h *Handle) error {
	return p.setEvents(h, EventRead, false)
}

// SetPollOut enables OutEvent callbacks for h.
func (p *Poller) SetPollOut(h *Handle) error {
	return p.setEvents(h, EventWrite, true)
}

// ResetPollOut disables OutEvent callbacks for h.
func (p *Poller) ResetPollOut(h *Handle) error {
	return p.setEvents(h, EventWrite, false)
}

// setEvents sets or clears mask in the interest set of h.
func (p *Poller) setEvents(h *Handle, mask IOEvents, set bool) error {
	if err := p.checkHandle(h); err != nil {
		return err
	}
	events := h.events &^ mask
	if set {
		events |= mask
	}
	if events == h.events {
		return nil
	}
	if err := p.sel.modify(h.fd, events); err != nil {
		return err
	}
	h.events = events
	return nil
}

func (p *Poller) checkHandle(h *Handle) error {
	if h == nil || h.cancelled || p.handles[h.fd] != h {
		return ErrHandleNotRegistered
	}
	return nil
}

// AddTimer schedules sink.TimerEvent(id) after delay. The sink must be
// comparable, typically a pointer, for CancelTimer to find it.
func (p *Poller) AddTimer(delay time.Duration, sink PollEvents, id int) {
	p.timerSeq++
	heap.Push(&p.timers, &pollTimer{
		when: time.Now().Add(delay),
		sink: sink,
		id:   id,
		seq:  p.timerSeq,
	})
}

// CancelTimer removes the earliest pending timer matching sink and id.
// Reports whether one was found.
func (p *Poller) CancelTimer(sink PollEvents, id int) bool {
	var found *pollTimer
	for _, t := range p.timers {
		if t.sink == sink && t.id == id && (found == nil || p.timers.Less(t.index, found.index)) {
			found = t
		}
	}
	if found == nil {
		return false
	}
	heap.Remove(&p.timers, found.index)
	return true
}

// Load returns the number of registered handles.
func (p *Poller) Load() int {
	return int(p.load.Load())
}

// Start launches the dispatch goroutine. Calling it more than once has no
// effect.
func (p *Poller) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	go p.run()
}

// Stop makes the dispatch loop exit once the current round completes. It
// is intended to be called from a callback, since it does not wake a
// blocked wait.
func (p *Poller) Stop() {
	p.stopping.Store(true)
}

// Destroy waits for the dispatch goroutine to exit, then closes the
// selector. It must follow Stop if the Poller was started. The returned
// error is the failure that ended the loop, if any, else the error from
// closing the selector.
func (p *Poller) Destroy() error {
	if p.started.Load() {
		<-p.done
	}
	closeErr := p.ctx.closeSelector(p.sel)
	if p.err != nil {
		return p.err
	}
	return closeErr
}

// run is the main loop goroutine.
func (p *Poller) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(p.done)

	p.ctx.Logger().Debug().
		Str("component", p.name).
		Log("poller started")

	for !p.stopping.Load() {
		timeout := p.executeTimers()
		if p.stopping.Load() {
			break
		}

		n, err := p.sel.Select(durationToMillis(timeout))
		if err != nil {
			if !errors.Is(err, ErrSelectorClosed) {
				p.ctx.logCritical(p.name, "poller wait failed", err)
				p.err = &IOError{Op: "wait", Err: err}
			}
			break
		}
		if n != 0 {
			p.dispatch()
		}
	}

	p.ctx.Logger().Debug().
		Str("component", p.name).
		Log("poller stopped")
}

// dispatch delivers the selected set, then clears it.
func (p *Poller) dispatch() {
	defer p.sel.ClearSelected()
	for _, ev := range p.sel.Selected() {
		h := p.handles[ev.fd]
		if h == nil || h.cancelled {
			continue
		}
		if ev.events&(EventRead|EventError|EventHangup) != 0 && h.events&EventRead != 0 {
			p.safeExecuteFn(h.sink.InEvent)
		}
		if h.cancelled {
			continue
		}
		if ev.events&EventWrite != 0 && h.events&EventWrite != 0 {
			p.safeExecuteFn(h.sink.OutEvent)
		}
	}
}

// executeTimers fires every expired timer, returning the time until the
// next one, or -1 if none remain.
func (p *Poller) executeTimers() time.Duration {
	for len(p.timers) != 0 {
		t := p.timers[0]
		if wait := time.Until(t.when); wait > 0 {
			return wait
		}
		heap.Pop(&p.timers)
		p.safeExecuteFn(func() { t.sink.TimerEvent(t.id) })
	}
	return -1
}

// safeExecuteFn executes a callback with panic recovery.
func (p *Poller) safeExecuteFn(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.ctx.logPanic(p.name, r)
		}
	}()
	fn()
}

// String implements [fmt.Stringer].
func (p *Poller) String() string {
	return p.name
}
