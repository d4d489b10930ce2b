// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build darwin

package zreactor

import (
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// selector manages readiness registration using kqueue (Darwin). Read and
// write interest are separate filters, so one fd may contribute two ready
// events to a single Select.
type selector struct {
	keys     map[int]IOEvents
	eventBuf []unix.Kevent_t
	ready    []readyEvent
	selects  uint64
	kq       int
	closed   atomic.Bool
}

// newSelector creates a kqueue instance.
func newSelector(maxEvents int) (*selector, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("zreactor: kqueue: %w", err)
	}
	unix.CloseOnExec(kq)
	return &selector{
		kq:       kq,
		keys:     make(map[int]IOEvents),
		eventBuf: make([]unix.Kevent_t, maxEvents),
		ready:    make([]readyEvent, 0, maxEvents),
	}, nil
}

// register adds fd to the key set.
func (s *selector) register(fd int, events IOEvents) error {
	if s.closed.Load() {
		return ErrSelectorClosed
	}
	if _, ok := s.keys[fd]; ok {
		return ErrFDAlreadyRegistered
	}
	if kevents := eventsToKevents(fd, events, unix.EV_ADD|unix.EV_ENABLE); len(kevents) > 0 {
		if _, err := unix.Kevent(s.kq, kevents, nil, nil); err != nil {
			return fmt.Errorf("zreactor: kevent add: %w", err)
		}
	}
	s.keys[fd] = events
	return nil
}

// modify replaces the interest set of a registered fd.
func (s *selector) modify(fd int, events IOEvents) error {
	if s.closed.Load() {
		return ErrSelectorClosed
	}
	oldEvents, ok := s.keys[fd]
	if !ok {
		return ErrHandleNotRegistered
	}
	s.keys[fd] = events

	if removed := oldEvents &^ events; removed != 0 {
		if kevents := eventsToKevents(fd, removed, unix.EV_DELETE); len(kevents) > 0 {
			_, _ = unix.Kevent(s.kq, kevents, nil, nil) // filter may already be gone
		}
	}
	if added := events &^ oldEvents; added != 0 {
		if kevents := eventsToKevents(fd, added, unix.EV_ADD|unix.EV_ENABLE); len(kevents) > 0 {
			if _, err := unix.Kevent(s.kq, kevents, nil, nil); err != nil {
				return fmt.Errorf("zreactor: kevent modify: %w", err)
			}
		}
	}
	return nil
}

// deregister removes fd from the key set.
func (s *selector) deregister(fd int) error {
	if s.closed.Load() {
		return ErrSelectorClosed
	}
	events, ok := s.keys[fd]
	if !ok {
		return ErrHandleNotRegistered
	}
	delete(s.keys, fd)
	if kevents := eventsToKevents(fd, events, unix.EV_DELETE); len(kevents) > 0 {
		_, _ = unix.Kevent(s.kq, kevents, nil, nil) // filter may already be gone
	}
	return nil
}

// Select waits for readiness, appending to the selected set. Returns the
// number of events reported by this call.
func (s *selector) Select(timeoutMs int) (int, error) {
	var deadline time.Time
	if timeoutMs > 0 {
		deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}

	for {
		if s.closed.Load() {
			return 0, ErrSelectorClosed
		}

		var ts *unix.Timespec
		if timeoutMs >= 0 {
			t := unix.NsecToTimespec(int64(timeoutMs) * int64(time.Millisecond))
			ts = &t
		}

		s.selects++
		n, err := unix.Kevent(s.kq, nil, s.eventBuf, ts)
		if err == unix.EINTR {
			if timeoutMs <= 0 {
				return 0, nil
			}
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return 0, nil
			}
			timeoutMs = durationToMillis(remaining)
			continue
		}
		if err != nil {
			if s.closed.Load() {
				return 0, ErrSelectorClosed
			}
			return 0, fmt.Errorf("zreactor: kevent wait: %w", err)
		}

		for i := 0; i < n; i++ {
			s.ready = append(s.ready, readyEvent{
				fd:     int(s.eventBuf[i].Ident),
				events: keventToEvents(&s.eventBuf[i]),
			})
		}
		return n, nil
	}
}

// Close closes the kqueue instance. Closing twice is a no-op.
func (s *selector) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return unix.Close(s.kq)
}

// eventsToKevents converts IOEvents to kqueue kevent structures.
func eventsToKevents(fd int, events IOEvents, flags uint16) []unix.Kevent_t {
	var kevents []unix.Kevent_t
	if events&EventRead != 0 {
		kevents = append(kevents, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_READ,
			Flags:  flags,
		})
	}
	if events&EventWrite != 0 {
		kevents = append(kevents, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_WRITE,
			Flags:  flags,
		})
	}
	return kevents
}

// keventToEvents converts a kqueue event to IOEvents.
func keventToEvents(kev *unix.Kevent_t) IOEvents {
	var events IOEvents
	switch kev.Filter {
	case unix.EVFILT_READ:
		events |= EventRead
	case unix.EVFILT_WRITE:
		events |= EventWrite
	}
	if kev.Flags&unix.EV_ERROR != 0 {
		events |= EventError
	}
	if kev.Flags&unix.EV_EOF != 0 {
		events |= EventHangup
	}
	return events
}
