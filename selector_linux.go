// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build linux

package zreactor

import (
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// selector manages readiness registration using epoll (Linux), level
// triggered.
type selector struct {
	keys     map[int]IOEvents
	eventBuf []unix.EpollEvent
	ready    []readyEvent
	selects  uint64
	epfd     int
	closed   atomic.Bool
}

// newSelector creates an epoll instance.
func newSelector(maxEvents int) (*selector, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("zreactor: epoll create: %w", err)
	}
	return &selector{
		epfd:     epfd,
		keys:     make(map[int]IOEvents),
		eventBuf: make([]unix.EpollEvent, maxEvents),
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
	ev := &unix.EpollEvent{
		Events: eventsToEpoll(events),
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		return fmt.Errorf("zreactor: epoll ctl add: %w", err)
	}
	s.keys[fd] = events
	return nil
}

// modify replaces the interest set of a registered fd.
func (s *selector) modify(fd int, events IOEvents) error {
	if s.closed.Load() {
		return ErrSelectorClosed
	}
	if _, ok := s.keys[fd]; !ok {
		return ErrHandleNotRegistered
	}
	ev := &unix.EpollEvent{
		Events: eventsToEpoll(events),
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_MOD, fd, ev); err != nil {
		return fmt.Errorf("zreactor: epoll ctl mod: %w", err)
	}
	s.keys[fd] = events
	return nil
}

// deregister removes fd from the key set.
func (s *selector) deregister(fd int) error {
	if s.closed.Load() {
		return ErrSelectorClosed
	}
	if _, ok := s.keys[fd]; !ok {
		return ErrHandleNotRegistered
	}
	delete(s.keys, fd)
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("zreactor: epoll ctl del: %w", err)
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

		s.selects++
		n, err := unix.EpollWait(s.epfd, s.eventBuf, timeoutMs)
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
			return 0, fmt.Errorf("zreactor: epoll wait: %w", err)
		}

		for i := 0; i < n; i++ {
			s.ready = append(s.ready, readyEvent{
				fd:     int(s.eventBuf[i].Fd),
				events: epollToEvents(s.eventBuf[i].Events),
			})
		}
		return n, nil
	}
}

// Close closes the epoll instance. Closing twice is a no-op.
func (s *selector) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return unix.Close(s.epfd)
}

// eventsToEpoll converts IOEvents to epoll event flags.
func eventsToEpoll(events IOEvents) uint32 {
	var epollEvents uint32
	if events&EventRead != 0 {
		epollEvents |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		epollEvents |= unix.EPOLLOUT
	}
	return epollEvents
}

// epollToEvents converts epoll event flags to IOEvents.
func epollToEvents(epollEvents uint32) IOEvents {
	var events IOEvents
	if epollEvents&unix.EPOLLIN != 0 {
		events |= EventRead
	}
	if epollEvents&unix.EPOLLOUT != 0 {
		events |= EventWrite
	}
	if epollEvents&unix.EPOLLERR != 0 {
		events |= EventError
	}
	if epollEvents&unix.EPOLLHUP != 0 {
		events |= EventHangup
	}
	return events
}
