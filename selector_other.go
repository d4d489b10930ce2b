// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build !linux && !darwin

package zreactor

// selector is a placeholder on platforms without a readiness multiplexer
// implementation. newSelector always fails, so no instance is ever used.
type selector struct {
	keys    map[int]IOEvents
	ready   []readyEvent
	selects uint64
}

func newSelector(int) (*selector, error) {
	return nil, ErrUnsupportedPlatform
}

func (s *selector) register(int, IOEvents) error { return ErrUnsupportedPlatform }

func (s *selector) modify(int, IOEvents) error { return ErrUnsupportedPlatform }

func (s *selector) deregister(int) error { return ErrUnsupportedPlatform }

func (s *selector) Select(int) (int, error) { return 0, ErrUnsupportedPlatform }

func (s *selector) Close() error { return nil }
