// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build linux || darwin

package zreactor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMailbox(t *testing.T) *Mailbox {
	t.Helper()
	m, err := NewMailbox(newTestContext(t), "mailbox", 3)
	require.NoError(t, err)
	return m
}

func TestMailbox_OneSignalPerSleep(t *testing.T) {
	m := newTestMailbox(t)
	defer m.Close()

	for i := 0; i < 100; i++ {
		require.NoError(t, m.Send(seqCommand(i)))
	}
	assert.Equal(t, uint64(1), m.signaler.sent.Load())

	for i := 0; i < 100; i++ {
		cmd, err := m.Recv(0)
		require.NoError(t, err)
		assert.Equal(t, seqCommand(i), cmd)
	}
	_, err := m.Recv(0)
	assert.ErrorIs(t, err, ErrWouldBlock)
	assert.Equal(t, uint64(1), m.signaler.received)

	require.NoError(t, m.Send(seqCommand(100)))
	require.NoError(t, m.Send(seqCommand(101)))
	assert.Equal(t, uint64(2), m.signaler.sent.Load())
}

func TestMailbox_RecvTimeout(t *testing.T) {
	m := newTestMailbox(t)
	defer m.Close()

	start := time.Now()
	_, err := m.Recv(20 * time.Millisecond)
	assert.ErrorIs(t, err, ErrWouldBlock)
	assert.GreaterOrEqual(t, time.Since(start), 19*time.Millisecond)

	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = m.Send(seqCommand(1))
	}()
	for {
		cmd, err := m.Recv(-1)
		if errors.Is(err, ErrInterrupted) {
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, seqCommand(1), cmd)
		break
	}
}

func TestMailbox_ConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	m := newTestMailbox(t)
	defer m.Close()

	const producers, perProducer = 8, 500
	type tagged struct {
		seqCommand
		producer int
	}

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				assert.NoError(t, m.Send(tagged{seqCommand(i), p}))
			}
		}(p)
	}

	next := make([]int, producers)
	deadline := time.Now().Add(10 * time.Second)
	for received := 0; received < producers*perProducer; {
		require.True(t, time.Now().Before(deadline), "timed out")
		cmd, err := m.Recv(10 * time.Millisecond)
		if errors.Is(err, ErrWouldBlock) || errors.Is(err, ErrInterrupted) {
			continue
		}
		require.NoError(t, err)
		c := cmd.(tagged)
		require.Equal(t, next[c.producer], int(c.seqCommand))
		next[c.producer]++
		received++
	}
	wg.Wait()

	_, err := m.Recv(0)
	assert.ErrorIs(t, err, ErrWouldBlock)
	assert.Equal(t, m.signaler.sent.Load(), m.signaler.received)
}

func TestMailbox_Close(t *testing.T) {
	m := newTestMailbox(t)
	require.NoError(t, m.Send(seqCommand(1)))
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Send(seqCommand(2)), ErrMailboxClosed)
	assert.ErrorIs(t, m.Close(), ErrMailboxClosed)
	assert.Equal(t, "mailbox", m.String())
}

func TestMailbox_CloseLogsDiscardedCommands(t *testing.T) {
	logger, log := newTestLogger()
	m, err := NewMailbox(newTestContext(t, WithLogger(logger)), "mailbox", 3)
	require.NoError(t, err)

	require.NoError(t, m.Send(seqCommand(1)))
	require.NoError(t, m.Send(seqCommand(2)))
	require.NoError(t, m.Close())

	debug := log.byLevel(logiface.LevelDebug)
	require.Len(t, debug, 1)
	assert.Equal(t, "mailbox", debug[0].fields["component"])
	assert.Equal(t, 2, debug[0].fields["discarded"])
}
