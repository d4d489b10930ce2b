// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package zreactor

import (
	"sync"

	"github.com/eapache/queue"
)

// commandPipe is a multi-producer, single-consumer FIFO of commands, which
// tracks whether its reader has gone to sleep. The reader is asleep
// initially, and again each time it finds the pipe empty.
type commandPipe struct {
	buf    *queue.Queue
	mu     sync.Mutex
	asleep bool
}

func newCommandPipe() *commandPipe {
	return &commandPipe{
		buf:    queue.New(),
		asleep: true,
	}
}

// write appends cmd, and reports whether the reader was awake. A false
// return means the caller must wake the reader.
func (p *commandPipe) write(cmd Command) bool {
	p.mu.Lock()
	p.buf.Add(cmd)
	awake := !p.asleep
	p.asleep = false
	p.mu.Unlock()
	return awake
}

// read removes the oldest command. If there is none the reader is marked
// asleep, and false is returned.
func (p *commandPipe) read() (Command, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.buf.Length() == 0 {
		p.asleep = true
		return nil, false
	}
	return p.buf.Remove().(Command), true
}

// length returns the number of queued commands.
func (p *commandPipe) length() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Length()
}
