// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package zreactor

// Engine is a transport engine (TCP, IPC, and the like), which moves
// messages between a file descriptor and a [Session]. All methods are
// called on the goroutine of the IOThread the engine is plugged into.
type Engine interface {
	// Plug attaches the engine to io, and to the session it serves.
	Plug(io *IOThread, session Session)

	// Terminate detaches the engine and releases it, without notifying
	// the session.
	Terminate()

	// RestartInput resumes reading, after the session had pushed back.
	RestartInput()

	// RestartOutput resumes writing, when the session has new messages.
	RestartOutput()

	// ZapMsgAvailable notifies the engine that a ZAP (authentication)
	// reply is waiting to be read.
	ZapMsgAvailable()
}

// Session is the side of a connection an [Engine] talks back to.
type Session interface {
	// PullMsg returns the next message to write. [ErrWouldBlock] means
	// there is none.
	PullMsg() ([]byte, error)

	// PushMsg delivers a received message. [ErrWouldBlock] means the
	// session cannot accept more, until the engine's input is restarted.
	PushMsg(msg []byte) error

	// Flush publishes messages pushed so far.
	Flush()

	// EngineError reports that the engine failed, and has detached.
	EngineError(err error)
}
