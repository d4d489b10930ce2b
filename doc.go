// Package zreactor provides the concurrency core of a message-queue
// transport: a cross-goroutine [Signaler], and the [IOThread] reactor which
// turns mailbox readiness into strictly ordered command execution.
//
// # Architecture
//
// A [Context] owns the state shared between threads, mapping thread ids to
// their [Mailbox]. Work is posted to a thread with [Context.SendCommand], or
// [Object.SendCommand] from anything bound to the context. The mailbox
// buffers the [Command], and wakes its reader through a [Signaler] only if
// the reader went to sleep.
//
// Each [IOThread] owns a [Poller], a dispatch goroutine locked to an OS
// thread, which waits on the mailbox and on any descriptors registered by
// the [Engine] implementations plugged into it. Commands execute on that
// goroutine, in the order they were sent.
//
// # Signaler
//
// A [Signaler] is a non-blocking local pipe plus a private selector. It
// counts sends and receives, so [Signaler.WaitEvent] detects a pending
// signal without a system call. Only one signal may be outstanding.
//
// # Platform Support
//
// Readiness is implemented using platform-native mechanisms:
//   - macOS: kqueue
//   - Linux: epoll
//
// Other platforms fail at construction, with [ErrUnsupportedPlatform].
//
// # Shutdown
//
// [IOThread.Stop] is itself a command, so everything sent before it is
// executed. [IOThread.Close] then waits for the loop to exit. Every thread
// must be closed before [Context.Terminate].
package zreactor
