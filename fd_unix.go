// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build linux || darwin

package zreactor

import (
	"errors"
	"io"

	"golang.org/x/sys/unix"
)

// closeFD closes a file descriptor on Unix systems.
func closeFD(fd int) error {
	return unix.Close(fd)
}

// readFD reads from a file descriptor on Unix systems.
func readFD(fd int, buf []byte) (int, error) {
	n, err := unix.Read(fd, buf)
	if err == nil && n == 0 && len(buf) != 0 {
		return 0, io.EOF
	}
	return n, err
}

// writeFD writes to a file descriptor on Unix systems.
func writeFD(fd int, buf []byte) (int, error) {
	return unix.Write(fd, buf)
}

// isZeroProgress reports whether err means try again.
func isZeroProgress(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR)
}

// isClosedChannel reports whether err means the channel is gone.
func isClosedChannel(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, unix.EBADF)
}
