// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package zreactor

// wakeupChannel is a local byte pipe, both ends non-blocking and
// close-on-exec.
type wakeupChannel struct {
	closeFn func(fd int) error
	r       int
	w       int
}

func newWakeupChannel() (wakeupChannel, error) {
	r, w, err := createWakePipe()
	if err != nil {
		return wakeupChannel{}, err
	}
	return wakeupChannel{r: r, w: w, closeFn: closeFD}, nil
}

func (c *wakeupChannel) closeRead() error {
	return c.closeFn(c.r)
}

func (c *wakeupChannel) closeWrite() error {
	return c.closeFn(c.w)
}
