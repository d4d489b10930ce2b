// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build !linux && !darwin

package zreactor

func closeFD(int) error { return ErrUnsupportedPlatform }

func readFD(int, []byte) (int, error) { return 0, ErrUnsupportedPlatform }

func writeFD(int, []byte) (int, error) { return 0, ErrUnsupportedPlatform }

func isZeroProgress(error) bool { return false }

func isClosedChannel(error) bool { return false }
