// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package zreactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_SendCommandUnknownThread(t *testing.T) {
	ctx := newTestContext(t)
	err := ctx.SendCommand(42, CommandFunc(func() {}))
	assert.ErrorIs(t, err, ErrNoSuchThread)
	assert.Contains(t, err.Error(), "42")
}

func TestContext_Terminate(t *testing.T) {
	ctx, err := NewContext()
	require.NoError(t, err)

	require.NoError(t, ctx.Terminate())
	assert.ErrorIs(t, ctx.Terminate(), ErrContextTerminated)
	assert.ErrorIs(t, ctx.SendCommand(1, CommandFunc(func() {})), ErrContextTerminated)
	assert.ErrorIs(t, ctx.registerMailbox(1, &Mailbox{}), ErrContextTerminated)
	_, err = ctx.createSelector()
	assert.ErrorIs(t, err, ErrContextTerminated)
}

func TestContext_SlotTable(t *testing.T) {
	ctx := newTestContext(t)
	a, b := &Mailbox{}, &Mailbox{}

	require.NoError(t, ctx.registerMailbox(1, a))
	assert.ErrorIs(t, ctx.registerMailbox(1, b), ErrSlotInUse)

	ctx.unregisterMailbox(1, b)
	assert.ErrorIs(t, ctx.registerMailbox(1, b), ErrSlotInUse, "only the bound mailbox unregisters")

	ctx.unregisterMailbox(1, a)
	require.NoError(t, ctx.registerMailbox(1, b))
}

func TestContext_NilLogger(t *testing.T) {
	var ctx *Context
	assert.Nil(t, ctx.Logger())
}
