// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker subscribes to the OS signals that should stop a batch
// and turns a repeated signal into context cancellation.
//
// The first SIGINT/SIGTERM/SIGQUIT is only logged so the running job can keep
// going; a second signal of the same kind cancels the root context, which
// force-terminates the running job and stops the batch.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/pipebatch/internal/ctxlog"
)

var termSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// New registers a buffered channel for sigs, or for the termination signals when none are given.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	if len(sigs) == 0 {
		sigs = termSignals
	}

	ch := make(chan os.Signal, 1)

	ctxlog.Debug(ctx, "signal broker created", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}

// Stop unregisters ch. The channel is not closed.
func Stop(ch chan os.Signal) {
	signal.Stop(ch)
}
