// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/pipebatch/internal/progress"
	"github.com/matt-FFFFFF/pipebatch/internal/runbatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func headless() Option {
	return WithProgramOptions(
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
}

func TestRunner_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	jobs := testJobs()
	r := NewRunner(context.Background(), jobs, headless(), WithExitOnComplete())

	want := &runbatch.BatchResults{Results: runbatch.Results{{Index: 0, Status: runbatch.StatusCompleted}}}

	got, err := r.Run(context.Background(), func(_ context.Context, reporter progress.Reporter) (*runbatch.BatchResults, error) {
		reporter.Report(event(0, progress.EventStarted, time.Now()))
		reporter.Report(event(0, progress.EventCompleted, time.Now()))

		return want, nil
	})

	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, StatusCompleted, r.model.rows[0].Status)
}

func TestRunner_ParentCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(ctx, testJobs(), headless())

	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := r.Run(ctx, func(ctx context.Context, _ progress.Reporter) (*runbatch.BatchResults, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
}
