// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/pipebatch/internal/jobspec"
	"github.com/matt-FFFFFF/pipebatch/internal/progress"
	"github.com/matt-FFFFFF/pipebatch/internal/runbatch"
)

// ErrTUI is returned when the terminal program fails.
var ErrTUI = errors.New("terminal user interface failed")

// ExecuteFunc runs the batch, reporting progress to reporter.
type ExecuteFunc func(ctx context.Context, reporter progress.Reporter) (*runbatch.BatchResults, error)

// eventBufferSize is how many events may wait for the TUI before output lines are dropped.
const eventBufferSize = 256

// Runner manages the TUI program and the batch running beside it.
type Runner struct {
	model   *Model
	program *tea.Program
}

// programListener forwards progress events to the program as messages.
type programListener struct {
	program *tea.Program
}

// OnEvent implements progress.Listener.
func (l programListener) OnEvent(event progress.Event) {
	if l.program != nil {
		l.program.Send(ProgressEventMsg{Event: event})
	}
}

// Option configures a Runner.
type Option func(*Runner)

// WithProgramOptions passes options through to the bubbletea program.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(r *Runner) {
		r.program = tea.NewProgram(r.model, opts...)
	}
}

// WithExitOnComplete quits the program as soon as the batch ends instead of
// waiting for the user.
func WithExitOnComplete() Option {
	return func(r *Runner) {
		r.model.autoQuit = true
	}
}

// NewRunner creates a TUI runner listing jobs.
func NewRunner(ctx context.Context, jobs []jobspec.JobSpec, opts ...Option) *Runner {
	r := &Runner{
		model: NewModel(ctx, jobs),
	}

	r.program = tea.NewProgram(r.model, tea.WithAltScreen())

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run starts execute on a new goroutine and runs the TUI on the calling one.
// Quitting the TUI before the batch ends cancels the batch. Run returns once
// both have finished.
func (r *Runner) Run(ctx context.Context, execute ExecuteFunc) (*runbatch.BatchResults, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.model.SetCancel(cancel)

	type outcome struct {
		results *runbatch.BatchResults
		err     error
	}

	done := make(chan outcome, 1)

	go func() {
		reporter := progress.NewBufferedReporter(ctx, eventBufferSize)
		reporter.Listen(programListener{program: r.program})

		res, err := execute(ctx, reporter)
		reporter.Close()
		r.program.Send(BatchCompletedMsg{Results: res, Err: err})
		done <- outcome{results: res, err: err}
	}()

	// A cancelled parent context, for example from a signal, closes the TUI.
	stop := context.AfterFunc(ctx, r.program.Quit)
	defer stop()

	_, tuiErr := r.program.Run()

	cancel()

	out := <-done

	if tuiErr != nil && !errors.Is(tuiErr, tea.ErrProgramKilled) {
		return out.results, errors.Join(out.err, ErrTUI, tuiErr)
	}

	return out.results, out.err
}
