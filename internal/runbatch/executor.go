// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matt-FFFFFF/pipebatch/internal/ctxlog"
	"github.com/matt-FFFFFF/pipebatch/internal/jobspec"
	"github.com/matt-FFFFFF/pipebatch/internal/progress"
)

var (
	// ErrLaunchFailed is returned when a job could not be launched. The batch stops at that job.
	ErrLaunchFailed = errors.New("compute instance failed to launch")
	// ErrBatchCancelled is returned when the batch context is cancelled.
	ErrBatchCancelled = errors.New("batch cancelled")
)

// JobRunner runs a single job to completion.
type JobRunner interface {
	Run(ctx context.Context, job jobspec.JobSpec, timeout time.Duration) *Result
}

// Preparer readies a job output directory.
type Preparer interface {
	Prepare(ctx context.Context, path string, purgeStale bool) error
}

var _ JobRunner = (*Runner)(nil)

// Executor runs a batch of jobs in order.
type Executor struct {
	Runner   JobRunner
	Preparer Preparer
	Out      io.Writer // receives the job plan and the final timing line
	Reporter progress.Reporter
	now      func() time.Time
}

// NewExecutor creates an Executor writing its plan and summary to out.
// A nil reporter discards the progress events.
func NewExecutor(runner JobRunner, preparer Preparer, out io.Writer, reporter progress.Reporter) *Executor {
	if out == nil {
		out = os.Stdout
	}

	if reporter == nil {
		reporter = progress.NewNullReporter()
	}

	return &Executor{
		Runner:   runner,
		Preparer: preparer,
		Out:      out,
		Reporter: reporter,
		now:      time.Now,
	}
}

// Execute prints the job plan and, unless cfg.DryRun is set, prepares every
// output directory and runs the jobs one at a time.
// A launch failure stops the batch with ErrLaunchFailed. A timed out job is
// recorded and the batch continues. Cancelling ctx terminates the running job
// and stops the batch with ErrBatchCancelled.
// The returned BatchResults holds every job that was run, even on error.
func (e *Executor) Execute(ctx context.Context, jobs []jobspec.JobSpec, cfg *BatchConfig) (*BatchResults, error) {
	start := e.clock()
	br := newBatchResults(start)

	e.printPlan(jobs)

	if cfg.DryRun {
		ctxlog.Info(ctx, "dry run, not running the compute instances")
		return br, nil
	}

	for _, job := range jobs {
		if err := e.Preparer.Prepare(ctx, job.OutputPath, !cfg.KeepOldOutput); err != nil {
			return br, err
		}
	}

	ctxlog.Info(ctx, "running the compute instances", "count", len(jobs), "runID", br.RunID.String())

	total := len(jobs)

	for k, job := range jobs {
		if err := ctx.Err(); err != nil {
			br.Elapsed = e.clock().Sub(start)
			return br, errors.Join(ErrBatchCancelled, context.Cause(ctx))
		}

		ctxlog.Info(ctx, fmt.Sprintf("[%d/%d] running compute instance", k+1, total), "label", job.Label())

		e.Reporter.Report(progress.Event{
			JobIndex:  job.Index,
			Label:     job.Label(),
			Type:      progress.EventStarted,
			Message:   job.CommandLine(),
			Timestamp: e.clock(),
			Data:      progress.EventData{Position: k + 1, Total: total},
		})

		res := e.Runner.Run(ctx, job, cfg.Timeout)
		br.Results = append(br.Results, res)

		e.Reporter.Report(progress.Event{
			JobIndex:  job.Index,
			Label:     res.Label,
			Type:      res.Status.EventType(),
			Message:   res.Status.String(),
			Timestamp: e.clock(),
			Data: progress.EventData{
				ExitCode: res.ExitCode,
				Duration: res.Duration,
				Error:    res.Error,
			},
		})

		switch res.Status {
		case StatusLaunchFailed:
			ctxlog.Error(ctx, "failed compute instance", "label", res.Label, "command", res.CommandLine, "error", res.Error)
			br.Elapsed = e.clock().Sub(start)

			return br, errors.Join(ErrLaunchFailed, res.Error)
		case StatusTimedOut:
			ctxlog.Warn(ctx, "compute instance timed out, continuing", "label", res.Label, "error", res.Error)
		case StatusCancelled:
			br.Elapsed = e.clock().Sub(start)
			return br, errors.Join(ErrBatchCancelled, res.Error)
		default:
			ctxlog.Debug(ctx, "compute instance completed", "label", res.Label, "duration", res.Duration, "exitCode", res.ExitCode)
		}
	}

	br.Elapsed = e.clock().Sub(start)
	fmt.Fprintf(e.Out, "Finished! Total time: %s\n", FormatTotal(br.Elapsed)) //nolint:errcheck

	return br, nil
}

func (e *Executor) printPlan(jobs []jobspec.JobSpec) {
	fmt.Fprintf(e.Out, "Number of compute instances: %d\n", len(jobs)) //nolint:errcheck

	for _, job := range jobs {
		fmt.Fprintf(e.Out, " + [Compute instance: %d] %s\n", job.Index, job.CommandLine()) //nolint:errcheck
	}
}

func (e *Executor) clock() time.Time {
	if e.now == nil {
		return time.Now()
	}

	return e.now()
}
