// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"io"
	"slices"
	"time"

	"github.com/matt-FFFFFF/pipebatch/internal/progress"
)

// Status is the outcome of a single job.
type Status int

const (
	// StatusCompleted means the job's output ended and the process exited. The exit code is not considered.
	StatusCompleted Status = iota
	// StatusTimedOut means the job was terminated after exceeding its timeout.
	StatusTimedOut
	// StatusLaunchFailed means the job's process could not be started.
	StatusLaunchFailed
	// StatusCancelled means the job was terminated because the batch context was cancelled.
	StatusCancelled
)

// String implements the Stringer interface for Status.
func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusTimedOut:
		return "timed out"
	case StatusLaunchFailed:
		return "launch failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalYAML writes the status as its string form.
func (s Status) MarshalYAML() (any, error) {
	return s.String(), nil
}

// EventType maps the status to the terminal progress event for it.
func (s Status) EventType() progress.EventType {
	switch s {
	case StatusTimedOut:
		return progress.EventTimedOut
	case StatusLaunchFailed:
		return progress.EventFailed
	case StatusCancelled:
		return progress.EventCancelled
	default:
		return progress.EventCompleted
	}
}

// Result represents the outcome of running one job.
type Result struct {
	Index       int           // JobSpec index
	Label       string        // JobSpec label
	CommandLine string        // the command line that was launched
	Status      Status        // outcome
	Duration    time.Duration // launch to return
	Lines       []string      // output lines in the order they were printed
	ExitCode    int           // informational only, -1 when unknown
	PID         int           // process id, zero when never launched
	Error       error         // cause of a non-completed status
}

// Results is a slice of Result pointers in run order.
type Results []*Result

// HasFailures reports whether any job did not complete.
func (r Results) HasFailures() bool {
	return slices.ContainsFunc(r, func(res *Result) bool {
		return res.Status != StatusCompleted
	})
}

// Count returns the number of results with status s.
func (r Results) Count(s Status) int {
	n := 0

	for _, res := range r {
		if res.Status == s {
			n++
		}
	}

	return n
}

// WriteWithOptions outputs the results to the specified writer with the specified options.
func (r Results) WriteWithOptions(w io.Writer, options *OutputOptions) error {
	return writeTextResults(w, r, options)
}
